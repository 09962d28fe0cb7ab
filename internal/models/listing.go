package models

import (
	"time"
)

// ListingStatus mirrors the on-chain lifecycle plus an off-chain draft state
type ListingStatus string

const (
	ListingDraft     ListingStatus = "draft"
	ListingOpen      ListingStatus = "open"
	ListingClaimed   ListingStatus = "claimed"
	ListingSubmitted ListingStatus = "submitted"
	ListingCompleted ListingStatus = "completed"
	ListingCancelled ListingStatus = "cancelled"
	ListingExpired   ListingStatus = "expired"
)

// Valid reports whether s is a known status
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingDraft, ListingOpen, ListingClaimed, ListingSubmitted,
		ListingCompleted, ListingCancelled, ListingExpired:
		return true
	}
	return false
}

// Listing is the off-chain description of a bounty
type Listing struct {
	ID               string        `json:"id" db:"id"`
	PosterID         string        `json:"poster_id" db:"poster_id"`
	Title            string        `json:"title" db:"title"`
	Description      string        `json:"description" db:"description"`
	SkillsRequired   []string      `json:"skills_required" db:"skills_required"`
	PayoutAmount     float64       `json:"payout_amount" db:"payout_amount"`
	PayoutCurrency   string        `json:"payout_currency" db:"payout_currency"`
	Deadline         time.Time     `json:"deadline" db:"deadline"`
	Status           ListingStatus `json:"status" db:"status"`
	WorkerID         *string       `json:"worker_id" db:"worker_id"`
	ClaimedAt        *time.Time    `json:"claimed_at" db:"claimed_at"`
	ContractBountyID *int64        `json:"contract_bounty_id" db:"contract_bounty_id"`
	ContractTxHash   *string       `json:"contract_tx_hash" db:"contract_tx_hash"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}
