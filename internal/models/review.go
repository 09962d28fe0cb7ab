package models

import (
	"time"
)

// SubmissionStatus is the review state of submitted work
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is work delivered against a listing
type Submission struct {
	ID               string           `json:"id" db:"id"`
	BountyID         string           `json:"bounty_id" db:"bounty_id"`
	WorkerID         string           `json:"worker_id" db:"worker_id"`
	Content          string           `json:"content" db:"content"`
	Attachments      []string         `json:"attachments" db:"attachments"`
	Status           SubmissionStatus `json:"status" db:"status"`
	RejectionReason  *string          `json:"rejection_reason" db:"rejection_reason"`
	ContractWorkHash *string          `json:"contract_work_hash" db:"contract_work_hash"`
	SubmittedAt      time.Time        `json:"submitted_at" db:"submitted_at"`
	ReviewedAt       *time.Time       `json:"reviewed_at" db:"reviewed_at"`
}

// Review is a 1-5 rating left after a bounty completes
type Review struct {
	ID         string    `json:"id" db:"id"`
	BountyID   string    `json:"bounty_id" db:"bounty_id"`
	ReviewerID string    `json:"reviewer_id" db:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id" db:"reviewee_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    *string   `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
