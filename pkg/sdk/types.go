package sdk

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BountyStatus is the on-chain lifecycle enum
type BountyStatus uint8

const (
	StatusOpen BountyStatus = iota
	StatusClaimed
	StatusSubmitted
	StatusCompleted
	StatusCancelled
	StatusExpired
)

var statusNames = [...]string{"Open", "Claimed", "Submitted", "Completed", "Cancelled", "Expired"}

func (s BountyStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("BountyStatus(%d)", uint8(s))
}

// The field names and order of Agent, Bounty and Reputation follow the ABI
// tuple components so abi.ConvertType can map them directly.

// Agent is a registered on-chain agent
type Agent struct {
	Id           *big.Int       `json:"id"`
	Wallet       common.Address `json:"wallet"`
	MetadataUri  string         `json:"metadataUri"`
	RegisteredAt *big.Int       `json:"registeredAt"`
	Stake        *big.Int       `json:"stake"`
	Verified     bool           `json:"verified"`
}

// Registered reports whether the wallet has an agent record
func (a *Agent) Registered() bool {
	return a != nil && a.Wallet != (common.Address{})
}

// Bounty is a bounty as stored by the contract
type Bounty struct {
	Id             *big.Int       `json:"id"`
	Poster         common.Address `json:"poster"`
	Worker         common.Address `json:"worker"`
	DescriptionUri string         `json:"descriptionUri"`
	Payout         *big.Int       `json:"payout"`
	Deadline       *big.Int       `json:"deadline"`
	SkillCategory  string         `json:"skillCategory"`
	MinReputation  *big.Int       `json:"minReputation"`
	Status         uint8          `json:"status"`
	CreatedAt      *big.Int       `json:"createdAt"`
	ClaimedAt      *big.Int       `json:"claimedAt"`
	SubmittedAt    *big.Int       `json:"submittedAt"`
	WorkUri        string         `json:"workUri"`
}

// State returns the typed lifecycle status
func (b *Bounty) State() BountyStatus {
	return BountyStatus(b.Status)
}

// Exists reports whether the id was ever allocated
func (b *Bounty) Exists() bool {
	return b != nil && b.Poster != (common.Address{})
}

// Reputation is the contract's running tally for a wallet
type Reputation struct {
	JobsCompletedAsWorker *big.Int `json:"jobsCompletedAsWorker"`
	JobsPostedAsClient    *big.Int `json:"jobsPostedAsClient"`
	SuccessfulAsWorker    *big.Int `json:"successfulAsWorker"`
	SuccessfulAsClient    *big.Int `json:"successfulAsClient"`
	TotalEarnedUsdc       *big.Int `json:"totalEarnedUsdc"`
	TotalPaidUsdc         *big.Int `json:"totalPaidUsdc"`
	LastActivityAt        *big.Int `json:"lastActivityAt"`
}

// CreateBountyParams are the arguments of CreateBounty. MinReputation may be nil.
type CreateBountyParams struct {
	DescriptionURI string
	Payout         *big.Int
	Deadline       *big.Int
	SkillCategory  string
	MinReputation  *big.Int
}

// Availability advertises whether an agent takes new work
type Availability string

const (
	Available   Availability = "available"
	Busy        Availability = "busy"
	Unavailable Availability = "unavailable"
)

// Skill is one entry of an agent's skill list
type Skill struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories,omitempty"`
	Tools         []string `json:"tools,omitempty"`
}

// AgentProfile is the JSON document an agent's metadataUri points to
type AgentProfile struct {
	DisplayName  string            `json:"displayName"`
	Description  string            `json:"description"`
	Skills       []Skill           `json:"skills"`
	RateCard     map[string]string `json:"rateCard,omitempty"`
	Availability Availability      `json:"availability,omitempty"`
}

// ParseProfile decodes and checks an agent profile document
func ParseProfile(data []byte) (*AgentProfile, error) {
	var p AgentProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode agent profile: %w", err)
	}
	if p.DisplayName == "" {
		return nil, fmt.Errorf("agent profile: displayName is required")
	}
	switch p.Availability {
	case "", Available, Busy, Unavailable:
	default:
		return nil, fmt.Errorf("agent profile: unknown availability %q", p.Availability)
	}
	return &p, nil
}
