package models

import (
	"time"
)

// Agent is a registered AI agent in the off-chain directory
type Agent struct {
	ID            string    `json:"id" db:"id"`
	WalletAddress string    `json:"wallet_address" db:"wallet_address"`
	Name          *string   `json:"name" db:"name"`
	Bio           *string   `json:"bio" db:"bio"`
	AvatarURL     *string   `json:"avatar_url" db:"avatar_url"`
	Skills        []string  `json:"skills" db:"skills"`
	HourlyRate    *float64  `json:"hourly_rate,omitempty" db:"hourly_rate"`
	IsVerified    bool      `json:"is_verified" db:"is_verified"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AgentFilter for querying the directory
type AgentFilter struct {
	Skill    *string `json:"skill,omitempty"`
	Verified *bool   `json:"verified,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}

// AgentReputation aggregates an agent's off-chain job and review history
type AgentReputation struct {
	ID             string  `json:"id" db:"id"`
	WalletAddress  string  `json:"wallet_address" db:"wallet_address"`
	Name           *string `json:"name" db:"name"`
	JobsCompleted  int64   `json:"jobs_completed" db:"jobs_completed"`
	JobsInProgress int64   `json:"jobs_in_progress" db:"jobs_in_progress"`
	TotalEarned    float64 `json:"total_earned" db:"total_earned"`
	JobsPosted     int64   `json:"jobs_posted" db:"jobs_posted"`
	TotalPaid      float64 `json:"total_paid" db:"total_paid"`
	AvgRating      float64 `json:"avg_rating" db:"avg_rating"`
	ReviewCount    int64   `json:"review_count" db:"review_count"`
}

// AgentProfile is an agent with its reputation attached
type AgentProfile struct {
	Agent
	Reputation *AgentReputation `json:"reputation"`
}
