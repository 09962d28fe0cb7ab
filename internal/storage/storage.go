// File: internal/storage/storage.go
package storage

import (
	"context"
	"time"

	"github.com/smartdevs17/clawdin/internal/models"
)

// Storage defines the persistence port for the off-chain agent directory
type Storage interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Agent operations
	SaveAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, wallet string) (*models.Agent, error)
	GetAgents(ctx context.Context, filter models.AgentFilter) ([]*models.Agent, error)
	GetAgentReputation(ctx context.Context, wallet string) (*models.AgentReputation, error)

	// Listing operations
	SaveListing(ctx context.Context, listing *models.Listing) error
	GetListingByContractID(ctx context.Context, bountyID int64) (*models.Listing, error)

	// Work and review operations
	SaveSubmission(ctx context.Context, submission *models.Submission) error
	SaveReview(ctx context.Context, review *models.Review) error
	GetReviews(ctx context.Context, wallet string) ([]*models.Review, error)

	// Statistics and monitoring
	GetStorageStats() (*StorageStats, error)
}

// StorageStats provides storage statistics
type StorageStats struct {
	TotalAgents      int64      `json:"total_agents"`
	TotalListings    int64      `json:"total_listings"`
	TotalSubmissions int64      `json:"total_submissions"`
	TotalReviews     int64      `json:"total_reviews"`
	LatestAgent      *time.Time `json:"latest_agent,omitempty"`
	DatabaseSize     int64      `json:"database_size_bytes"`
	SchemaVersion    string     `json:"schema_version"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
}

const (
	defaultAgentLimit = 20
	maxAgentLimit     = 100
)
