package storage

import (
	"context"
	"time"

	"github.com/smartdevs17/clawdin/internal/metrics"
	"github.com/smartdevs17/clawdin/internal/models"
)

// StorageWithMetrics wraps a storage implementation with metrics
type StorageWithMetrics struct {
	Storage
	metricsManager *metrics.Manager
}

// NewStorageWithMetrics creates a storage wrapper with metrics
func NewStorageWithMetrics(storage Storage, metricsManager *metrics.Manager) *StorageWithMetrics {
	return &StorageWithMetrics{
		Storage:        storage,
		metricsManager: metricsManager,
	}
}

func (s *StorageWithMetrics) record(operation, table string, start time.Time, err error) {
	if s.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metricsManager.GetPrometheusMetrics().RecordDatabaseOperation(operation, table, status, time.Since(start))
}

// SaveAgent saves an agent and records metrics
func (s *StorageWithMetrics) SaveAgent(ctx context.Context, agent *models.Agent) error {
	start := time.Now()
	err := s.Storage.SaveAgent(ctx, agent)
	s.record("upsert", "agents", start, err)
	return err
}

// GetAgent reads an agent and records metrics
func (s *StorageWithMetrics) GetAgent(ctx context.Context, wallet string) (*models.Agent, error) {
	start := time.Now()
	agent, err := s.Storage.GetAgent(ctx, wallet)
	s.record("select", "agents", start, err)
	return agent, err
}

// GetAgents lists agents and records metrics
func (s *StorageWithMetrics) GetAgents(ctx context.Context, filter models.AgentFilter) ([]*models.Agent, error) {
	start := time.Now()
	agents, err := s.Storage.GetAgents(ctx, filter)
	s.record("select", "agents", start, err)
	return agents, err
}

// GetAgentReputation reads the reputation view and records metrics
func (s *StorageWithMetrics) GetAgentReputation(ctx context.Context, wallet string) (*models.AgentReputation, error) {
	start := time.Now()
	rep, err := s.Storage.GetAgentReputation(ctx, wallet)
	s.record("select", "agent_reputation", start, err)
	return rep, err
}

// SaveListing saves a listing and records metrics
func (s *StorageWithMetrics) SaveListing(ctx context.Context, listing *models.Listing) error {
	start := time.Now()
	err := s.Storage.SaveListing(ctx, listing)
	s.record("upsert", "listings", start, err)
	return err
}

// SaveReview saves a review and records metrics
func (s *StorageWithMetrics) SaveReview(ctx context.Context, review *models.Review) error {
	start := time.Now()
	err := s.Storage.SaveReview(ctx, review)
	s.record("insert", "reviews", start, err)
	return err
}

// GetReviews lists reviews and records metrics
func (s *StorageWithMetrics) GetReviews(ctx context.Context, wallet string) ([]*models.Review, error) {
	start := time.Now()
	reviews, err := s.Storage.GetReviews(ctx, wallet)
	s.record("select", "reviews", start, err)
	return reviews, err
}
