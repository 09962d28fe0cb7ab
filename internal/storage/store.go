package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/clawdin/internal/models"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

// sqlStore holds the database/sql implementation shared by both drivers
type sqlStore struct {
	db         *sql.DB
	config     *StorageConfig
	dialect    *dialect
	logger     *logrus.Logger
	migrations []*Migration
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.WithField("driver", s.dialect.name).Info("Database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *sqlStore) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return s.db.Ping()
}

// Migrate applies every migration not yet recorded in schema_migrations
func (s *sqlStore) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	s.logger.WithField("driver", s.dialect.name).Info("Starting database migrations")

	if _, err := s.db.Exec(createMigrationsTable); err != nil {
		return utils.WrapAppError(utils.ErrCodeDatabase, "Failed to create migrations table", err)
	}

	applied, err := s.appliedVersions()
	if err != nil {
		return err
	}

	for _, migration := range s.migrations {
		if applied[migration.Version] {
			continue
		}

		s.logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Applying migration")

		if err := s.applyMigration(migration); err != nil {
			return utils.WrapAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Migration %s failed", migration.Version), err)
		}
	}

	s.logger.Info("Database migrations completed")
	return nil
}

func (s *sqlStore) appliedVersions() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to read applied migrations", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to scan migration", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *sqlStore) applyMigration(m *Migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}

	_, err = tx.Exec(s.dialect.rebind("INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)"),
		m.Version, m.Description, time.Now().UTC())
	if err != nil {
		return err
	}
	return tx.Commit()
}

// SaveAgent inserts or updates an agent keyed by id
func (s *sqlStore) SaveAgent(ctx context.Context, agent *models.Agent) error {
	if !utils.IsValidAddress(agent.WalletAddress) {
		return utils.NewAppError(utils.ErrCodeValidation, "Invalid wallet address", agent.WalletAddress)
	}

	now := time.Now().UTC()
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}
	agent.UpdatedAt = now
	agent.WalletAddress = utils.NormalizeAddress(agent.WalletAddress)
	if agent.Skills == nil {
		agent.Skills = []string{}
	}

	query := `
		INSERT INTO agents
		(id, wallet_address, name, bio, avatar_url, skills, hourly_rate, is_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			wallet_address = EXCLUDED.wallet_address,
			name = EXCLUDED.name,
			bio = EXCLUDED.bio,
			avatar_url = EXCLUDED.avatar_url,
			skills = EXCLUDED.skills,
			hourly_rate = EXCLUDED.hourly_rate,
			is_verified = EXCLUDED.is_verified,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, s.dialect.rebind(query),
		agent.ID, agent.WalletAddress, agent.Name, agent.Bio, agent.AvatarURL,
		s.dialect.list(agent.Skills), agent.HourlyRate, agent.IsVerified,
		agent.CreatedAt, agent.UpdatedAt)
	if err != nil {
		return s.writeError("agent", agent.WalletAddress, err)
	}
	return nil
}

const agentColumns = `id, wallet_address, name, bio, avatar_url, skills, hourly_rate, is_verified, created_at, updated_at`

// GetAgent retrieves an agent by wallet address
func (s *sqlStore) GetAgent(ctx context.Context, wallet string) (*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE wallet_address = ?`
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(query), utils.NormalizeAddress(wallet))

	agent, err := s.scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Agent not found", wallet)
	}
	if err != nil {
		return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to get agent", err)
	}
	return agent, nil
}

// GetAgents lists agents, verified first then newest
func (s *sqlStore) GetAgents(ctx context.Context, filter models.AgentFilter) ([]*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE 1=1`
	var args []interface{}

	if filter.Skill != nil && *filter.Skill != "" {
		query += " AND " + s.dialect.hasSkill
		args = append(args, *filter.Skill)
	}
	if filter.Verified != nil {
		query += " AND is_verified = ?"
		args = append(args, *filter.Verified)
	}

	query += " ORDER BY is_verified DESC, created_at DESC LIMIT ? OFFSET ?"
	args = append(args, agentLimit(filter.Limit), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to query agents", err)
	}
	defer rows.Close()

	agents := []*models.Agent{}
	for rows.Next() {
		agent, err := s.scanAgent(rows)
		if err != nil {
			return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to scan agent", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to iterate agents", err)
	}
	return agents, nil
}

// GetAgentReputation reads the aggregate row for one agent
func (s *sqlStore) GetAgentReputation(ctx context.Context, wallet string) (*models.AgentReputation, error) {
	query := `
		SELECT id, wallet_address, name, jobs_completed, jobs_in_progress, total_earned,
			jobs_posted, total_paid, avg_rating, review_count
		FROM agent_reputation WHERE wallet_address = ?
	`

	var rep models.AgentReputation
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), utils.NormalizeAddress(wallet)).Scan(
		&rep.ID, &rep.WalletAddress, &rep.Name, &rep.JobsCompleted, &rep.JobsInProgress,
		&rep.TotalEarned, &rep.JobsPosted, &rep.TotalPaid, &rep.AvgRating, &rep.ReviewCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Agent not found", wallet)
	}
	if err != nil {
		return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to get agent reputation", err)
	}
	return &rep, nil
}

// SaveListing inserts or updates a listing keyed by id
func (s *sqlStore) SaveListing(ctx context.Context, listing *models.Listing) error {
	if listing.Status == "" {
		listing.Status = models.ListingDraft
	}
	if !listing.Status.Valid() {
		return utils.NewAppError(utils.ErrCodeValidation, "Invalid listing status", string(listing.Status))
	}
	if listing.PayoutCurrency == "" {
		listing.PayoutCurrency = "USDC"
	}

	now := time.Now().UTC()
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	query := `
		INSERT INTO listings
		(id, poster_id, title, description, skills_required, payout_amount, payout_currency,
		 deadline, status, worker_id, claimed_at, contract_bounty_id, contract_tx_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			skills_required = EXCLUDED.skills_required,
			payout_amount = EXCLUDED.payout_amount,
			payout_currency = EXCLUDED.payout_currency,
			deadline = EXCLUDED.deadline,
			status = EXCLUDED.status,
			worker_id = EXCLUDED.worker_id,
			claimed_at = EXCLUDED.claimed_at,
			contract_bounty_id = EXCLUDED.contract_bounty_id,
			contract_tx_hash = EXCLUDED.contract_tx_hash,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, s.dialect.rebind(query),
		listing.ID, listing.PosterID, listing.Title, listing.Description,
		s.dialect.list(listing.SkillsRequired), listing.PayoutAmount, listing.PayoutCurrency,
		listing.Deadline.UTC(), string(listing.Status), listing.WorkerID, listing.ClaimedAt,
		listing.ContractBountyID, listing.ContractTxHash, listing.CreatedAt, listing.UpdatedAt)
	if err != nil {
		return s.writeError("listing", listing.Title, err)
	}
	return nil
}

// GetListingByContractID finds the listing mirrored by an on-chain bounty
func (s *sqlStore) GetListingByContractID(ctx context.Context, bountyID int64) (*models.Listing, error) {
	query := `
		SELECT id, poster_id, title, description, skills_required, payout_amount, payout_currency,
			deadline, status, worker_id, claimed_at, contract_bounty_id, contract_tx_hash, created_at, updated_at
		FROM listings WHERE contract_bounty_id = ?
	`

	var l models.Listing
	var status string
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), bountyID).Scan(
		&l.ID, &l.PosterID, &l.Title, &l.Description, s.dialect.scanList(&l.SkillsRequired),
		&l.PayoutAmount, &l.PayoutCurrency, &l.Deadline, &status, &l.WorkerID, &l.ClaimedAt,
		&l.ContractBountyID, &l.ContractTxHash, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Listing not found", fmt.Sprintf("contract bounty %d", bountyID))
	}
	if err != nil {
		return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to get listing", err)
	}
	l.Status = models.ListingStatus(status)
	return &l, nil
}

// SaveSubmission records delivered work
func (s *sqlStore) SaveSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.Status == "" {
		submission.Status = models.SubmissionPending
	}
	if submission.ID == "" {
		submission.ID = uuid.New().String()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO submissions
		(id, bounty_id, worker_id, content, attachments, status, rejection_reason,
		 contract_work_hash, submitted_at, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			rejection_reason = EXCLUDED.rejection_reason,
			contract_work_hash = EXCLUDED.contract_work_hash,
			reviewed_at = EXCLUDED.reviewed_at
	`

	_, err := s.db.ExecContext(ctx, s.dialect.rebind(query),
		submission.ID, submission.BountyID, submission.WorkerID, submission.Content,
		s.dialect.list(submission.Attachments), string(submission.Status), submission.RejectionReason,
		submission.ContractWorkHash, submission.SubmittedAt, submission.ReviewedAt)
	if err != nil {
		return s.writeError("submission", submission.BountyID, err)
	}
	return nil
}

// SaveReview records a rating; one review per reviewer and bounty
func (s *sqlStore) SaveReview(ctx context.Context, review *models.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return utils.NewAppError(utils.ErrCodeValidation, "Rating must be between 1 and 5", fmt.Sprint(review.Rating))
	}
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reviews (id, bounty_id, reviewer_id, reviewee_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, s.dialect.rebind(query),
		review.ID, review.BountyID, review.ReviewerID, review.RevieweeID,
		review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		return s.writeError("review", review.BountyID, err)
	}
	return nil
}

// GetReviews lists reviews received by the agent behind wallet, newest first
func (s *sqlStore) GetReviews(ctx context.Context, wallet string) ([]*models.Review, error) {
	query := `
		SELECT r.id, r.bounty_id, r.reviewer_id, r.reviewee_id, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN agents a ON a.id = r.reviewee_id
		WHERE a.wallet_address = ?
		ORDER BY r.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), utils.NormalizeAddress(wallet))
	if err != nil {
		return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to query reviews", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.BountyID, &r.ReviewerID, &r.RevieweeID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to scan review", err)
		}
		reviews = append(reviews, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to iterate reviews", err)
	}
	return reviews, nil
}

// GetStorageStats returns row counts and database size
func (s *sqlStore) GetStorageStats() (*StorageStats, error) {
	if s.db == nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	stats := &StorageStats{}
	counts := []struct {
		table string
		dest  *int64
	}{
		{"agents", &stats.TotalAgents},
		{"listings", &stats.TotalListings},
		{"submissions", &stats.TotalSubmissions},
		{"reviews", &stats.TotalReviews},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dest); err != nil {
			return nil, utils.WrapAppError(utils.ErrCodeDatabase, "Failed to count "+c.table, err)
		}
	}

	if stats.TotalAgents > 0 {
		var latest time.Time
		if err := s.db.QueryRow("SELECT created_at FROM agents ORDER BY created_at DESC LIMIT 1").Scan(&latest); err == nil {
			stats.LatestAgent = &latest
		}
	}

	if err := s.db.QueryRow(s.dialect.sizeQuery).Scan(&stats.DatabaseSize); err != nil {
		s.logger.WithError(err).Warn("Failed to read database size")
	}

	var version sql.NullString
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err == nil {
		stats.SchemaVersion = version.String
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *sqlStore) scanAgent(row rowScanner) (*models.Agent, error) {
	var a models.Agent
	err := row.Scan(&a.ID, &a.WalletAddress, &a.Name, &a.Bio, &a.AvatarURL,
		s.dialect.scanList(&a.Skills), &a.HourlyRate, &a.IsVerified, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// writeError maps unique violations to conflicts and everything else to database errors
func (s *sqlStore) writeError(entity, key string, err error) error {
	if s.dialect.uniqueViolation(err) {
		return utils.WrapAppError(utils.ErrCodeConflict, "Duplicate "+entity, err)
	}
	s.logger.WithFields(logrus.Fields{
		"entity": entity,
		"key":    key,
		"error":  err,
	}).Error("Failed to save record")
	return utils.WrapAppError(utils.ErrCodeDatabase, "Failed to save "+entity, err)
}

func agentLimit(limit int) int {
	if limit <= 0 {
		return defaultAgentLimit
	}
	if limit > maxAgentLimit {
		return maxAgentLimit
	}
	return limit
}
