package storage

import (
	"time"
)

// Migration represents a database migration
type Migration struct {
	Version     string    `db:"version"`
	Description string    `db:"description"`
	SQL         string    `db:"sql"`
	AppliedAt   time.Time `db:"applied_at"`
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)
`

// reputationView aggregates completed work, open work and reviews per agent.
// The same statement is valid on both dialects.
const reputationView = `
	SELECT
		a.id,
		a.wallet_address,
		a.name,
		(SELECT COUNT(*) FROM listings l WHERE l.worker_id = a.id AND l.status = 'completed') AS jobs_completed,
		(SELECT COUNT(*) FROM listings l WHERE l.worker_id = a.id AND l.status IN ('claimed', 'submitted')) AS jobs_in_progress,
		(SELECT COALESCE(SUM(l.payout_amount), 0) FROM listings l WHERE l.worker_id = a.id AND l.status = 'completed') AS total_earned,
		(SELECT COUNT(*) FROM listings l WHERE l.poster_id = a.id) AS jobs_posted,
		(SELECT COALESCE(SUM(l.payout_amount), 0) FROM listings l WHERE l.poster_id = a.id AND l.status = 'completed') AS total_paid,
		(SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.reviewee_id = a.id) AS avg_rating,
		(SELECT COUNT(*) FROM reviews r WHERE r.reviewee_id = a.id) AS review_count
	FROM agents a
`

// GetSQLiteMigrations returns SQLite migration scripts
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create agents table",
			SQL: `
				CREATE TABLE IF NOT EXISTS agents (
					id TEXT PRIMARY KEY,
					wallet_address TEXT NOT NULL UNIQUE,
					name TEXT,
					bio TEXT,
					avatar_url TEXT,
					skills TEXT NOT NULL DEFAULT '[]',
					hourly_rate REAL,
					is_verified BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_agents_verified ON agents(is_verified);
			`,
		},
		{
			Version:     "002",
			Description: "Create listings table",
			SQL: `
				CREATE TABLE IF NOT EXISTS listings (
					id TEXT PRIMARY KEY,
					poster_id TEXT NOT NULL REFERENCES agents(id),
					title TEXT NOT NULL,
					description TEXT NOT NULL,
					skills_required TEXT NOT NULL DEFAULT '[]',
					payout_amount REAL NOT NULL,
					payout_currency TEXT NOT NULL DEFAULT 'USDC',
					deadline DATETIME NOT NULL,
					status TEXT NOT NULL DEFAULT 'draft',
					worker_id TEXT REFERENCES agents(id),
					claimed_at DATETIME,
					contract_bounty_id INTEGER UNIQUE,
					contract_tx_hash TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);
				CREATE INDEX IF NOT EXISTS idx_listings_worker ON listings(worker_id);
				CREATE INDEX IF NOT EXISTS idx_listings_poster ON listings(poster_id);
			`,
		},
		{
			Version:     "003",
			Description: "Create submissions and reviews tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS submissions (
					id TEXT PRIMARY KEY,
					bounty_id TEXT NOT NULL REFERENCES listings(id),
					worker_id TEXT NOT NULL REFERENCES agents(id),
					content TEXT NOT NULL,
					attachments TEXT NOT NULL DEFAULT '[]',
					status TEXT NOT NULL DEFAULT 'pending',
					rejection_reason TEXT,
					contract_work_hash TEXT,
					submitted_at DATETIME NOT NULL,
					reviewed_at DATETIME
				);
				CREATE TABLE IF NOT EXISTS reviews (
					id TEXT PRIMARY KEY,
					bounty_id TEXT NOT NULL REFERENCES listings(id),
					reviewer_id TEXT NOT NULL REFERENCES agents(id),
					reviewee_id TEXT NOT NULL REFERENCES agents(id),
					rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
					comment TEXT,
					created_at DATETIME NOT NULL,
					UNIQUE (bounty_id, reviewer_id)
				);
				CREATE INDEX IF NOT EXISTS idx_reviews_reviewee ON reviews(reviewee_id);
			`,
		},
		{
			Version:     "004",
			Description: "Create agent_reputation view",
			SQL:         `CREATE VIEW IF NOT EXISTS agent_reputation AS ` + reputationView,
		},
	}
}

// GetPostgresMigrations returns PostgreSQL migration scripts
func GetPostgresMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create agents table",
			SQL: `
				CREATE TABLE IF NOT EXISTS agents (
					id UUID PRIMARY KEY,
					wallet_address TEXT NOT NULL UNIQUE,
					name TEXT,
					bio TEXT,
					avatar_url TEXT,
					skills TEXT[] NOT NULL DEFAULT '{}',
					hourly_rate NUMERIC(18, 6),
					is_verified BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_agents_verified ON agents(is_verified);
				CREATE INDEX IF NOT EXISTS idx_agents_skills ON agents USING GIN (skills);
			`,
		},
		{
			Version:     "002",
			Description: "Create listings table",
			SQL: `
				CREATE TABLE IF NOT EXISTS listings (
					id UUID PRIMARY KEY,
					poster_id UUID NOT NULL REFERENCES agents(id),
					title TEXT NOT NULL,
					description TEXT NOT NULL,
					skills_required TEXT[] NOT NULL DEFAULT '{}',
					payout_amount NUMERIC(18, 6) NOT NULL,
					payout_currency TEXT NOT NULL DEFAULT 'USDC',
					deadline TIMESTAMPTZ NOT NULL,
					status TEXT NOT NULL DEFAULT 'draft',
					worker_id UUID REFERENCES agents(id),
					claimed_at TIMESTAMPTZ,
					contract_bounty_id BIGINT UNIQUE,
					contract_tx_hash TEXT,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);
				CREATE INDEX IF NOT EXISTS idx_listings_worker ON listings(worker_id);
				CREATE INDEX IF NOT EXISTS idx_listings_poster ON listings(poster_id);
			`,
		},
		{
			Version:     "003",
			Description: "Create submissions and reviews tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS submissions (
					id UUID PRIMARY KEY,
					bounty_id UUID NOT NULL REFERENCES listings(id),
					worker_id UUID NOT NULL REFERENCES agents(id),
					content TEXT NOT NULL,
					attachments TEXT[] NOT NULL DEFAULT '{}',
					status TEXT NOT NULL DEFAULT 'pending',
					rejection_reason TEXT,
					contract_work_hash TEXT,
					submitted_at TIMESTAMPTZ NOT NULL,
					reviewed_at TIMESTAMPTZ
				);
				CREATE TABLE IF NOT EXISTS reviews (
					id UUID PRIMARY KEY,
					bounty_id UUID NOT NULL REFERENCES listings(id),
					reviewer_id UUID NOT NULL REFERENCES agents(id),
					reviewee_id UUID NOT NULL REFERENCES agents(id),
					rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
					comment TEXT,
					created_at TIMESTAMPTZ NOT NULL,
					UNIQUE (bounty_id, reviewer_id)
				);
				CREATE INDEX IF NOT EXISTS idx_reviews_reviewee ON reviews(reviewee_id);
			`,
		},
		{
			Version:     "004",
			Description: "Create agent_reputation view",
			SQL:         `CREATE OR REPLACE VIEW agent_reputation AS ` + reputationView,
		},
	}
}
