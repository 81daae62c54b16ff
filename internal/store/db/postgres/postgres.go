// Package postgres implements the store driver on PostgreSQL via lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
)

type DB struct {
	db *sql.DB
}

// NewDB opens a connection pool against the PostgreSQL server at dsn.
func NewDB(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) GetDB() *sql.DB { return d.db }

func (d *DB) Close() error { return d.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS session (
	id BIGSERIAL PRIMARY KEY,
	user_key TEXT NOT NULL UNIQUE,
	conversation_summary TEXT,
	summary_updated_at BIGINT,
	summary_generation_count INTEGER NOT NULL DEFAULT 0,
	needs_summarization BOOLEAN NOT NULL DEFAULT FALSE,
	property_type TEXT,
	booking_date TEXT,
	shift_type TEXT,
	property_id BIGINT,
	booking_id TEXT,
	min_price DOUBLE PRECISION,
	max_price DOUBLE PRECISION,
	max_occupancy BIGINT,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS message (
	id BIGSERIAL PRIMARY KEY,
	user_key TEXT NOT NULL,
	sender TEXT NOT NULL,
	content TEXT NOT NULL,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_user_key_created_ts
	ON message (user_key, created_ts);
`

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate postgres schema: %w", err)
	}
	return nil
}
