// Package sqlite implements the store driver on SQLite via modernc.org/sqlite
// (pure Go, no cgo). Suitable for development and single-host deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

type DB struct {
	db *sql.DB
}

// NewDB opens (and creates if necessary) the SQLite database at dsn.
func NewDB(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}

	// modernc sqlite allows a single writer; serialise all access through
	// one connection to avoid SQLITE_BUSY under concurrent turns.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite %s: %w", dsn, err)
	}

	return &DB{db: db}, nil
}

func (d *DB) GetDB() *sql.DB { return d.db }

func (d *DB) Close() error { return d.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS session (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_key TEXT NOT NULL UNIQUE,
	conversation_summary TEXT,
	summary_updated_at INTEGER,
	summary_generation_count INTEGER NOT NULL DEFAULT 0,
	needs_summarization INTEGER NOT NULL DEFAULT 0,
	property_type TEXT,
	booking_date TEXT,
	shift_type TEXT,
	property_id INTEGER,
	booking_id TEXT,
	min_price REAL,
	max_price REAL,
	max_occupancy INTEGER,
	created_ts INTEGER NOT NULL,
	updated_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS message (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_key TEXT NOT NULL,
	sender TEXT NOT NULL,
	content TEXT NOT NULL,
	created_ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_user_key_created_ts
	ON message (user_key, created_ts);
`

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return nil
}
