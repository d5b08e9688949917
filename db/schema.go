// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are unix milliseconds so the same schema and queries work on
// both sqlite and postgres. Total votes are never stored.
const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    share_token TEXT NOT NULL UNIQUE,
    question TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    version BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_created_at ON poll(created_at);

-- Options, in display order
CREATE TABLE IF NOT EXISTS poll_option (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    label TEXT NOT NULL,
    votes BIGINT NOT NULL DEFAULT 0 CHECK (votes >= 0),
    PRIMARY KEY (poll_id, position)
);

-- Vote ledger: one row per identity signal per accepted vote
CREATE TABLE IF NOT EXISTS vote_record (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    identity_kind TEXT NOT NULL CHECK (identity_kind IN ('origin', 'fingerprint')),
    identity_value TEXT NOT NULL,
    option_index INTEGER NOT NULL,
    voted_at BIGINT NOT NULL,
    PRIMARY KEY (poll_id, identity_kind, identity_value)
);

CREATE INDEX IF NOT EXISTS idx_vote_record_value ON vote_record(poll_id, identity_value);
`
