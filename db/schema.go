// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL sticks to the dialect both PostgreSQL and SQLite accept
// (CURRENT_TIMESTAMP defaults, TEXT payloads).
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Decision sessions
CREATE TABLE IF NOT EXISTS session (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    creator_name TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT 'irv',
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    share_slug TEXT UNIQUE,
    closes_at TIMESTAMP,
    closed_at TIMESTAMP,
    final_snapshot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_session_share_slug ON session(share_slug);
CREATE INDEX IF NOT EXISTS idx_session_status ON session(status);

-- Candidates (position carries display order only)
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES session(id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidate_session_id ON candidate(session_id);

-- Username Claims
CREATE TABLE IF NOT EXISTS username_claim (
    session_id TEXT NOT NULL REFERENCES session(id) ON DELETE CASCADE,
    username TEXT NOT NULL,
    voter_token TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, voter_token),
    UNIQUE (session_id, username)
);

CREATE INDEX IF NOT EXISTS idx_username_claim_session_id ON username_claim(session_id);

-- Ballots (one per voter per session; replaced on resubmit)
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES session(id) ON DELETE CASCADE,
    voter_token TEXT NOT NULL,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ip_hash TEXT,
    user_agent TEXT,
    UNIQUE (session_id, voter_token)
);

CREATE INDEX IF NOT EXISTS idx_ballot_session_id ON ballot(session_id);
CREATE INDEX IF NOT EXISTS idx_ballot_voter_token ON ballot(session_id, voter_token);

-- Ballot rankings (position 1 = best preferred)
CREATE TABLE IF NOT EXISTS ballot_ranking (
    ballot_id TEXT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
    position INTEGER NOT NULL CHECK (position >= 1),
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    PRIMARY KEY (ballot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_ballot_ranking_candidate_id ON ballot_ranking(candidate_id);

-- Result Snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES session(id) ON DELETE CASCADE,
    method TEXT NOT NULL,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_session_id ON result_snapshot(session_id);

-- Devices
CREATE TABLE IF NOT EXISTS device (
    id TEXT PRIMARY KEY,
    device_uuid TEXT NOT NULL UNIQUE,
    platform TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_device_uuid ON device(device_uuid);

-- Device/session links
CREATE TABLE IF NOT EXISTS device_session (
    device_id TEXT NOT NULL REFERENCES device(id) ON DELETE CASCADE,
    session_id TEXT NOT NULL REFERENCES session(id) ON DELETE CASCADE,
    voter_token TEXT,
    role TEXT NOT NULL DEFAULT 'voter',
    linked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (device_id, session_id)
);

CREATE INDEX IF NOT EXISTS idx_device_session_device ON device_session(device_id);
`
