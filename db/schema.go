// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by postgres and sqlite.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Accounts (admins, moderators, voters)
CREATE TABLE IF NOT EXISTS account (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('admin', 'moderator', 'voter')),
    age INTEGER NOT NULL DEFAULT 0,
    moderator_id TEXT,
    is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL
);

-- Voter whitelist
CREATE TABLE IF NOT EXISTS voter_email (
    email TEXT PRIMARY KEY,
    moderator_id TEXT NOT NULL REFERENCES account(id),
    is_used BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_voter_email_moderator_id ON voter_email(moderator_id);

-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
    file_id TEXT,
    created_at TIMESTAMP NOT NULL,
    CHECK (start_date <= end_date)
);

CREATE INDEX IF NOT EXISTS idx_poll_created_by ON poll(created_by);

-- Options (replaced options are soft deleted and keep their tallies)
CREATE TABLE IF NOT EXISTS poll_option (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id),
    text TEXT NOT NULL,
    text_key TEXT NOT NULL,
    tally INTEGER NOT NULL DEFAULT 0,
    is_deleted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_poll_option_poll_id ON poll_option(poll_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_poll_option_live_text ON poll_option(poll_id, text_key) WHERE NOT is_deleted;

-- Eligibility markers (one vote per voter per poll)
CREATE TABLE IF NOT EXISTS eligibility_marker (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL REFERENCES account(id),
    poll_id TEXT NOT NULL REFERENCES poll(id),
    voted_at TIMESTAMP NOT NULL,
    UNIQUE (voter_id, poll_id)
);

CREATE INDEX IF NOT EXISTS idx_eligibility_marker_poll_id ON eligibility_marker(poll_id);

-- Votes (anonymous)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    option_id TEXT NOT NULL REFERENCES poll_option(id),
    poll_id TEXT NOT NULL REFERENCES poll(id),
    cast_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vote_option_id ON vote(option_id);

-- Audit trail
CREATE TABLE IF NOT EXISTS audit_entry (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    created_by TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_by TEXT,
    updated_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_entry_subject_id ON audit_entry(subject_id);

-- Broadcast messages
CREATE TABLE IF NOT EXISTS message (
    id TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    sender TEXT NOT NULL,
    poll_id TEXT,
    sent_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_poll_id ON message(poll_id);
`
