// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are portable between PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Attendees ("user" is reserved in PostgreSQL)
CREATE TABLE IF NOT EXISTS attendee (
    id TEXT PRIMARY KEY,
    phone_number TEXT UNIQUE,
    qr_issued BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    last_check_in TIMESTAMP NOT NULL
);

-- Verification codes, one generation chain per class
CREATE TABLE IF NOT EXISTS verification_code (
    id TEXT PRIMARY KEY,
    class TEXT NOT NULL CHECK (class IN ('sms', 'qr')),
    value TEXT NOT NULL,
    generation INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    consumed BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (class, value),
    UNIQUE (class, generation)
);

-- Posts; showtime is NULL while queued
CREATE TABLE IF NOT EXISTS post (
    id TEXT PRIMARY KEY,
    message TEXT NOT NULL,
    poster_id TEXT NOT NULL REFERENCES attendee(id),
    submitted_at TIMESTAMP NOT NULL,
    showtime TIMESTAMP UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_post_poster ON post(poster_id, submitted_at);
CREATE INDEX IF NOT EXISTS idx_post_queue ON post(showtime, submitted_at);

-- Votes: one row per (post, voter)
CREATE TABLE IF NOT EXISTS vote (
    post_id TEXT NOT NULL REFERENCES post(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES attendee(id),
    voted_at TIMESTAMP NOT NULL,
    PRIMARY KEY (post_id, user_id)
);
`
