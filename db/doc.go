// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections and schema creation.

# Connecting

Open selects the driver, pings, and creates the schema:

	conn, err := db.Open(db.TypeSQLite, "now-showing.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite connections get foreign keys, a busy timeout and WAL, and are
limited to a single open connection.

# Tables

  - attendee: checked-in users (phone or QR identity)
  - verification_code: SMS and QR codes; (class, generation) and (class, value) unique
  - post: board messages; showtime NULL while queued, unique once set
  - vote: one row per (post, voter)

# Relationships

	attendee 1──* post
	post *──* attendee (via vote)

# Constraint Errors

IsUniqueViolation recognizes duplicate-key errors from lib/pq and
modernc.org/sqlite so the store can map them to store.ErrDuplicate.
*/
package db
