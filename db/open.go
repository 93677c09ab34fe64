// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported database types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
	// TypeMemory selects the in-process store; Open rejects it
	TypeMemory = "memory"
)

var ErrUnknownType = errors.New("unknown database type")

// sqlitePragmas are appended to sqlite DSNs that don't set their own
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open connects to the database, verifies the connection and creates the schema
func Open(dbType, url string) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)

	switch dbType {
	case TypePostgres:
		conn, err = sqlx.Connect("postgres", url)
	case TypeSQLite:
		conn, err = sqlx.Connect("sqlite", sqliteDSN(url))
		if err == nil {
			// A single writer avoids SQLITE_BUSY on lock upgrades
			conn.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := CreateSchema(conn.DB); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func sqliteDSN(url string) string {
	if strings.Contains(url, "_pragma=") {
		return url
	}
	if !strings.HasPrefix(url, "file:") {
		url = "file:" + url
	}
	if strings.Contains(url, "?") {
		return url + "&" + sqlitePragmas
	}
	return url + "?" + sqlitePragmas
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from either supported driver
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
