// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cliparse.LoadDotEnv(".env")
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p              Server port (default 3318)
	-d              Database URL, or SQLite file path (default now-showing.db)
	-t              Database type: sqlite (default), postgres or memory
	-public-url     Public base URL, needed to check Twilio signatures
	-admin-key      Key for POST /board/advance
	-log-salt       Salt for phone number fingerprints in logs
	-twilio-token   Twilio auth token; enables webhook signature checks
	-rotation       SMS code rotation period (default 10m)
	-grace          Previous SMS code grace window (default 10m)
	-checkin-ttl    How long a check-in lasts (default 1h)
	-throttle       Minimum time between posts per user (default 5m)
	-advance-every  Auto-advance interval; 0 disables (default 0)

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	PUBLIC_URL        → -public-url
	ADMIN_KEY         → -admin-key
	LOG_SALT          → -log-salt
	TWILIO_AUTH_TOKEN → -twilio-token
	ROTATION_PERIOD   → -rotation
	GRACE             → -grace
	CHECKIN_TTL       → -checkin-ttl
	POST_THROTTLE     → -throttle
	ADVANCE_EVERY     → -advance-every

Durations use time.ParseDuration syntax, e.g. "90s" or "1h30m".

CLI flags take precedence over environment variables, and variables already
in the environment take precedence over the .env file.

# Validation

ParseFlags returns an error if:

  - ADMIN_KEY or LOG_SALT is missing
  - the database type is unknown, or postgres is chosen without a URL
  - a Twilio token is set without PUBLIC_URL
  - PORT or a duration variable does not parse
  - the rotation period or check-in TTL is not positive
*/
package cliparse
