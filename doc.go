// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Now Showing server.

Now Showing runs the "now showing" board at a live event. Attendees check
in with a rotating code, either texted in by SMS or scanned as a QR code,
and can then queue a short message for the board or vote for the one
currently on screen.

# Starting the Server

	ADMIN_KEY=... LOG_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -advance-every 2m

A .env file in the working directory is loaded first; variables already
set in the environment win.

# Configuration

Required settings:

  - ADMIN_KEY (-admin-key): key for POST /board/advance
  - LOG_SALT (-log-salt): salt for phone number fingerprints in logs

Optional settings:

  - PORT (-p): server port (default 3318)
  - DATABASE_TYPE (-t): sqlite (default), postgres or memory
  - DATABASE_URL (-d): connection string or SQLite file (default now-showing.db)
  - TWILIO_AUTH_TOKEN, PUBLIC_URL: verify webhook signatures
  - ROTATION_PERIOD (-rotation), GRACE (-grace): SMS code timing (default 10m each)
  - CHECKIN_TTL (-checkin-ttl), POST_THROTTLE (-throttle): check-in and post limits
  - ADVANCE_EVERY (-advance-every): auto-advance interval, 0 disables

# Architecture

  - clock: time source, faked in tests
  - codes: rotating SMS codes and single-use QR codes
  - checkin: attendee registry and check-in rules
  - board: post queue and vote ledger
  - sms: inbound text command dispatch
  - store: persistence contracts (sqlstore, memstore)
  - db: connection, schema and driver error mapping
  - events: board events, fanned out to metrics and websockets (events/live)
  - metrics: Prometheus collectors
  - handlers, router, middleware: HTTP surface
  - app: service wiring
  - auth: codes, admin key and webhook signature checks
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
