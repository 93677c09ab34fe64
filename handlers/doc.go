// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Now Showing server.

# Handler Types

Each handler is a struct holding the services it calls:

  - SMSHandler: Twilio messaging webhook
  - QRHandler: QR check-in and account creation
  - WebHandler: vote and post actions for QR attendees
  - BoardHandler: display snapshot, queue listing, admin advance

Handlers are created via constructor functions:

	qrHandler := handlers.NewQRHandler(a.CheckIns, a.Metrics)

# SMS Webhook

	POST /sms → Inbound (form fields From, Body)

The reply is TwiML:

	<?xml version="1.0" encoding="UTF-8"?>
	<Response><Message>You're checked in! ...</Message></Response>

When a Twilio auth token is configured, X-Twilio-Signature must match the
request signed against the public URL, or the request is refused with 403.

# QR and Web Clients

	POST /qr/account {code}              → CreateAccount
	POST /qr/checkin {user_id, code}     → CheckIn
	POST /web/vote   {user_id}           → Vote
	POST /web/post   {user_id, message}  → Post

Responses are {status: "ok" | "error", ...}. Failures carry one of a fixed
set of reasons:

	missing code     400
	missing userId   400
	missing message  400
	invalid code     403
	not checked in   403
	no such user     404
	no current post  409
	chill out        429 (with retry_at)

# Board

	GET  /board          → Snapshot (codes, current post, votes, queue length)
	GET  /board/queue    → Queue
	POST /board/advance  → Advance (X-Admin-Key required, enforced by the router)

Reading the snapshot rotates the SMS code once its period has elapsed.
*/
package handlers
