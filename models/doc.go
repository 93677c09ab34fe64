// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request, and response types.

# Domain Types

  - VerificationCode: a one-time code of class sms or qr, ordered by Generation
  - User: an attendee keyed by phone number (SMS) or assigned id (QR)
  - Post: a queued or shown board message with its distinct voters
  - Event: {kind, value} pushed to board displays

# Request Types

  - QRCheckInRequest: user_id, code
  - QRAccountRequest: code
  - WebVoteRequest: user_id
  - WebPostRequest: user_id, message

# Response Types

  - StatusResponse: status, reason, user_id, votes, position
  - BoardResponse: current codes, showing post and queue length
  - QueueResponse, AdvanceResponse, ErrorResponse

# Constants

Code classes:

	ClassSMS = "sms"
	ClassQR  = "qr"

Failure reasons (QR and web clients):

	"missing code", "invalid code", "no such user", "missing userId",
	"missing message", "not checked in", "chill out", "no current post"
*/
package models
