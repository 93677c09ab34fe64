// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// CodeClass selects the rotation policy of a verification code.
type CodeClass string

const (
	ClassSMS CodeClass = "sms"
	ClassQR  CodeClass = "qr"
)

// Event kinds pushed to board displays
const (
	EventSMSCode = "sms_code"
	EventQRCode  = "qr_code"
	EventShowing = "showing"
	EventVote    = "vote"
)

// JSON status vocabulary for QR and web clients
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Failure reasons returned to QR and web clients
const (
	ReasonMissingCode    = "missing code"
	ReasonInvalidCode    = "invalid code"
	ReasonNoSuchUser     = "no such user"
	ReasonMissingUserID  = "missing userId"
	ReasonMissingMessage = "missing message"
	ReasonNotCheckedIn   = "not checked in"
	ReasonChillOut       = "chill out"
	ReasonNoCurrentPost  = "no current post"
)

// Domain types

type VerificationCode struct {
	ID         string    `json:"id" db:"id"`
	Class      CodeClass `json:"class" db:"class"`
	Value      string    `json:"value" db:"value"`
	Generation int64     `json:"generation" db:"generation"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	Consumed   bool      `json:"consumed" db:"consumed"`
}

type User struct {
	ID          string    `json:"id" db:"id"`
	PhoneNumber *string   `json:"-" db:"phone_number"` // Never expose in JSON
	QRIssued    bool      `json:"qr_issued" db:"qr_issued"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	LastCheckIn time.Time `json:"last_check_in" db:"last_check_in"`
}

type Post struct {
	ID          string     `json:"id" db:"id"`
	Message     string     `json:"message" db:"message"`
	PosterID    string     `json:"-" db:"poster_id"`
	SubmittedAt time.Time  `json:"submitted_at" db:"submitted_at"`
	Showtime    *time.Time `json:"showtime,omitempty" db:"showtime"`
	Voters      []string   `json:"-" db:"-"`
}

// Shown reports whether the post has left the queue.
func (p *Post) Shown() bool {
	return p.Showtime != nil
}

// Event is emitted on code rotation, showing advancement and votes.
type Event struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Request types

type QRCheckInRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type QRAccountRequest struct {
	Code string `json:"code"`
}

type WebVoteRequest struct {
	UserID string `json:"user_id"`
}

type WebPostRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Response types

// StatusResponse is the {status, ...} payload returned to QR and web clients.
type StatusResponse struct {
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Votes    int    `json:"votes,omitempty"`
	Position int    `json:"position,omitempty"`
	RetryAt  string `json:"retry_at,omitempty"`
}

type ShowingPost struct {
	Post
	Votes int    `json:"votes"`
	Age   string `json:"age"`
}

type BoardResponse struct {
	SMSCode     string       `json:"sms_code"`
	QRCode      string       `json:"qr_code"`
	Current     *ShowingPost `json:"current,omitempty"`
	QueueLength int          `json:"queue_length"`
}

type QueueResponse struct {
	Posts []Post `json:"posts"`
}

type AdvanceResponse struct {
	Advanced bool  `json:"advanced"`
	Post     *Post `json:"post,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
