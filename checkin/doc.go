// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package checkin is the authentication core: it turns a validated one-time
code plus an identity hint into a checked-in attendee.

# Identities

SMS attendees are keyed by their (normalized) phone number and created on
their first valid code. QR attendees have no phone number; they are created
by CreateAccountWithQRCode and identified afterwards by the id it returns.

# Checked-in State

Nothing is stored beyond LastCheckIn, which only ever moves forward. A user
is checked in while now - LastCheckIn < TTL.

# Errors

	ErrInvalidCode   wrong, expired or already spent code
	ErrNoSuchUser    unknown user id (QR) or phone number
	ErrNotCheckedIn  check-in older than the TTL
*/
package checkin
