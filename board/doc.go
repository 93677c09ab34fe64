// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package board holds the post queue and the vote ledger behind the public
"now showing" display.

# Queue

Posts wait in submission order until Advance promotes the oldest one by
stamping its showtime. The current post is the one with the latest
showtime; it is derived on every read, never stored as a pointer.

	pos, err := queue.Enqueue(ctx, user, "hello room")
	post, err := queue.Advance(ctx)   // nil, nil on an empty queue
	post, err := queue.Current(ctx)   // nil, nil before the first showing

A user may post once per throttle interval; earlier attempts fail with a
*ChillOutError carrying the time they may try again.

# Ledger

Votes are a set of user ids per post. Every post starts with its poster's
own vote.

	count, err := ledger.Vote(ctx, user, nil) // nil means the current post
*/
package board
