// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Now Showing server.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	a := app.New(st, cfg, clock.Real{})
	mux := router.NewRouter(a)

# Endpoints

Operations:

	GET /health   - Liveness
	GET /metrics  - Prometheus metrics

Check-in (public):

	POST /sms         - Twilio messaging webhook (TwiML reply)
	POST /qr/account  - Create an attendee from a QR code
	POST /qr/checkin  - Check in an existing QR attendee

Web client (checked-in QR attendees):

	POST /web/vote  - Vote for the current post
	POST /web/post  - Queue a post

Display:

	GET  /board          - Codes, current post, votes, queue length
	GET  /board/queue    - Queued posts
	GET  /board/live     - Websocket event stream
	POST /board/advance  - Show the next post (requires X-Admin-Key)

# Middleware

Every domain route is wrapped with middleware.WithLogging. Wrap the mux with
middleware.CORS when serving:

	server := http.Server{Handler: middleware.CORS(mux)}
*/
package router
