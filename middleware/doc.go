// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (status,
duration_ms). Hijacking is passed through, so the websocket endpoint can
be wrapped too.

# Admin Key

	mux.HandleFunc("POST /board/advance",
		middleware.WithLogging(middleware.RequireAdminKey(cfg.AdminKey, h.Advance)))

Requests without a matching X-Admin-Key header get 401.

# CORS Middleware

Enable cross-origin requests for the board and web client:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers Content-Type, X-Admin-Key.

# Response Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.XMLResponse(w, http.StatusOK, twiml)

Parse JSON request bodies (capped at 64 KiB):

	var req models.WebPostRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Checks X-Forwarded-For, then X-Real-IP, then RemoteAddr.
*/
package middleware
