// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/now-showing/metrics"
	"github.com/danielhkuo/now-showing/middleware"
	"github.com/danielhkuo/now-showing/models"
)

// ok writes a successful status payload
func ok(w http.ResponseWriter, resp models.StatusResponse) {
	resp.Status = models.StatusOK
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// reject writes a {status: "error", reason} payload and counts the reason
func reject(w http.ResponseWriter, m *metrics.Metrics, statusCode int, reason string) {
	m.Rejection(reason)
	middleware.JSONResponse(w, statusCode, models.StatusResponse{
		Status: models.StatusError,
		Reason: reason,
	})
}
