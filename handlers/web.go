// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/now-showing/board"
	"github.com/danielhkuo/now-showing/checkin"
	"github.com/danielhkuo/now-showing/metrics"
	"github.com/danielhkuo/now-showing/middleware"
	"github.com/danielhkuo/now-showing/models"
)

// WebHandler serves vote and post actions for QR attendees
type WebHandler struct {
	checkins *checkin.Service
	queue    *board.Queue
	ledger   *board.Ledger
	metrics  *metrics.Metrics
}

func NewWebHandler(checkins *checkin.Service, queue *board.Queue, ledger *board.Ledger, m *metrics.Metrics) *WebHandler {
	return &WebHandler{checkins: checkins, queue: queue, ledger: ledger, metrics: m}
}

// Vote handles POST /web/vote
func (h *WebHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req models.WebVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		reject(w, h.metrics, http.StatusBadRequest, models.ReasonMissingUserID)
		return
	}

	u, err := h.checkins.CheckedInUser(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}

	n, err := h.ledger.Vote(r.Context(), u, nil)
	if err != nil {
		h.fail(w, err)
		return
	}

	ok(w, models.StatusResponse{UserID: u.ID, Votes: n})
}

// Post handles POST /web/post
func (h *WebHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req models.WebPostRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		reject(w, h.metrics, http.StatusBadRequest, models.ReasonMissingUserID)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		reject(w, h.metrics, http.StatusBadRequest, models.ReasonMissingMessage)
		return
	}

	u, err := h.checkins.CheckedInUser(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}

	pos, err := h.queue.Enqueue(r.Context(), u, req.Message)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.metrics.Posted()
	ok(w, models.StatusResponse{UserID: u.ID, Position: pos})
}

func (h *WebHandler) fail(w http.ResponseWriter, err error) {
	var chill *board.ChillOutError
	switch {
	case errors.As(err, &chill):
		h.metrics.Rejection(models.ReasonChillOut)
		middleware.JSONResponse(w, http.StatusTooManyRequests, models.StatusResponse{
			Status:  models.StatusError,
			Reason:  models.ReasonChillOut,
			RetryAt: chill.RetryAt.UTC().Format(time.RFC3339),
		})
	case errors.Is(err, checkin.ErrNoSuchUser):
		reject(w, h.metrics, http.StatusNotFound, models.ReasonNoSuchUser)
	case errors.Is(err, checkin.ErrNotCheckedIn):
		reject(w, h.metrics, http.StatusForbidden, models.ReasonNotCheckedIn)
	case errors.Is(err, board.ErrNoCurrentPost):
		reject(w, h.metrics, http.StatusConflict, models.ReasonNoCurrentPost)
	case errors.Is(err, board.ErrEmptyMessage):
		reject(w, h.metrics, http.StatusBadRequest, models.ReasonMissingMessage)
	default:
		slog.Error("web action failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Request failed")
	}
}
