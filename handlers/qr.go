// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/now-showing/checkin"
	"github.com/danielhkuo/now-showing/metrics"
	"github.com/danielhkuo/now-showing/middleware"
	"github.com/danielhkuo/now-showing/models"
)

type QRHandler struct {
	checkins *checkin.Service
	metrics  *metrics.Metrics
}

func NewQRHandler(checkins *checkin.Service, m *metrics.Metrics) *QRHandler {
	return &QRHandler{checkins: checkins, metrics: m}
}

// CheckIn handles POST /qr/checkin
func (h *QRHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req models.QRCheckInRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		reject(w, h.metrics, http.StatusBadRequest, models.ReasonMissingCode)
		return
	}
	if req.UserID == "" {
		reject(w, h.metrics, http.StatusBadRequest, models.ReasonMissingUserID)
		return
	}

	u, err := h.checkins.CheckInWithQRCode(r.Context(), req.UserID, code)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.metrics.CheckedIn("qr")
	slog.Info("qr check-in", "user_id", u.ID)
	ok(w, models.StatusResponse{UserID: u.ID})
}

// CreateAccount handles POST /qr/account
func (h *QRHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.QRAccountRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		reject(w, h.metrics, http.StatusBadRequest, models.ReasonMissingCode)
		return
	}

	u, err := h.checkins.CreateAccountWithQRCode(r.Context(), code)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.metrics.CheckedIn("qr")
	slog.Info("qr account created", "user_id", u.ID)
	middleware.JSONResponse(w, http.StatusCreated, models.StatusResponse{
		Status: models.StatusOK,
		UserID: u.ID,
	})
}

func (h *QRHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkin.ErrInvalidCode):
		reject(w, h.metrics, http.StatusForbidden, models.ReasonInvalidCode)
	case errors.Is(err, checkin.ErrNoSuchUser):
		reject(w, h.metrics, http.StatusNotFound, models.ReasonNoSuchUser)
	default:
		slog.Error("qr check-in failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to check in")
	}
}
