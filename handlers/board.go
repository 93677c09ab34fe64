// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/now-showing/board"
	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/codes"
	"github.com/danielhkuo/now-showing/middleware"
	"github.com/danielhkuo/now-showing/models"
)

// BoardHandler serves the public display and its admin controls
type BoardHandler struct {
	codes  *codes.Store
	queue  *board.Queue
	ledger *board.Ledger
	clock  clock.Clock
}

func NewBoardHandler(codes *codes.Store, queue *board.Queue, ledger *board.Ledger, clk clock.Clock) *BoardHandler {
	return &BoardHandler{codes: codes, queue: queue, ledger: ledger, clock: clk}
}

// Snapshot handles GET /board
func (h *BoardHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	smsCode, err := h.codes.Current(ctx, models.ClassSMS)
	if err != nil {
		h.internal(w, "failed to load sms code", err)
		return
	}
	qrCode, err := h.codes.Current(ctx, models.ClassQR)
	if err != nil {
		h.internal(w, "failed to load qr code", err)
		return
	}

	resp := models.BoardResponse{SMSCode: smsCode.Value, QRCode: qrCode.Value}

	current, err := h.queue.Current(ctx)
	if err != nil {
		h.internal(w, "failed to load current post", err)
		return
	}
	if current != nil {
		showing, err := h.showing(r, current)
		if err != nil {
			h.internal(w, "failed to count votes", err)
			return
		}
		resp.Current = showing
	}

	if resp.QueueLength, err = h.queue.Len(ctx); err != nil {
		h.internal(w, "failed to count queue", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Queue handles GET /board/queue
func (h *BoardHandler) Queue(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queue.AllQueued(r.Context())
	if err != nil {
		h.internal(w, "failed to load queue", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.QueueResponse{Posts: posts})
}

// Advance handles POST /board/advance (admin)
func (h *BoardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	p, err := h.queue.Advance(r.Context())
	if err != nil {
		h.internal(w, "failed to advance board", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.AdvanceResponse{Advanced: p != nil, Post: p})
}

func (h *BoardHandler) showing(r *http.Request, p *models.Post) (*models.ShowingPost, error) {
	votes, err := h.ledger.VoteCount(r.Context(), p)
	if err != nil {
		return nil, err
	}
	s := &models.ShowingPost{Post: *p, Votes: votes}
	if p.Showtime != nil {
		s.Age = humanize.RelTime(*p.Showtime, h.clock.Now(), "ago", "from now")
	}
	return s, nil
}

func (h *BoardHandler) internal(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load board")
}
