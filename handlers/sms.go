// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/now-showing/auth"
	"github.com/danielhkuo/now-showing/cliparse"
	"github.com/danielhkuo/now-showing/middleware"
	"github.com/danielhkuo/now-showing/sms"
)

// twimlResponse is the reply document Twilio expects from a messaging webhook
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

type SMSHandler struct {
	dispatcher *sms.Dispatcher
	cfg        cliparse.Config
}

func NewSMSHandler(dispatcher *sms.Dispatcher, cfg cliparse.Config) *SMSHandler {
	return &SMSHandler{dispatcher: dispatcher, cfg: cfg}
}

// Inbound handles POST /sms
func (h *SMSHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	// Signatures are only checked when a token is configured
	if h.cfg.TwilioAuthToken != "" {
		fullURL := strings.TrimRight(h.cfg.PublicURL, "/") + r.URL.RequestURI()
		signature := r.Header.Get("X-Twilio-Signature")
		if err := auth.ValidateTwilioSignature(h.cfg.TwilioAuthToken, fullURL, r.PostForm, signature); err != nil {
			slog.Warn("sms signature rejected", "remote", middleware.GetClientIP(r))
			middleware.ErrorResponse(w, http.StatusForbidden, "invalid signature")
			return
		}
	}

	from := r.PostForm.Get("From")
	if from == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "From is required")
		return
	}

	reply, err := h.dispatcher.Handle(r.Context(), from, r.PostForm.Get("Body"))
	if err != nil {
		slog.Error("sms dispatch failed", "from", auth.Fingerprint(from, h.cfg.LogSalt), "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to handle message")
		return
	}

	slog.Info("sms handled", "from", auth.Fingerprint(from, h.cfg.LogSalt))
	middleware.XMLResponse(w, http.StatusOK, twimlResponse{Message: reply})
}
