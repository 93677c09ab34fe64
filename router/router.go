// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/now-showing/app"
	"github.com/danielhkuo/now-showing/handlers"
	"github.com/danielhkuo/now-showing/middleware"
)

func NewRouter(a *app.App) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	smsHandler := handlers.NewSMSHandler(a.SMS, a.Config)
	qrHandler := handlers.NewQRHandler(a.CheckIns, a.Metrics)
	webHandler := handlers.NewWebHandler(a.CheckIns, a.Queue, a.Ledger, a.Metrics)
	boardHandler := handlers.NewBoardHandler(a.Codes, a.Queue, a.Ledger, a.Clock)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", a.Metrics.Handler())

	// Check-in (public)
	mux.HandleFunc("POST /sms", middleware.WithLogging(smsHandler.Inbound))
	mux.HandleFunc("POST /qr/checkin", middleware.WithLogging(qrHandler.CheckIn))
	mux.HandleFunc("POST /qr/account", middleware.WithLogging(qrHandler.CreateAccount))

	// Web client actions (checked-in QR attendees)
	mux.HandleFunc("POST /web/vote", middleware.WithLogging(webHandler.Vote))
	mux.HandleFunc("POST /web/post", middleware.WithLogging(webHandler.Post))

	// Display
	mux.HandleFunc("GET /board", middleware.WithLogging(boardHandler.Snapshot))
	mux.HandleFunc("GET /board/queue", middleware.WithLogging(boardHandler.Queue))
	mux.HandleFunc("GET /board/live", middleware.WithLogging(a.Hub.ServeHTTP))
	mux.HandleFunc("POST /board/advance", middleware.WithLogging(middleware.RequireAdminKey(a.Config.AdminKey, boardHandler.Advance)))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("now-showing v1"))
	})

	return mux
}
