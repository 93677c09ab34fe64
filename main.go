// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/now-showing/app"
	"github.com/danielhkuo/now-showing/cliparse"
	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/middleware"
	"github.com/danielhkuo/now-showing/router"
)

func main() {
	var err error

	// Parse configuration
	cliparse.LoadDotEnv(".env")
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Open the store and create the schema
	st, closer, err := app.OpenStore(cfg)
	if err != nil {
		slog.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.Info("Store ready", "type", cfg.DatabaseType)

	a := app.New(st, cfg, clock.Real{})
	mux := router.NewRouter(a)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AdvanceEvery > 0 {
		slog.Info("Auto-advance enabled", "every", cfg.AdvanceEvery)
		go a.Queue.Run(ctx, cfg.AdvanceEvery)
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
