// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package app assembles the services behind the HTTP surfaces from a store
// and a configuration.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/danielhkuo/now-showing/board"
	"github.com/danielhkuo/now-showing/checkin"
	"github.com/danielhkuo/now-showing/cliparse"
	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/codes"
	"github.com/danielhkuo/now-showing/db"
	"github.com/danielhkuo/now-showing/events"
	"github.com/danielhkuo/now-showing/events/live"
	"github.com/danielhkuo/now-showing/metrics"
	"github.com/danielhkuo/now-showing/sms"
	"github.com/danielhkuo/now-showing/store"
	"github.com/danielhkuo/now-showing/store/memstore"
	"github.com/danielhkuo/now-showing/store/sqlstore"
)

type App struct {
	Config  cliparse.Config
	Clock   clock.Clock
	Store   store.Store
	Bus     *events.Bus
	Hub     *live.Hub
	Metrics *metrics.Metrics

	Codes    *codes.Store
	CheckIns *checkin.Service
	Queue    *board.Queue
	Ledger   *board.Ledger
	SMS      *sms.Dispatcher
}

// New wires every service onto st. Events fan out to the live hub and
// the metrics collectors.
func New(st store.Store, cfg cliparse.Config, clk clock.Clock) *App {
	a := &App{
		Config:  cfg,
		Clock:   clk,
		Store:   st,
		Bus:     events.NewBus(),
		Hub:     live.NewHub(),
		Metrics: metrics.New(),
	}
	a.Bus.Subscribe(a.Hub)
	a.Bus.Subscribe(a.Metrics)

	policy := codes.DefaultPolicy()
	policy.RotationPeriod = cfg.RotationPeriod
	policy.Grace = cfg.Grace

	a.Codes = codes.New(st, clk, policy, a.Bus)
	a.CheckIns = checkin.NewService(checkin.NewRegistry(st, clk), a.Codes, clk, cfg.CheckInTTL)
	a.Queue = board.NewQueue(st, clk, cfg.PostThrottle, a.Bus)
	a.Ledger = board.NewLedger(st, a.Queue, clk, a.Bus)
	a.SMS = sms.NewDispatcher(a.CheckIns, a.Queue, a.Ledger, clk, a.Metrics)
	return a
}

// OpenStore returns the store selected by cfg.DatabaseType and a closer
// for its connection
func OpenStore(cfg cliparse.Config) (store.Store, io.Closer, error) {
	if cfg.DatabaseType == db.TypeMemory {
		slog.Warn("using in-memory store; nothing survives a restart")
		return memstore.New(), io.NopCloser(nil), nil
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.DatabaseType, err)
	}
	return sqlstore.New(conn), conn, nil
}
