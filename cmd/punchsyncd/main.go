// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

// Package main is the entry point for the Punchsync daemon.
//
// Punchsync polls biometric terminal server APIs (BioTime-style vendors)
// for attendance punch records, normalizes them into canonical checkin
// events, deduplicates against the store, and exposes an HTTP API for
// manual imports, server management, and queries.
//
// # Application Architecture
//
// Components initialize in order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env)
//  2. Logging: zerolog, JSON or console format
//  3. Database: DuckDB with the attendance schema
//  4. Dedup gate: BadgerDB seen-key cache over the checkin store
//  5. Sync manager: fleet coordinator and schedule driver
//  6. Job bus: in-process Watermill dispatch
//  7. Supervision: Suture tree running the bus, scheduler, and HTTP server
//
// # Configuration
//
// Highest priority wins: environment variables, then the config file
// (PUNCHSYNC_CONFIG or ./config.yaml), then built-in defaults.
//
// Common variables:
//
//	export DATABASE_PATH=data/punchsync.db
//	export SYNC_INTERVAL=1h
//	export API_TOKEN=$(openssl rand -hex 24)
//	export LOG_LEVEL=info
//	./punchsyncd
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, running sync cycles are cancelled without advancing
// their checkpoints, and the database and cache close cleanly.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/punchkit/punchsync/internal/api"
	"github.com/punchkit/punchsync/internal/config"
	"github.com/punchkit/punchsync/internal/database"
	"github.com/punchkit/punchsync/internal/dedup"
	"github.com/punchkit/punchsync/internal/jobs"
	"github.com/punchkit/punchsync/internal/logging"
	"github.com/punchkit/punchsync/internal/models"
	"github.com/punchkit/punchsync/internal/supervisor"
	syncer "github.com/punchkit/punchsync/internal/sync"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Punchsync failed to start")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().Str("version", version).Msg("Punchsync starting")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	gate, err := dedup.NewGate(dedup.Options{
		Path: cfg.Dedup.Path,
		TTL:  cfg.Dedup.TTL,
	}, db)
	if err != nil {
		return fmt.Errorf("failed to open dedup cache: %w", err)
	}
	defer gate.Close() //nolint:errcheck

	orchestrator := syncer.NewOrchestrator(db, db, db, db, gate)
	fleet := syncer.NewFleet(orchestrator, func(server *models.TerminalServer) syncer.RecordFetcher {
		return syncer.NewBreakerFetcher(server.ID, syncer.NewTerminalClient(server))
	}, cfg.Sync.Workers)

	manager := syncer.NewManager(db, fleet, nil, &cfg.Sync)

	bus, err := jobs.NewBus(manager)
	if err != nil {
		return fmt.Errorf("failed to create job bus: %w", err)
	}
	manager.SetDispatcher(bus)

	handler := api.NewHandler(db, manager, bus, fleet, version)
	router := api.NewRouter(handler, cfg)

	slogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree(slogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddSyncService(bus)
	tree.AddSyncService(manager)
	tree.AddAPIService(supervisor.NewHTTPService(router.Setup(), &cfg.Server))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("Punchsync stopped")
	return nil
}
