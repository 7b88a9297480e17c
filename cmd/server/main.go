// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

// Package main is the entry point for the CapitolSync server.
//
// CapitolSync keeps an embedded DuckDB warehouse of public legislative and
// campaign-finance records current against four upstream feeds: the Congress
// API (members, bills), the FEC API (candidates, totals, itemized receipts),
// and the House and Senate roll-call vote feeds.
//
// The server initializes in order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML file, env vars)
//  2. Logging: zerolog, configured from LOG_LEVEL / LOG_FORMAT
//  3. Database: DuckDB opened (or created) at DATABASE_PATH, schema applied
//  4. Sync manager: provider clients, entity matcher, job schedules
//  5. Supervisor tree: sync manager and HTTP server under suture
//
// Sync jobs run on their configured intervals and can be triggered through
// POST /api/v1/sync/{job}. SIGINT/SIGTERM cancels the tree; in-flight runs
// checkpoint their cursors and release their leases before exit.
//
// Example:
//
//	export CONGRESS_API_KEY=...
//	export FEC_API_KEY=...
//	export DATABASE_PATH=/data/capitolsync.duckdb
//	./capitolsync
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/capitolmetrics/capitolsync/internal/api"
	"github.com/capitolmetrics/capitolsync/internal/config"
	"github.com/capitolmetrics/capitolsync/internal/database"
	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/supervisor"
	"github.com/capitolmetrics/capitolsync/internal/sync"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("sync_on_startup", cfg.Jobs.SyncOnStartup).
		Msg("Starting CapitolSync")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	manager := sync.NewManager(cfg, db)
	handler := api.NewHandler(db, manager)
	server := api.NewServer(&cfg.Server, api.NewRouter(&cfg.Server, handler))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddJobService(manager)
	tree.AddAPIService(server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree terminated unexpectedly")
		os.Exit(1)
	}

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	logging.Info().Msg("CapitolSync stopped")
}
