package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/adminforge/adminforge/internal/activity"
	"github.com/adminforge/adminforge/internal/config"
	"github.com/adminforge/adminforge/internal/editorwire"
	"github.com/adminforge/adminforge/internal/event"
	"github.com/adminforge/adminforge/internal/eventbus"
	"github.com/adminforge/adminforge/internal/logging"
	"github.com/adminforge/adminforge/internal/metaspec"
	"github.com/adminforge/adminforge/internal/resource"
	"github.com/adminforge/adminforge/internal/schema"
	"github.com/adminforge/adminforge/internal/server"
	"github.com/adminforge/adminforge/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	logging.Setup(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("sqlite", cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("opening database")
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	// Enable foreign keys explicitly — required for SQLite.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		log.Fatal().Err(err).Msg("enabling foreign keys")
	}

	specs := metaspec.NewSQLiteStore(db)
	if err := specs.CreateTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrating metadata_specs table")
	}

	drafts := resource.NewSQLiteDraftStore(db, cfg.Drafts.TTL)
	if err := drafts.CreateTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrating drafts table")
	}

	audit := activity.NewSQLiteStore(db)
	if err := audit.CreateTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrating audit_entries table")
	}
	log.Info().Str("path", cfg.Storage.Path).Msg("database migrated")

	bus := eventbus.New(256)
	bus.Subscribe("log", eventbus.NewLogConsumer())
	bus.Start(ctx)
	defer bus.Stop()

	recorder := event.NewActivityRecorder(audit)
	recorder.SetPublisher(bus)

	sessions := editorwire.NewManager(cfg.Editor.SessionMaxAge, cfg.Editor.SessionIdleTimeout)
	go worker.NewSessionCleanupWorker(sessions, 0).Run(ctx)
	go worker.NewDraftSweepWorker(db, cfg.Drafts.TTL, 0).Run(ctx)

	if cfg.Lists.PageSize > 0 {
		resource.DefaultPageSize = cfg.Lists.PageSize
	}
	if cfg.Lists.SearchDelay > 0 {
		resource.DefaultSearchDelay = cfg.Lists.SearchDelay
	}

	if err := server.Run(ctx, server.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		PageSize:           cfg.Lists.PageSize,
		Specs:              specs,
		Registry:           schema.DefaultRegistry(),
		Recorder:           recorder,
		Activity:           audit,
		Sessions:           sessions,
		SessionMaxAge:      cfg.Editor.SessionMaxAge,
		SessionIdleTimeout: cfg.Editor.SessionIdleTimeout,
	}); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
