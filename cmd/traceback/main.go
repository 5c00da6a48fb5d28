package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/traceworks/traceback/internal/api"
	"github.com/traceworks/traceback/internal/config"
	"github.com/traceworks/traceback/internal/hermes"
	"github.com/traceworks/traceback/internal/processor"
	"github.com/traceworks/traceback/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("traceback starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", "tz", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// NATS
	bus, err := hermes.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Processor — the main pipeline
	svc := processor.New(db, bus, loc, cfg.SyncWindowDays, slog.Default())

	// Recompute timelines whenever a sync batch lands
	if err := bus.Subscribe(hermes.SubjectRecordsStored, svc.HandleRecordsStored); err != nil {
		slog.Error("failed to subscribe to record events", "error", err)
		os.Exit(1)
	}

	// Mirror sync lifecycle events into the sync status row
	for _, subject := range []string{hermes.SubjectSyncStarted, hermes.SubjectSyncCompleted, hermes.SubjectSyncFailed} {
		if err := bus.Subscribe(subject, svc.HandleSyncLifecycle); err != nil {
			slog.Error("failed to subscribe to sync events", "subject", subject, "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, svc, db)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("traceback ready", "port", cfg.Port, "tz", loc.String())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("traceback stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
