package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odvcencio/beacon/pkg/archive"
	"github.com/odvcencio/beacon/pkg/observability"
	"github.com/odvcencio/beacon/pkg/telemetry"
)

func runServeCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:4517", "address to bind the archive service")
	dbPath := fs.String("db", "", "Archive DB path (defaults to BEACON_DB_PATH/BEACON_DATA_DIR)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openArchiveStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	tracer, err := observability.NewTracerProvider("beacon-archive", version)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	hub := telemetry.NewHub()
	defer hub.Close()

	logger := observability.NewLogger("archive", slog.LevelInfo)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server := archive.NewServer(archive.Config{
		BindAddress: *addr,
		Version:     version,
	}, store, hub, logger)

	logger.Info("archive service starting", slog.String("addr", *addr))
	return server.Start(ctx)
}
