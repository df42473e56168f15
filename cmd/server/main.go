// Package main runs the taskhub notification server: the websocket gateway,
// the notification REST API and the domain event consumer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskhub/internal/config"
	"github.com/phrazzld/taskhub/internal/platform/logger"
)

func main() {
	migrate := flag.String("migrate", "", "run a migration command (up, down, status, version) and exit")
	flag.Parse()

	if err := run(*migrate); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"events_enabled", cfg.Events.RedisAddr != "",
		"tracing_enabled", cfg.Tracing.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", "error", err)
		}
	}()

	if migrateCmd != "" {
		return runMigrations(ctx, db, migrateCmd, log)
	}

	shutdownTracing, err := setupTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("failed to flush traces", "error", err)
		}
	}()

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
