package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/taskhub/internal/platform/postgres"
	"github.com/pressly/goose/v3"
)

// gooseLogger forwards goose output to slog. Fatalf does not exit so the
// caller can report the failure through its normal error path.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// runMigrations applies the embedded schema migrations.
func runMigrations(ctx context.Context, db *sql.DB, command string, log *slog.Logger) error {
	log = log.With(slog.String("component", "migrations"), slog.String("command", command))

	goose.SetBaseFS(postgres.Migrations)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, postgres.MigrationsDir)
	case "down":
		err = goose.DownContext(ctx, db, postgres.MigrationsDir)
	case "status":
		err = goose.StatusContext(ctx, db, postgres.MigrationsDir)
	case "version":
		err = goose.VersionContext(ctx, db, postgres.MigrationsDir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration command finished")
	return nil
}
