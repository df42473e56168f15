// Package testdb opens a migrated PostgreSQL database for integration tests.
//
// Tests that call Open are skipped unless TASKHUB_TEST_DATABASE_URL is set.
// In CI the variable is required and a missing value fails the test instead,
// so a misconfigured pipeline cannot silently skip the integration suite.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/taskhub/internal/platform/postgres"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// Environment variables read by this package.
const (
	EnvDatabaseURL = "TASKHUB_TEST_DATABASE_URL"
	EnvCI          = "CI"
	EnvGitHub      = "GITHUB_ACTIONS"
)

// Timeout bounds connection checks and migrations.
const Timeout = 10 * time.Second

// DatabaseURL returns the integration database URL, or "" when unset.
func DatabaseURL() string {
	return os.Getenv(EnvDatabaseURL)
}

// IsCI reports whether the tests run in a CI environment.
func IsCI() bool {
	return os.Getenv(EnvCI) != "" || os.Getenv(EnvGitHub) != ""
}

// Open connects to the integration database, applies all migrations and
// registers cleanup on t.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		if IsCI() {
			t.Fatalf("%s must be set in CI", EnvDatabaseURL)
		}
		t.Skipf("%s not set, skipping integration test", EnvDatabaseURL)
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err, "failed to open database")
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "database ping failed")
	require.NoError(t, Migrate(ctx, db), "failed to migrate database")
	return db
}

// Migrate applies the embedded migrations to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(postgres.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, postgres.MigrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction that is always rolled back, keeping
// tests isolated from one another.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
