// Package postgres implements the user and notification stores on PostgreSQL
// through database/sql with the pgx driver, maps driver errors onto the
// internal/store sentinels and embeds the goose schema migrations.
package postgres
