package postgres

import "embed"

// Migrations holds the goose SQL migrations for the schema, embedded so the
// server binary can migrate without access to the source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the SQL files.
const MigrationsDir = "migrations"
