// Package logger configures the process-wide slog JSON logger and carries
// request-scoped loggers (request id, user id, connection id) through a
// context.Context.
package logger
