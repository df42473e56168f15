package logger_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/taskhub/internal/config"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		name       string
		level      string
		logDebug   bool
		logWarning bool
	}{
		{name: "debug level", level: "debug", logDebug: true, logWarning: true},
		{name: "info level", level: "info", logDebug: false, logWarning: true},
		{name: "error level", level: "error", logDebug: false, logWarning: false},
		{name: "invalid level falls back to info", level: "chatty", logDebug: false, logWarning: true},
		{name: "level is case insensitive", level: "DEBUG", logDebug: true, logWarning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &logger.TestLogBuffer{}
			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tt.level}, buf)
			require.NoError(t, err)
			require.NotNil(t, l)

			l.Debug("debug message")
			l.Warn("warn message")

			assert.Equal(t, tt.logDebug, contains(buf, "debug message"))
			assert.Equal(t, tt.logWarning, contains(buf, "warn message"))
			assert.Same(t, l, slog.Default(), "Setup should install the logger as default")
		})
	}
}

func TestSetupWritesJSON(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info"}, buf)
	require.NoError(t, err)

	l.Info("connection registered", "user_id", "u-1", "connections", 2)

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "connection registered", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "u-1", entries[0]["user_id"])
	assert.EqualValues(t, 2, entries[0]["connections"])
}

func TestFromContext(t *testing.T) {
	fallback, fallbackBuf := logger.NewTestLogger()
	scoped, scopedBuf := logger.NewTestLogger()

	t.Run("falls back when context has no logger", func(t *testing.T) {
		logger.FromContextOrDefault(context.Background(), fallback).Info("from fallback")
		assert.True(t, contains(fallbackBuf, "from fallback"))
	})

	t.Run("uses the logger stored in context", func(t *testing.T) {
		ctx := logger.WithLogger(context.Background(), scoped)
		logger.FromContextOrDefault(ctx, fallback).Info("from scoped")
		assert.True(t, contains(scopedBuf, "from scoped"))
		assert.False(t, contains(fallbackBuf, "from scoped"))
	})

	t.Run("attaches request id", func(t *testing.T) {
		scopedBuf.Reset()
		ctx := logger.WithRequestID(logger.WithLogger(context.Background(), scoped), "req-42")
		assert.Equal(t, "req-42", logger.RequestID(ctx))

		logger.FromContextOrDefault(ctx, fallback).Info("with request")

		entries, err := scopedBuf.Entries()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "req-42", entries[0]["request_id"])
	})

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // exercising the nil guard
		assert.Same(t, fallback, logger.FromContextOrDefault(nil, fallback))
	})
}

func TestParseLevel(t *testing.T) {
	level, ok := logger.ParseLevel(" warn ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	level, ok = logger.ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func contains(buf *logger.TestLogBuffer, msg string) bool {
	_, ok := buf.Find(msg)
	return ok
}

func TestFromContext_RequestIDOnFallback(t *testing.T) {
	fallback, buf := logger.NewTestLogger()
	ctx := logger.WithRequestID(context.Background(), "req-7")

	l := logger.FromContextOrDefault(ctx, fallback)
	// Storing the derived logger must not tag it twice.
	logger.FromContextOrDefault(logger.WithLogger(ctx, l), fallback).Info("once")

	assert.Equal(t, 1, strings.Count(buf.String(), `"request_id"`))
}
