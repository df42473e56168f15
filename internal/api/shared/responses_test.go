package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestWithLogger returns a GET request whose context carries a trace ID and
// a debug-level text logger writing to buf.
func requestWithLogger(buf *strings.Builder) *http.Request {
	l := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.WithValue(context.Background(), TraceIDKey, "test-trace-id")
	ctx = logger.WithLogger(ctx, l)
	return httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
}

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		data         any
		expectedBody string
	}{
		{name: "object", status: http.StatusOK, data: map[string]any{"count": 3}, expectedBody: `{"count":3}`},
		{name: "empty object", status: http.StatusAccepted, data: map[string]any{}, expectedBody: `{}`},
		{name: "nil", status: http.StatusOK, data: nil, expectedBody: `null`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithJSON(w, httptest.NewRequest(http.MethodGet, "/", nil), tc.status, tc.data)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestRespondWithJSON_EncodingError(t *testing.T) {
	var buf strings.Builder
	w := httptest.NewRecorder()

	RespondWithJSON(w, requestWithLogger(&buf), http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	var buf strings.Builder
	w := httptest.NewRecorder()

	RespondWithError(w, requestWithLogger(&buf), http.StatusBadRequest, "Invalid request")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorResponse{Error: "Invalid request", TraceID: "test-trace-id"}, resp)
}

func TestRespondWithError_NoTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusUnauthorized, "Unauthorized")

	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		elevate       bool
		expectedLevel string
	}{
		{name: "server error", status: http.StatusInternalServerError, expectedLevel: "level=ERROR"},
		{name: "client error", status: http.StatusNotFound, expectedLevel: "level=DEBUG"},
		{name: "elevated client error", status: http.StatusUnauthorized, elevate: true, expectedLevel: "level=WARN"},
		{name: "rate limited", status: http.StatusTooManyRequests, expectedLevel: "level=WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf strings.Builder
			w := httptest.NewRecorder()
			var opts []ResponseOption
			if tc.elevate {
				opts = append(opts, WithElevatedLogLevel())
			}

			RespondWithErrorAndLog(w, requestWithLogger(&buf), tc.status, "Something failed",
				errors.New("dial postgres://taskhub:hunter2@db/taskhub"), opts...)

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, `{"error":"Something failed","trace_id":"test-trace-id"}`, w.Body.String())

			out := buf.String()
			assert.Contains(t, out, tc.expectedLevel)
			assert.Contains(t, out, "trace_id=test-trace-id")
			assert.Contains(t, out, "error_type=")
			assert.NotContains(t, out, "hunter2")
		})
	}
}
