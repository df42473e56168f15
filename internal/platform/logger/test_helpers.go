package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// TestLogBuffer collects JSON log lines written concurrently by the code under test.
type TestLogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Reset drops everything written so far.
func (b *TestLogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// Entries decodes one JSON object per non-empty line.
func (b *TestLogBuffer) Entries() ([]map[string]any, error) {
	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewBufferString(b.String()))
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("log line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// Find returns the first entry whose message is msg.
func (b *TestLogBuffer) Find(msg string) (map[string]any, bool) {
	entries, err := b.Entries()
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		if e[slog.MessageKey] == msg {
			return e, true
		}
	}
	return nil, false
}

// NewTestLogger returns a debug-level JSON logger writing into a fresh buffer.
func NewTestLogger() (*slog.Logger, *TestLogBuffer) {
	buf := &TestLogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
