// Package testutil provides shared test helpers.
package testutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// LogRecord is one captured log line.
type LogRecord struct {
	Level   string
	Message string
	Attrs   map[string]any
}

// LogCapture collects records written by a capture logger.
type LogCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *LogCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// Records decodes everything logged so far.
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var records []LogRecord
	dec := json.NewDecoder(bytes.NewReader(c.buf.Bytes()))
	for dec.More() {
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			break
		}
		rec := LogRecord{Attrs: raw}
		rec.Level, _ = raw[slog.LevelKey].(string)
		rec.Message, _ = raw[slog.MessageKey].(string)
		delete(raw, slog.LevelKey)
		delete(raw, slog.MessageKey)
		delete(raw, slog.TimeKey)
		records = append(records, rec)
	}
	return records
}

// Messages returns the messages logged at level or above.
func (c *LogCapture) Messages(level slog.Level) []string {
	var msgs []string
	for _, rec := range c.Records() {
		var l slog.Level
		if err := l.UnmarshalText([]byte(rec.Level)); err != nil || l < level {
			continue
		}
		msgs = append(msgs, rec.Message)
	}
	return msgs
}

// NewCaptureLogger returns a debug-level JSON logger and the capture it
// writes to.
func NewCaptureLogger() (*slog.Logger, *LogCapture) {
	c := &LogCapture{}
	return slog.New(slog.NewJSONHandler(c, &slog.HandlerOptions{Level: slog.LevelDebug})), c
}

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
