package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureLogger(t *testing.T) {
	logger, logs := NewCaptureLogger()

	logger.Debug("starting", "n", 1)
	logger.Warn("slow", "payload", "a.json")
	logger.Error("failed")

	records := logs.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "DEBUG", records[0].Level)
	assert.Equal(t, float64(1), records[0].Attrs["n"])
	assert.Equal(t, "a.json", records[1].Attrs["payload"])
	assert.NotContains(t, records[1].Attrs, slog.TimeKey)

	assert.Equal(t, []string{"slow", "failed"}, logs.Messages(slog.LevelWarn))
	assert.Len(t, logs.Messages(slog.LevelDebug), 3)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, filepath.Join("nested", "x.json"), "{}")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestNewTestLogger(t *testing.T) {
	logger := NewTestLogger(t)
	require.NotNil(t, logger)
	logger.Debug("visible with -v")
}
