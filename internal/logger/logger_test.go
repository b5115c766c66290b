package logger_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"poker-coach/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONWithTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := logger.New(logger.Config{Level: "debug", OutputPath: path})
	require.NoError(t, err)
	l.Debug("hello")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := logger.New(logger.Config{Level: "loud", Encoding: "xml", OutputPath: path})
	require.NoError(t, err)
	l.Debug("dropped")
	l.Info("kept")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "dropped")
	assert.Contains(t, string(raw), "kept")
}

func TestNew_AddsServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := logger.New(logger.Config{OutputPath: path, Service: "poker-coach", Env: "staging"})
	require.NoError(t, err)
	l.Named("Coach").Info("started")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "poker-coach", entry["service"])
	assert.Equal(t, "staging", entry["env"])
	assert.Equal(t, "Coach", entry["logger"])
}
