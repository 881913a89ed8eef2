package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userbase/userbase/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", slog.LevelInfo).Info("hello", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])

	buf.Reset()
	newLogger(&buf, "text", slog.LevelWarn).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestInitLogger_WritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "api.log")
	cfg := &config.Config{AppEnv: config.EnvTest, LogLevel: "info", LogFormat: "json", LogFile: path}

	logger, closer, err := initLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Info("to_file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "to_file", entry["msg"])
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, config.EnvTest, entry["env"])
}

func TestInitLogger_NoFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, closer, err := initLogger(&config.Config{AppEnv: config.EnvTest})
	require.NoError(t, err)
	assert.Nil(t, closer)
}
