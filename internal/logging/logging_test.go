package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("cli")
	require.Equal(t, "info", cfg.Level)
	require.True(t, cfg.WriteToStderr)
	require.Greater(t, cfg.MaxSizeMB, 0)
	require.Equal(t, "cli", cfg.Component)
	require.False(t, cfg.ImmediateSync)
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig("cli")
	require.Equal(t, "debug", cfg.Level)
	require.True(t, cfg.ImmediateSync)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, LevelFromString(in), in)
	}
}

func TestSetupWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.log")

	logger, cleanup, err := Setup(Config{
		Level:         "info",
		FilePath:      path,
		MaxSizeMB:     1,
		MaxFiles:      2,
		WriteToStderr: false,
		Component:     "test",
	})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hello", slog.String("key", "value"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"hello"`)
	require.Contains(t, string(data), `"key":"value"`)
	require.Contains(t, string(data), `"component":"test"`)
}

func TestSetupMCPModeInstallsDefaultLogger(t *testing.T) {
	cleanup, err := SetupMCPMode("mcpserver")
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, slog.Default())
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	require.NotEmpty(t, path)
	require.Contains(t, path, "conceptrag")
	require.Equal(t, "server.log", filepath.Base(path))
}

func TestFindLogFileExplicitMissing(t *testing.T) {
	_, err := FindLogFile("/nonexistent/path/to/log.log")
	require.Error(t, err)
}

func TestFindLogFileExplicitPresent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	found, err := FindLogFile(path)
	require.NoError(t, err)
	require.Equal(t, path, found)
}
