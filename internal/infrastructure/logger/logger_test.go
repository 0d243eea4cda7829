package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     path,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	require.NoError(t, err)

	log.Info("batch completed", zap.String("batch_code", "PB-1"))
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "batch completed")
	assert.Contains(t, string(data), "PB-1")
}

func TestNew_LevelFiltersOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(&Config{Level: "error", Format: "json", Output: path, TimeFormat: "15:04:05"})
	require.NoError(t, err)

	log.Info("suppressed")
	log.Error("kept")
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suppressed")
	assert.Contains(t, string(data), "kept")
}

func TestNew_UnopenableSinkFallsBack(t *testing.T) {
	// a directory path cannot be opened as a log file
	log, err := New(&Config{Level: "info", Format: "json", Output: t.TempDir(), TimeFormat: "15:04:05"})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFor("debug"))
	assert.Equal(t, zapcore.InfoLevel, levelFor("info"))
	assert.Equal(t, zapcore.WarnLevel, levelFor("warn"))
	assert.Equal(t, zapcore.WarnLevel, levelFor("warning"))
	assert.Equal(t, zapcore.ErrorLevel, levelFor("error"))
	assert.Equal(t, zapcore.FatalLevel, levelFor("fatal"))
	assert.Equal(t, zapcore.InfoLevel, levelFor("unknown"))
}
