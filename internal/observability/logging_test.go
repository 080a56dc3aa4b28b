package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/idlesim/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "console"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := config.LoggingConfig{Level: "trace", Format: "json"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "xml"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	cfg := config.LoggingConfig{
		Level:  "info",
		Format: "console",
		File:   config.LogFileConfig{Enabled: true, Path: path, MaxSizeMB: 1},
	}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("simulation started")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "simulation started")
}

func TestRotatingFile_CopiesSettings(t *testing.T) {
	w := RotatingFile(config.LogFileConfig{Path: "x.log", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 7})
	assert.Equal(t, "x.log", w.Filename)
	assert.Equal(t, 10, w.MaxSize)
	assert.Equal(t, 3, w.MaxBackups)
	assert.Equal(t, 7, w.MaxAge)
}
