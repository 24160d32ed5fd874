package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rpgcombat/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.log")
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, ToFile(path))
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("victory")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "victory")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLogger_ConsoleFileHasNoColor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.log")
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "console"}, ToFile(path))
	require.NoError(t, err)
	logger.Warn("fled")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "WARN")
	assert.NotContains(t, string(data), "\x1b[")
}

func TestNewLogger_ForSessionStampsEveryLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dungeon.log")
	session := uuid.New()
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, ToFile(path), ForSession(session))
	require.NoError(t, err)
	logger.Info("kill rewarded")
	logger.Info("session over")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), `"session":"`+session.String()+`"`))
}
