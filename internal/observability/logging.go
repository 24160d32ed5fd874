// Package observability provides structured logging setup.
package observability

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/rpgcombat/internal/config"
)

// LoggerOption adjusts the zap configuration before the logger is built.
type LoggerOption func(*zap.Config)

// ToFile sends every log line, zap's own errors included, to path instead of
// stderr, without color codes. The arena uses it so log output never lands
// on the terminal UI.
func ToFile(path string) LoggerOption {
	return func(c *zap.Config) {
		c.OutputPaths = []string{path}
		c.ErrorOutputPaths = []string{path}
		c.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
}

// ForSession stamps every line with the session ID the reward ledger writes
// under, so log lines and ledger rows can be joined.
func ForSession(id uuid.UUID) LoggerOption {
	return func(c *zap.Config) {
		if c.InitialFields == nil {
			c.InitialFields = make(map[string]interface{})
		}
		c.InitialFields["session"] = id.String()
	}
}

// NewLogger builds a zap logger from cfg. "json" uses zap's production
// preset and "console" its development preset; both write ISO8601 times.
//
// Precondition: cfg.Level is one of debug, info, warn, error; cfg.Format is json or console.
// Postcondition: Returns a configured logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, opts ...LoggerOption) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	for _, opt := range opts {
		opt(&zc)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
