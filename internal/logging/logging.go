// Package logging builds the application's zap logger. While the TUI owns
// the terminal, logs go to a file only.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/tempmail/internal/model"
)

// New returns a logger writing JSON lines to cfg.Path at cfg.Level.
// With debug set it switches to the console encoder at debug level.
func New(cfg model.LogConfig, debug bool) (*zap.Logger, error) {
	path := cfg.Path
	if path == "" {
		path = model.DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	var zc zap.Config
	if debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.Sampling = nil

		level := cfg.Level
		if level == "" {
			level = "info"
		}
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", level, err)
		}
		zc.Level = lvl
	}
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// Stderr returns a console logger for one-shot CLI commands.
func Stderr(debug bool) *zap.Logger {
	zc := zap.NewDevelopmentConfig()
	zc.DisableStacktrace = true
	zc.DisableCaller = true
	if !debug {
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
