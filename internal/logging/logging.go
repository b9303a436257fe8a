// Package logging builds the zap logger used by the CLI. Logs go to stderr,
// or to a size-rotated file when one is configured, so stdout carries only
// scan output.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/gicscan/pkg/types"
)

// DefaultConfig returns the logger defaults: warnings and above on stderr.
func DefaultConfig() types.LogConfig {
	return types.LogConfig{
		Level:      "warn",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// New builds a logger for cfg. When verbose is set the level is forced to
// debug. The returned cleanup flushes the logger and closes any log file.
func New(cfg types.LogConfig, verbose bool) (*zap.Logger, func() error, error) {
	level := ParseLevel(cfg.Level)
	if verbose {
		level = zapcore.DebugLevel
	}

	var (
		w       io.Writer
		closeFn = func() error { return nil }
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		}
		w = lj
		closeFn = lj.Close
	} else {
		w = os.Stderr
	}

	logger := newLogger(w, level)
	cleanup := func() error {
		_ = logger.Sync()
		return closeFn()
	}
	return logger, cleanup, nil
}

func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}

// ParseLevel maps a level name to a zap level. Unknown names map to warn.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}
