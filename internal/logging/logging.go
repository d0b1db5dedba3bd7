// Package logging builds the zap logger used for diagnostics. The interactive
// menu is written to stdout directly; logs go to stderr unless configured
// otherwise, so they never interleave with the menu on a redirected stdout.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // console, json
	OutputPath string // stderr, stdout, or a file path
}

const (
	DefaultLevel  = "warn"
	DefaultFormat = "console"
	DefaultOutput = "stderr"
)

// New builds a logger from cfg. Unknown levels fall back to DefaultLevel.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			level = zapcore.WarnLevel
		}
	}

	var config zap.Config
	switch strings.ToLower(cfg.Format) {
	case "json":
		config = zap.NewProductionConfig()
	case "", DefaultFormat:
		config = zap.NewDevelopmentConfig()
		config.Development = false
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	default:
		return nil, errors.Errorf("logging: unknown format %q", cfg.Format)
	}

	config.Level = zap.NewAtomicLevelAt(level)
	// Stack traces only help when debugging.
	config.DisableStacktrace = level > zapcore.DebugLevel
	output := cfg.OutputPath
	if output == "" {
		output = DefaultOutput
	}
	config.OutputPaths = []string{output}
	config.ErrorOutputPaths = []string{DefaultOutput}

	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "logging: build logger")
	}
	return logger, nil
}
