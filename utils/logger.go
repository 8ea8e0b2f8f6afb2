package utils

import (
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It discards everything until InitLogger runs.
var Logger = zap.NewNop()

// InitLogger builds the global logger. Format "console" selects the
// human-readable development encoder, anything else JSON.
func InitLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid log level", goerr.V("level", level))
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build logger")
	}
	Logger = logger
	return logger, nil
}
