// Package logging builds the zap loggers used by the daemon and CLIs.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for mode. Release mode logs JSON at info level;
// debug and test log colored console output at debug level.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	switch mode {
	case "release":
		config = zap.NewProductionConfig()
	case "debug", "test", "":
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("logging: unknown mode %q", mode)
	}

	return config.Build()
}

// Sync flushes log, ignoring the error stderr returns on some platforms.
func Sync(log *zap.Logger) {
	if log != nil {
		_ = log.Sync()
	}
}
