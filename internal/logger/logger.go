package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trade-profit-calculator-go/internal/config"
)

// NewLogger creates a new zap.Logger instance based on the provided configuration.
// "json" selects the production encoder, anything else the development one.
func NewLogger(level string, format string) (*zap.Logger, error) {
	return build(level, format, nil)
}

// FromConfig builds the logger described by cfg. Output goes to the given
// paths (stderr when empty), so the interactive shell can keep stdout clean.
func FromConfig(cfg config.Logger, outputPaths ...string) (*zap.Logger, error) {
	return build(cfg.Level, cfg.Format, outputPaths)
}

func build(level, format string, outputPaths []string) (*zap.Logger, error) {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(logLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(outputPaths) > 0 {
		cfg.OutputPaths = outputPaths
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}

	return cfg.Build()
}
