// Package logging builds the zap loggers used across recipesearch.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger. Debug mode uses development config with debug level.
// Both configurations write to stderr.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	return cfg.Build()
}

// NewQuiet creates a logger that only emits warnings and errors, for
// interactive commands whose output is the result itself.
func NewQuiet(debug bool) (*zap.Logger, error) {
	if debug {
		return New(true)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
