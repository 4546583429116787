// Package telemetry builds the structured loggers used across the
// deterministic network snapshot core. Nothing in this package is ever
// consulted by a signature-producing code path: the canonical encoder, the
// applier's structural transition, and the proof/pack builders never hold a
// reference to a *zap.Logger. Logging here is purely operational.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// Debug enables debug-level logging. Mirrors the teacher's debug_mode gate.
	Debug bool
}

// New builds a production-shaped zap.Logger, optionally lowered to debug
// level. Failures to build the logger fall back to zap.NewNop so that a
// misconfigured operator environment never blocks a DNSC operation.
func New(opts Options) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if opts.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Noop returns a logger that discards everything, for components under
// test or for callers that opt out of telemetry entirely.
func Noop() *zap.Logger {
	return zap.NewNop()
}

// Component namespaces returned loggers the way the teacher namespaces log
// categories, via a sub-logger rather than a string category field.
func Component(base *zap.Logger, name string) *zap.Logger {
	if base == nil {
		return Noop()
	}
	return base.Named(name)
}
