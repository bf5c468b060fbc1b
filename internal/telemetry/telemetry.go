// Package telemetry constructs the zap.Logger shared by ringctl's commands
// and pkg/ringbus/reaper, following the same development-config shape the
// corpus's own zap-based service uses for its CLI-adjacent entry points.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a human-readable, colorized logger suitable for a
// terminal-attached CLI. When verbose is false, Debug-level entries are
// suppressed.
func NewLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true

	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	log := zap.Must(cfg.Build())

	return log.Named("ringctl")
}
