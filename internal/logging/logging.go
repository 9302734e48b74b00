// Package logging builds the zap loggers used across pacer.
package logging

import "go.uber.org/zap"

// Options selects the logger flavor.
type Options struct {
	// Debug uses the development config (human-readable, debug level);
	// otherwise production (JSON, info level).
	Debug bool
	// File sends output to a file instead of stderr.
	File string
}

// New returns a zap logger for opts.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	}
	if opts.File != "" {
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	}
	return cfg.Build()
}

// ForTerminal returns a logger that never writes to the terminal a
// full-screen UI is drawing on: a file logger when File is set, otherwise a
// no-op logger.
func ForTerminal(opts Options) (*zap.Logger, error) {
	if opts.File == "" {
		return zap.NewNop(), nil
	}
	return New(opts)
}
