// Package logging builds the process-wide zap logger.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Logger is the global logger instance, set by Setup.
var Logger = zap.NewNop()

// Options controls logger construction.
type Options struct {
	Debug      bool
	AppName    string
	AppVersion string
	// File redirects all output to a file. Interactive commands set it so
	// log lines do not tear the terminal UI.
	File string
	// Quiet discards output entirely when no File is given.
	Quiet bool
}

// Setup builds the logger described by opts and installs it globally.
func Setup(opts Options) (*zap.Logger, error) {
	if opts.Quiet && opts.File == "" {
		Logger = zap.NewNop()
		zap.ReplaceGlobals(Logger)
		return Logger, nil
	}

	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.InitialFields = map[string]interface{}{
		"appName":    opts.AppName,
		"appVersion": opts.AppVersion,
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return Logger, err
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	}

	built, err := cfg.Build()
	if err != nil {
		Logger = zap.NewExample()
		return Logger, err
	}
	Logger = built
	zap.ReplaceGlobals(Logger)
	return Logger, nil
}
