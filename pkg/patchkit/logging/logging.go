// Package logging constructs the structured logger injected into patchkit
// components. Components receive their logger at construction; there is no
// process-wide logger registry.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Config configures logger construction.
type Config struct {
	// Level is the log level: debug, info, warn, or error.
	Level string

	// Path is the log file path. Empty logs to stderr instead.
	Path string
}

// New builds a logger for the named component. When cfg.Path is set the
// component appends to that file, creating parent directories as needed;
// the returned closer owns the file handle.
func New(component string, cfg Config) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}

	w := io.Writer(os.Stderr)
	closer := io.Closer(nopCloser{})
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closer = f
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})
	return logger, closer, nil
}

// Discard returns a logger that drops everything. Tests and library callers
// that want a silent component use it.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// DefaultLogPath returns $XDG_STATE_HOME/patchkit/patchkit.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "patchkit", "patchkit.log")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
