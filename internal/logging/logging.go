// Package logging configures the process-wide slog logger.
//
// While the dashboard owns the terminal, records go to a JSON log file in
// the config directory. Headless runs and one-shot subcommands log to
// stderr: text when stderr is a terminal, JSON when it is piped.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// ParseLevel maps a config log level to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns a text handler for terminals and a JSON handler
// otherwise.
func NewHandler(w io.Writer, level slog.Level, tty bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if tty {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// NewCommandLogger creates the stderr logger for headless runs and
// subcommands.
func NewCommandLogger(level string) *slog.Logger {
	return slog.New(NewHandler(os.Stderr, ParseLevel(level), term.IsTerminal(int(os.Stderr.Fd()))))
}

// OpenFile creates a JSON logger appending to path. The caller closes the
// returned file when the dashboard exits.
func OpenFile(path, level string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(NewHandler(f, ParseLevel(level), false)), f, nil
}
