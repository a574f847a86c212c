// Package logging installs the process-wide slog logger. The terminal UI owns
// stdout and stderr while it runs, so logs go to a file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// DefaultPath is $XDG_STATE_HOME/netfall/netfall.log, falling back to
// ~/.local/state.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "netfall", "netfall.log")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", "netfall", "netfall.log")
}

// Setup opens (appending) the log file at path, or DefaultPath when empty,
// and installs a text handler at level as the slog default. The returned
// closer restores the previous default logger and closes the file.
//
// A path of "-" logs to stderr, for non-interactive commands.
func Setup(path, level string) (io.Closer, error) {
	var (
		w    io.Writer
		file *os.File
	)
	switch path {
	case "-":
		w = os.Stderr
	default:
		if path == "" {
			path = DefaultPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w, file = f, f
	}

	prev := slog.Default()
	slog.SetDefault(New(w, level))
	return closerFunc(func() error {
		slog.SetDefault(prev)
		if file != nil {
			return file.Close()
		}
		return nil
	}), nil
}

// New builds a text logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
