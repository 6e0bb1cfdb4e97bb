// Package logging builds the slog loggers shared by the chorewheel server
// and CLI.
package logging

import (
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// Options selects how a logger renders records.
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // text or json
	Writer io.Writer // defaults to stderr; stdout carries program output
}

// New returns a logger for opts. Unknown levels fall back to info and
// unknown formats to text.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, ho)
	default:
		handler = slog.NewTextHandler(w, ho)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to a slog.Level.
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

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
}

// Component returns a child logger tagged with the component name, or a
// Nop logger when base is nil.
func Component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		return Nop()
	}
	return base.With("component", name)
}
