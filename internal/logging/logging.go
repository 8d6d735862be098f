// Package logging configures the process-wide structured logger.
//
// It wraps log/slog: one subsystem logger per component, text by
// default, JSON when configured, always key=value structured fields
// rather than free-form messages.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New builds a slog.Logger for one subsystem (router, executor, memory, ...).
// Subsystem loggers share a handler but tag every record with "subsystem"
// so logs/*.log can be grepped or split into one file per subsystem when
// w is a per-subsystem file.
func New(w io.Writer, subsystem string, jsonMode bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if jsonMode {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("subsystem", subsystem)
}

// Default returns a text logger writing to stderr, used before any
// subsystem-specific file sink has been opened (early startup, CLI errors).
func Default(subsystem string) *slog.Logger {
	return New(os.Stderr, subsystem, false)
}
