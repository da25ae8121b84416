// Package diagnostics holds the package-level logger shared by engine and
// cmd/memengine, mirroring the discard-by-default / Init-to-upgrade shape
// used throughout the retrieval pack's own logging helpers.
package diagnostics

import (
	"io"
	"log/slog"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init upgrades the package logger to write to w at the given level. Called
// once, typically from main, behind a verbosity flag.
func Init(w io.Writer, level slog.Level) {
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// L returns the current package logger.
func L() *slog.Logger { return logger }
