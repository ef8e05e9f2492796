// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package logging builds the *slog.Logger the client, server, and serial
// transport packages log connection lifecycle and error events through.
// New returns the logger to the caller rather than installing a
// process-wide default, since this package has no main of its own.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Config selects the logger's level and destination.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Anything else
	// (including empty) behaves like "info".
	Level string
	// File is a path to append log lines to. Empty or "-" logs to
	// stdout.
	File string
}

// New builds a text-handler *slog.Logger from cfg. A file that fails to
// open falls back to stdout rather than failing the caller outright.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(cfg.Level)}

	var w io.Writer = os.Stdout
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: failed to open %s, falling back to stdout: %v\n", cfg.File, err)
		} else {
			w = f
		}
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

func levelFor(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
