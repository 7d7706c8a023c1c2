// Package logging builds the structured logger used by every bt command.
//
// Logs always go to stderr so that stdout carries nothing but command
// output and `bt list | grep …` keeps working. Each invocation is tagged
// with a random session id, which makes interleaved logs from concurrent
// bt processes (an editor hook calling bt while `bt move` is open, say)
// easy to tell apart.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Config holds configuration for the structured logger.
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
}

// ParseLevel maps a level name to a slog.Level. Configuration rejects
// unknown names; anything else reaching here maps to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New creates a logger writing to w and tags it with a fresh session id.
// The returned logger is also installed as slog's default.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(slog.String("session", uuid.NewString()))
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
