// Package logging configures log/slog for the import service and CLI.
//
// Entries written while serving a request carry chi's request ID, and
// entries written during an import carry the run ID and endpoint.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Attribute keys shared by every import log line.
const (
	KeyRequestID = "request_id"
	KeyRunID     = "run_id"
	KeyEndpoint  = "endpoint"
	KeyFile      = "file"
)

// Setup installs the default logger writing to stdout.
//
// level is one of debug, info, warn, error (default info); format is text
// or json (default text).
func Setup(level, format string) {
	SetupWriter(os.Stdout, level, format)
}

// SetupWriter is Setup with an explicit destination. importctl logs to
// stderr so its JSON result on stdout stays parseable.
func SetupWriter(w io.Writer, level, format string) {
	slog.SetDefault(slog.New(newHandler(w, level, format)))
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// FromContext returns the default logger with request_id attached when ctx
// came through chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With(KeyRequestID, reqID)
	}
	return logger
}

// WithFields returns FromContext(ctx) with extra key/value pairs.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// ForImport returns the logger for one import run.
func ForImport(ctx context.Context, runID, endpoint, file string) *slog.Logger {
	return WithFields(ctx,
		KeyRunID, runID,
		KeyEndpoint, endpoint,
		KeyFile, file,
	)
}
