package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger. Format "json"
// selects the JSON handler; anything else selects human-readable text. All
// log output goes to stderr so stdout stays clean for piped artifacts.
func SetupLogging(level slog.Level, format string) {
	SetupLoggingWithWriter(level, format, os.Stderr)
}

// SetupLoggingWithWriter is the testable variant of SetupLogging.
func SetupLoggingWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ResolveLogLevel picks the log level from the flags and the RESPACK_DEBUG
// environment variable, which always wins.
func ResolveLogLevel(verbose, quiet bool) slog.Level {
	if os.Getenv("RESPACK_DEBUG") == "1" {
		return slog.LevelDebug
	}
	if verbose {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ResolveLogFormat reads RESPACK_LOG_FORMAT; "json" selects JSON output.
func ResolveLogFormat() string {
	if strings.EqualFold(os.Getenv("RESPACK_LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}
