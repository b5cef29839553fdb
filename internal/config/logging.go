package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevelEnv overrides the log level chosen by the -v flag.
const LogLevelEnv = "SITEGEN_LOG_LEVEL"

// ParseLogLevel resolves the effective log level from the verbose flag and environment.
func ParseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger returns the text logger used by every command.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(verbose)}))
}
