// Package logging configures the agent's structured JSON logging and
// carries the log-attribute and redaction helpers shared across
// components.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a config level string to a slog level. Unknown
// strings fall back to info so a typo in the environment never
// silences the agent.
func ParseLevel(level string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(level)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// NewLogger returns a JSON logger writing to w. Debug level also
// records source locations.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl := ParseLevel(level)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}))
}

// The With helpers pin the attribute names used across the agent so
// every component logs the same keys.

func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

func WithJobID(logger *slog.Logger, jobID string) *slog.Logger {
	return logger.With("job_id", jobID)
}

func WithSourceID(logger *slog.Logger, sourceID string) *slog.Logger {
	return logger.With("source_id", sourceID)
}

func WithTakeID(logger *slog.Logger, takeID string) *slog.Logger {
	return logger.With("take_id", takeID)
}

// SanitizeToken masks an auth token down to its first and last four
// characters so log lines stay correlatable without leaking the
// credential.
func SanitizeToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizePath replaces the current user's home directory prefix with
// "~". Agent logs may be shared in support tickets; usernames in paths
// should not travel with them.
func SanitizePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
