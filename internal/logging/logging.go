// Package logging sets up hydrasect's diagnostics on stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// EnvVar selects the level when --verbose is not given.
const EnvVar = "HYDRASECT_LOG"

// DefaultLevel keeps a normal run silent unless something goes wrong.
const DefaultLevel = slog.LevelWarn

// Level picks the level from the verbose flag and the value of EnvVar.
// An empty value means DefaultLevel.
func Level(verbose bool, env string) (slog.Level, error) {
	if verbose {
		return slog.LevelDebug, nil
	}
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "":
		return DefaultLevel, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%s: unknown level %q", EnvVar, env)
}

// New returns a logger writing human-readable lines without timestamps.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Level:           log.Level(level),
		Prefix:          "hydrasect",
		ReportTimestamp: false,
	})
	return slog.New(handler)
}

// Setup installs a logger for w as the default and returns it.
func Setup(w io.Writer, verbose bool, env string) (*slog.Logger, error) {
	level, err := Level(verbose, env)
	if err != nil {
		return nil, err
	}
	logger := New(w, level)
	slog.SetDefault(logger)
	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
