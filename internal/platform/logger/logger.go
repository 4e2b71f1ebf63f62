package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/phrazzld/quizimport/internal/config"
)

// ParseLevel maps a configured level name onto a slog level. Unknown names
// fall back to info.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Setup initializes the application's logging system from the server config.
// Records are written as JSON to stdout; when LogFile is set they are also
// appended as JSON to that file. The logger becomes the slog default.
//
// The returned cleanup function closes the log file, if any.
func Setup(cfg config.ServerConfig) (*slog.Logger, func() error, error) {
	level, ok := ParseLevel(cfg.LogLevel)
	if !ok {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	cleanup := func() error { return nil }
	var file io.WriteCloser
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to open log file %q: %w", cfg.LogFile, err)
		}
		file = f
		cleanup = f.Close
	}

	logger := New(os.Stdout, file, level)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// New builds a JSON logger writing to out and, when file is non-nil, fanned
// out to file as well.
func New(out io.Writer, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	primary := slog.NewJSONHandler(out, opts)
	if file == nil {
		return slog.New(primary)
	}
	return slog.New(slogmulti.Fanout(primary, slog.NewJSONHandler(file, opts)))
}
