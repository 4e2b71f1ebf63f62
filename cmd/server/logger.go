package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/platform/logger"
)

// setupAppLogger configures the application logger from config and returns
// a function that closes the optional log file.
func setupAppLogger(cfg *config.Config) (*slog.Logger, func() error, error) {
	l, cleanup, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	logConfigSummary(cfg, l)
	return l, cleanup, nil
}
