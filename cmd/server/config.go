package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/quizimport/internal/config"
)

// loadAppConfig loads the application configuration from environment variables or config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// logConfigSummary logs which optional settings are present without
// revealing their values.
func logConfigSummary(cfg *config.Config, logger *slog.Logger) {
	logger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"llm_provider", cfg.LLM.Provider)
	logger.Debug("Optional configuration",
		"database_url_present", cfg.Database.URL != "",
		"jwt_secret_present", cfg.Auth.JWTSecret != "",
		"llm_api_key_present", cfg.LLM.APIKey != "",
		"janitor_schedule", cfg.Import.JanitorSchedule)
}
