package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/platform/postgres"
)

var errMigrateMemory = errors.New("migrations require database.driver=postgres")

// runMigrations executes a goose command against the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string, args ...string) error {
	if cfg.Database.Driver == driverMemory {
		return errMigrateMemory
	}

	log := logger.With("correlation_id", uuid.NewString())
	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database connection", "error", err)
		}
	}()

	if err := postgres.Migrate(ctx, db, log, command, args...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations finished", "command", command)
	return nil
}
