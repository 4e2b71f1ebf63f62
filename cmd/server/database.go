package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/phrazzld/quizimport/internal/config"
)

// Database drivers accepted in database.driver.
const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

// setupAppDatabase opens and pings the PostgreSQL connection pool. It returns
// a nil *sql.DB for the memory driver.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.Database.Driver == driverMemory {
		logger.Warn("using in-memory storage; jobs and questions are lost on restart")
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")
	return db, nil
}
