// Package main implements the quiz import server: an HTTP API that accepts
// raw question text, splits it into chunks, extracts structured questions
// through an LLM in the background and reports per-job progress.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run a database migration command (up, down, status, version, reset, redo) and exit")
	flag.Parse()

	if err := run(*migrateCmd, flag.Args()); err != nil {
		log.Fatalf("quiz import server: %v", err)
	}
}

// run loads configuration, sets up logging and either executes a migration
// command or serves HTTP until SIGINT or SIGTERM.
func run(migrateCmd string, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, logger, migrateCmd, args...)
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	slog.Info("quiz import server starting", "port", cfg.Server.Port, "database", cfg.Database.Driver)
	return app.Run(ctx)
}
