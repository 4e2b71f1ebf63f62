package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/phrazzld/quizimport/internal/platform/postgres/migrations"
)

// MigrationTableName is the goose version table.
const MigrationTableName = "schema_migrations"

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf forwards goose progress messages at info level.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level. It does not exit; the failure is returned to
// the caller by goose.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate runs a goose command ("up", "down", "status", "version", ...)
// against db using the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger, command string, args ...string) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "migrations", "command", command)

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	log.Info("running migrations")
	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		log.Error("migration failed", "error", err)
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
