package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"

	"github.com/phrazzld/quizimport/internal/platform/logger"
	"github.com/phrazzld/quizimport/internal/store"
)

// PostgresSettingsStore implements store.SettingsStore on the app_settings table.
type PostgresSettingsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.SettingsStore = (*PostgresSettingsStore)(nil)

// NewPostgresSettingsStore creates a PostgresSettingsStore.
func NewPostgresSettingsStore(db store.DBTX, logger *slog.Logger) *PostgresSettingsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSettingsStore{
		db:     db,
		logger: logger.With(slog.String("component", "settings_store")),
	}
}

// GetInt implements store.SettingsStore.GetInt.
func (s *PostgresSettingsStore) GetInt(ctx context.Context, key string, fallback int) (int, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return fallback, MapError(err)
	}

	v, ok := store.ParseIntSetting(raw)
	if !ok {
		logger.FromContextOrDefault(ctx, s.logger).Warn("ignoring non-integer setting",
			slog.String("key", key),
			slog.String("value", string(raw)))
		return fallback, nil
	}
	return v, nil
}

// SetInt implements store.SettingsStore.SetInt.
func (s *PostgresSettingsStore) SetInt(ctx context.Context, key string, value int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, strconv.Itoa(value))
	return MapError(err)
}
