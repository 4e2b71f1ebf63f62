package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/platform/logger"
	"github.com/phrazzld/quizimport/internal/store"
)

// PostgresQuestionStore implements store.QuestionStore using PostgreSQL.
// Duplicates are detected by the unique indexes on code and trimmed text.
type PostgresQuestionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// NewPostgresQuestionStore creates a PostgresQuestionStore.
func NewPostgresQuestionStore(db *sql.DB, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// ImportBatch implements store.QuestionStore.ImportBatch. The whole batch is
// written in one transaction.
func (s *PostgresQuestionStore) ImportBatch(
	ctx context.Context,
	records []*domain.Question,
	mode domain.ImportMode,
	bankID string,
) (store.ImportResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	res := store.ImportResult{Parsed: len(records)}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if mode == domain.ImportModeReplace {
			if _, err := tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
				return MapError(err)
			}
		}

		banks := make(map[string]bool)
		for _, rec := range records {
			bank := rec.BankID
			if bank == "" {
				bank = bankID
			}
			if bank != "" && !banks[bank] {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO question_banks (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, bank); err != nil {
					return MapError(err)
				}
				banks[bank] = true
			}

			options, err := json.Marshal(nonNilOptions(rec.Options))
			if err != nil {
				return fmt.Errorf("failed to encode options: %w", err)
			}

			result, err := tx.ExecContext(ctx, `
				INSERT INTO questions (bank_id, code, type, text, answer, explanation, options)
				VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5, $6, $7)
				ON CONFLICT DO NOTHING
			`, bank, strings.TrimSpace(rec.Code), string(rec.Type), rec.Text, rec.Answer, rec.Explanation, string(options))
			if err != nil {
				log.Error("failed to insert question",
					slog.String("error", err.Error()),
					slog.String("code", rec.Code))
				return MapError(err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if n == 0 {
				res.Duplicate++
			} else {
				res.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return store.ImportResult{}, err
	}

	log.Debug("question batch imported",
		slog.Int("parsed", res.Parsed),
		slog.Int("inserted", res.Inserted),
		slog.Int("duplicate", res.Duplicate))
	return res, nil
}

// PurgeAll implements store.QuestionStore.PurgeAll.
func (s *PostgresQuestionStore) PurgeAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to purge questions",
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// Count returns the number of stored questions.
func (s *PostgresQuestionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func nonNilOptions(opts []domain.Option) []domain.Option {
	if opts == nil {
		return []domain.Option{}
	}
	return opts
}
