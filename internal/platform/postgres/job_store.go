package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/platform/logger"
	"github.com/phrazzld/quizimport/internal/store"
)

const jobColumns = `id, token, mode, status, total_chunks, processed_chunks,
	success_chunks, failed_chunks, started_at, ended_at, error_message`

// PostgresJobStore implements store.JobStore using PostgreSQL.
type PostgresJobStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.JobStore = (*PostgresJobStore)(nil)

// NewPostgresJobStore creates a PostgresJobStore. It needs a *sql.DB rather
// than a transaction because chunk outcomes are recorded in their own
// transactions.
func NewPostgresJobStore(db *sql.DB, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Create implements store.JobStore.Create.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("import job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_token", job.Token))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO import_jobs (token, mode, status, total_chunks, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		job.Token, string(job.Mode), string(job.Status), job.TotalChunks, job.StartedAt,
	).Scan(&job.ID)
	if err != nil {
		log.Error("failed to create import job",
			slog.String("error", err.Error()),
			slog.String("job_token", job.Token))
		return MapError(err)
	}

	log.Debug("import job created",
		slog.Int64("job_id", job.ID),
		slog.String("job_token", job.Token))
	return nil
}

// GetByID implements store.JobStore.GetByID.
func (s *PostgresJobStore) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM import_jobs WHERE id = $1`, id)
	return s.scanJob(ctx, row)
}

// GetByToken implements store.JobStore.GetByToken.
func (s *PostgresJobStore) GetByToken(ctx context.Context, token string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM import_jobs WHERE token = $1`, token)
	return s.scanJob(ctx, row)
}

func (s *PostgresJobStore) scanJob(ctx context.Context, row *sql.Row) (*domain.Job, error) {
	var (
		job     domain.Job
		endedAt sql.NullTime
		errMsg  sql.NullString
	)
	err := row.Scan(
		&job.ID,
		&job.Token,
		&job.Mode,
		&job.Status,
		&job.TotalChunks,
		&job.ProcessedChunks,
		&job.SuccessChunks,
		&job.FailedChunks,
		&job.StartedAt,
		&endedAt,
		&errMsg,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load import job",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	if endedAt.Valid {
		t := endedAt.Time
		job.EndedAt = &t
	}
	job.ErrorMessage = errMsg.String
	return &job, nil
}

// SetTotalChunks implements store.JobStore.SetTotalChunks.
func (s *PostgresJobStore) SetTotalChunks(ctx context.Context, jobID int64, total int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE import_jobs SET total_chunks = $2 WHERE id = $1`, jobID, total)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrJobNotFound)
}

// RecordChunkOutcome implements store.JobStore.RecordChunkOutcome. The item
// insert and the counter increments share one transaction, and the counters
// are incremented in SQL so concurrent chunks never lose an update.
func (s *PostgresJobStore) RecordChunkOutcome(ctx context.Context, item *domain.ChunkItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var result []byte
	if item.Result != nil {
		var err error
		if result, err = json.Marshal(item.Result); err != nil {
			return fmt.Errorf("failed to encode chunk result: %w", err)
		}
	}

	success, failed := 0, 1
	if item.Status == domain.ChunkStatusSuccess {
		success, failed = 1, 0
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO import_job_items (job_id, chunk_no, status, result, error_message, created_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
			RETURNING id
		`, item.JobID, item.ChunkNo, string(item.Status), nullableJSON(result), item.ErrorMessage, item.CreatedAt,
		).Scan(&item.ID)
		if err != nil {
			switch {
			case IsUniqueViolation(err):
				return store.ErrDuplicateChunk
			case IsForeignKeyViolation(err):
				return store.ErrJobNotFound
			}
			log.Error("failed to insert chunk item",
				slog.String("error", err.Error()),
				slog.Int64("job_id", item.JobID),
				slog.Int("chunk_no", item.ChunkNo))
			return MapError(err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE import_jobs
			SET processed_chunks = processed_chunks + 1,
			    success_chunks = success_chunks + $2,
			    failed_chunks = failed_chunks + $3
			WHERE id = $1
		`, item.JobID, success, failed)
		if err != nil {
			log.Error("failed to increment job counters",
				slog.String("error", err.Error()),
				slog.Int64("job_id", item.JobID))
			return MapError(err)
		}
		return CheckRowsAffected(res, store.ErrJobNotFound)
	})
}

// ListItems implements store.JobStore.ListItems.
func (s *PostgresJobStore) ListItems(ctx context.Context, jobID int64) ([]*domain.ChunkItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, chunk_no, status, result, error_message, created_at
		FROM import_job_items
		WHERE job_id = $1
		ORDER BY chunk_no
	`, jobID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*domain.ChunkItem, 0)
	for rows.Next() {
		var (
			item   domain.ChunkItem
			result []byte
			errMsg sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.JobID, &item.ChunkNo, &item.Status, &result, &errMsg, &item.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		if len(result) > 0 {
			var r domain.ChunkResult
			if err := json.Unmarshal(result, &r); err != nil {
				return nil, fmt.Errorf("failed to decode chunk result: %w", err)
			}
			item.Result = &r
		}
		item.ErrorMessage = errMsg.String
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

// Finish implements store.JobStore.Finish.
func (s *PostgresJobStore) Finish(
	ctx context.Context,
	jobID int64,
	status domain.JobStatus,
	errMsg string,
	endedAt time.Time,
) (bool, error) {
	if status != domain.JobStatusCompleted && status != domain.JobStatusFailed {
		return false, domain.ErrInvalidJobStatus
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs
		SET status = $2, error_message = NULLIF($3, ''), ended_at = $4
		WHERE id = $1 AND status = 'processing'
	`, jobID, string(status), errMsg, endedAt)
	if err != nil {
		return false, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM import_jobs WHERE id = $1)`, jobID).Scan(&exists); err != nil {
		return false, MapError(err)
	}
	if !exists {
		return false, store.ErrJobNotFound
	}
	return false, nil
}

// FailStale implements store.JobStore.FailStale.
func (s *PostgresJobStore) FailStale(ctx context.Context, startedBefore time.Time, errMsg string, endedAt time.Time) (int64, error) {
	return s.execCount(ctx, `
		UPDATE import_jobs
		SET status = 'failed', error_message = $2, ended_at = $3
		WHERE status = 'processing' AND started_at < $1
	`, startedBefore, errMsg, endedAt)
}

// DeleteFinishedBefore implements store.JobStore.DeleteFinishedBefore.
// Items are removed by the ON DELETE CASCADE foreign key.
func (s *PostgresJobStore) DeleteFinishedBefore(ctx context.Context, endedBefore time.Time) (int64, error) {
	n, err := s.execCount(ctx, `
		DELETE FROM import_jobs
		WHERE status <> 'processing' AND COALESCE(ended_at, started_at) < $1
	`, endedBefore)
	if err != nil {
		return 0, deleteJobsError("delete_expired", "could not remove jobs past retention", err)
	}
	return n, nil
}

// DeleteFinishedBeyond implements store.JobStore.DeleteFinishedBeyond.
func (s *PostgresJobStore) DeleteFinishedBeyond(ctx context.Context, keep int) (int64, error) {
	n, err := s.execCount(ctx, `
		DELETE FROM import_jobs
		WHERE id IN (
			SELECT id FROM import_jobs
			WHERE status <> 'processing'
			ORDER BY COALESCE(ended_at, started_at) DESC, id DESC
			OFFSET $1
		)
	`, max(keep, 0))
	if err != nil {
		return 0, deleteJobsError("delete_excess", "could not trim finished jobs", err)
	}
	return n, nil
}

func (s *PostgresJobStore) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("import job maintenance query failed",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
