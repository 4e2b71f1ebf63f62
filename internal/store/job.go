package store

import (
	"context"
	"time"

	"github.com/phrazzld/quizimport/internal/domain"
)

// JobStore persists import jobs and their chunk items.
//
// Counter updates must be atomic: RecordChunkOutcome is called concurrently
// for chunks of the same job and must never lose an increment.
type JobStore interface {
	// Create saves a new job and assigns its ID.
	// Returns ErrInvalidEntity if the job fails validation.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its internal ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Job, error)

	// GetByToken retrieves a job by its external correlation token.
	// Returns ErrJobNotFound if the job does not exist.
	GetByToken(ctx context.Context, token string) (*domain.Job, error)

	// SetTotalChunks records the number of chunks of a processing job.
	SetTotalChunks(ctx context.Context, jobID int64, total int) error

	// RecordChunkOutcome inserts item and, in the same atomic step, increments
	// the job's processed counter and its success or failed counter.
	// Returns ErrDuplicateChunk if the chunk already has an outcome.
	RecordChunkOutcome(ctx context.Context, item *domain.ChunkItem) error

	// ListItems returns the job's chunk items ordered by chunk number.
	ListItems(ctx context.Context, jobID int64) ([]*domain.ChunkItem, error)

	// Finish moves a processing job to a terminal status. It reports false,
	// without error, when the job was no longer processing.
	Finish(ctx context.Context, jobID int64, status domain.JobStatus, errMsg string, endedAt time.Time) (bool, error)

	// FailStale fails every processing job started before startedBefore and
	// returns how many were changed.
	FailStale(ctx context.Context, startedBefore time.Time, errMsg string, endedAt time.Time) (int64, error)

	// DeleteFinishedBefore deletes terminal jobs, with their items, that
	// ended before endedBefore.
	DeleteFinishedBefore(ctx context.Context, endedBefore time.Time) (int64, error)

	// DeleteFinishedBeyond keeps the newest keep terminal jobs, ordered by
	// ended_at then id descending, and deletes the rest with their items.
	DeleteFinishedBeyond(ctx context.Context, keep int) (int64, error)
}
