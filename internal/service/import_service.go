package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/store"
	"github.com/phrazzld/quizimport/internal/task"
)

// MaxStatusErrors caps the error messages returned by Status.
const MaxStatusErrors = 10

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue without blocking
	Submit(ctx context.Context, task task.Task) error
}

// Sweeper reclaims stale jobs and removes expired ones.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// SubmitRequest is an import submission.
type SubmitRequest struct {
	Content string
	Mode    string
	BankID  string
}

// SubmitResult identifies an accepted import.
type SubmitResult struct {
	JobToken string            `json:"jobToken"`
	Mode     domain.ImportMode `json:"mode"`
}

// Progress reports chunk counters. Percentage has one decimal place.
type Progress struct {
	Total      int    `json:"total"`
	Processed  int    `json:"processed"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Percentage string `json:"percentage"`
}

// ImportStatus is the externally visible state of an import job.
type ImportStatus struct {
	ID            string            `json:"id"`
	Status        domain.JobStatus  `json:"status"`
	Mode          domain.ImportMode `json:"mode"`
	Progress      Progress          `json:"progress"`
	ImportedCount int               `json:"importedCount"`
	// Duration is in seconds with one decimal place.
	Duration string   `json:"duration"`
	Errors   []string `json:"errors"`
}

// ImportService accepts imports and reports their progress.
type ImportService interface {
	// Submit validates the request, records a processing job and queues it.
	// It returns as soon as the job is queued.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)

	// Status returns the job's progress. Returns ErrImportNotFound for
	// unknown tokens, including jobs already removed by the janitor.
	Status(ctx context.Context, token string) (*ImportStatus, error)
}

type importServiceImpl struct {
	jobs      store.JobStore
	runner    TaskRunner
	jobRunner task.JobRunner
	sweeper   Sweeper
	logger    *slog.Logger
	now       func() time.Time
}

var _ ImportService = (*importServiceImpl)(nil)

// NewImportService creates an ImportService. jobRunner executes the queued
// jobs; sweeper may be nil.
func NewImportService(
	jobs store.JobStore,
	runner TaskRunner,
	jobRunner task.JobRunner,
	sweeper Sweeper,
	logger *slog.Logger,
) (ImportService, error) {
	if jobs == nil {
		return nil, &ServiceError{Service: "import", Op: "create_service", Err: errors.New("jobs cannot be nil")}
	}
	if runner == nil {
		return nil, &ServiceError{Service: "import", Op: "create_service", Err: errors.New("runner cannot be nil")}
	}
	if jobRunner == nil {
		return nil, &ServiceError{Service: "import", Op: "create_service", Err: task.ErrNilJobRunner}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &importServiceImpl{
		jobs:      jobs,
		runner:    runner,
		jobRunner: jobRunner,
		sweeper:   sweeper,
		logger:    logger.With("component", "import_service"),
		now:       time.Now,
	}, nil
}

func (s *importServiceImpl) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, domain.ErrEmptyContent
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}

	s.sweep(ctx)

	job := domain.NewJob(mode)
	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Error("failed to create import job", "error", err, "mode", mode)
		return nil, NewServiceError("import", "submit", err)
	}
	log := s.logger.With("job_token", job.Token, "job_id", job.ID)

	t, err := task.NewImportTask(job, req.Content, req.BankID, s.jobRunner, s.jobs, s.logger)
	if err != nil {
		s.finishRejected(ctx, job, err.Error(), log)
		return nil, NewServiceError("import", "submit", err)
	}

	if err := s.runner.Submit(ctx, t); err != nil {
		msg := domain.MsgQueueFull
		if errors.Is(err, task.ErrQueueClosed) {
			msg = "server shutting down"
		}
		log.Warn("import job rejected by task runner", "error", err)
		s.finishRejected(ctx, job, msg, log)
		return nil, NewServiceError("import", "submit", err)
	}

	log.Info("import job queued", "mode", job.Mode, "content_length", len(req.Content))
	return &SubmitResult{JobToken: job.Token, Mode: job.Mode}, nil
}

func (s *importServiceImpl) finishRejected(ctx context.Context, job *domain.Job, msg string, log *slog.Logger) {
	if _, err := s.jobs.Finish(context.WithoutCancel(ctx), job.ID, domain.JobStatusFailed, msg, s.now().UTC()); err != nil {
		log.Error("failed to mark rejected import job as failed", "error", err)
	}
}

func (s *importServiceImpl) Status(ctx context.Context, token string) (*ImportStatus, error) {
	s.sweep(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrImportNotFound
	}

	job, err := s.jobs.GetByToken(ctx, token)
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to load import job", "error", err, "job_token", token)
		}
		return nil, NewServiceError("import", "status", err)
	}

	items, err := s.jobs.ListItems(ctx, job.ID)
	if err != nil {
		s.logger.Error("failed to list chunk items", "error", err, "job_token", token)
		return nil, NewServiceError("import", "status", err)
	}

	return buildStatus(job, items, s.now()), nil
}

func (s *importServiceImpl) sweep(ctx context.Context) {
	if s.sweeper == nil {
		return
	}
	if err := s.sweeper.Sweep(ctx); err != nil {
		s.logger.Warn("janitor sweep failed", "error", err)
	}
}

func buildStatus(job *domain.Job, items []*domain.ChunkItem, now time.Time) *ImportStatus {
	imported := 0
	errs := make([]string, 0)
	for _, item := range items {
		if item.Result != nil {
			imported += item.Result.InsertedCount
		}
		if item.ErrorMessage != "" && len(errs) < MaxStatusErrors {
			errs = append(errs, item.ErrorMessage)
		}
	}
	if len(errs) == 0 && job.ErrorMessage != "" {
		errs = append(errs, job.ErrorMessage)
	}

	return &ImportStatus{
		ID:     job.Token,
		Status: job.Status,
		Mode:   job.Mode,
		Progress: Progress{
			Total:      job.TotalChunks,
			Processed:  job.ProcessedChunks,
			Successful: job.SuccessChunks,
			Failed:     job.FailedChunks,
			Percentage: fmt.Sprintf("%.1f", job.Percentage()),
		},
		ImportedCount: imported,
		Duration:      fmt.Sprintf("%.1f", job.Duration(now).Seconds()),
		Errors:        errs,
	}
}
