package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/quizimport/internal/domain"
)

// Common errors
var (
	ErrNilJob       = errors.New("import job cannot be nil")
	ErrNilJobRunner = errors.New("job runner cannot be nil")
)

// JobRunner executes an import job to a terminal status.
type JobRunner interface {
	Run(ctx context.Context, job *domain.Job, content, bankID string) error
}

// JobFinisher moves a processing job to a terminal status.
type JobFinisher interface {
	Finish(ctx context.Context, jobID int64, status domain.JobStatus, errMsg string, endedAt time.Time) (bool, error)
}

// ImportTask runs one import job in the background. The content lives only
// in the task; a job whose task is lost stays processing until the janitor
// times it out.
type ImportTask struct {
	job     *domain.Job
	content string
	bankID  string
	runner  JobRunner
	jobs    JobFinisher
	logger  *slog.Logger
}

var _ Discarder = (*ImportTask)(nil)

// NewImportTask creates an ImportTask. jobs may be nil, in which case a
// discarded task leaves its job for the janitor.
func NewImportTask(job *domain.Job, content, bankID string, runner JobRunner, jobs JobFinisher, logger *slog.Logger) (*ImportTask, error) {
	if job == nil {
		return nil, ErrNilJob
	}
	if runner == nil {
		return nil, ErrNilJobRunner
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportTask{
		job:     job,
		content: content,
		bankID:  bankID,
		runner:  runner,
		jobs:    jobs,
		logger:  logger.With("task_type", TaskTypeQuestionImport, "job_token", job.Token),
	}, nil
}

// ID returns the job token.
func (t *ImportTask) ID() string {
	return t.job.Token
}

// Type returns TaskTypeQuestionImport.
func (t *ImportTask) Type() string {
	return TaskTypeQuestionImport
}

// Execute runs the import job.
func (t *ImportTask) Execute(ctx context.Context) error {
	return t.runner.Run(ctx, t.job, t.content, t.bankID)
}

// Discard fails the job with reason.
func (t *ImportTask) Discard(ctx context.Context, reason string) {
	if t.jobs == nil {
		return
	}
	if _, err := t.jobs.Finish(ctx, t.job.ID, domain.JobStatusFailed, reason, time.Now()); err != nil {
		t.logger.Error("failed to discard import task", "error", err)
	}
}
