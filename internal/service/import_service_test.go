package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/generation"
	"github.com/phrazzld/quizimport/internal/ingest"
	"github.com/phrazzld/quizimport/internal/platform/memory"
	"github.com/phrazzld/quizimport/internal/store"
	"github.com/phrazzld/quizimport/internal/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// inlineRunner executes submitted tasks synchronously, or rejects them with err.
type inlineRunner struct {
	err       error
	submitted []task.Task
}

func (r *inlineRunner) Submit(ctx context.Context, t task.Task) error {
	if r.err != nil {
		return r.err
	}
	r.submitted = append(r.submitted, t)
	return t.Execute(ctx)
}

// noopJobRunner leaves jobs processing.
type noopJobRunner struct{}

func (noopJobRunner) Run(context.Context, *domain.Job, string, string) error { return nil }

type countingSweeper struct{ calls int }

func (s *countingSweeper) Sweep(context.Context) error {
	s.calls++
	return nil
}

func newTestService(t *testing.T, jobs store.JobStore, runner TaskRunner, jobRunner task.JobRunner, sweeper Sweeper) ImportService {
	t.Helper()
	svc, err := NewImportService(jobs, runner, jobRunner, sweeper, discardLogger())
	require.NoError(t, err)
	return svc
}

func TestNewImportService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewImportService(nil, &inlineRunner{}, noopJobRunner{}, nil, nil)
	var svcErr *ServiceError
	assert.ErrorAs(t, err, &svcErr)

	_, err = NewImportService(memory.NewJobStore(), nil, noopJobRunner{}, nil, nil)
	assert.Error(t, err)

	_, err = NewImportService(memory.NewJobStore(), &inlineRunner{}, nil, nil, nil)
	assert.ErrorIs(t, err, task.ErrNilJobRunner)
}

func TestSubmit_Validation(t *testing.T) {
	t.Parallel()

	jobs := memory.NewJobStore()
	svc := newTestService(t, jobs, &inlineRunner{}, noopJobRunner{}, nil)

	_, err := svc.Submit(context.Background(), SubmitRequest{Content: "  \n\t "})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = svc.Submit(context.Background(), SubmitRequest{Content: "1. question", Mode: "merge"})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)

	assert.Equal(t, 0, jobs.Len(), "rejected submissions must not create jobs")

	res, err := svc.Submit(context.Background(), SubmitRequest{Content: "1. question"})
	require.NoError(t, err)
	assert.Equal(t, domain.ImportModeAdd, res.Mode, "empty mode means add")
}

func TestSubmit_QueuesProcessingJob(t *testing.T) {
	t.Parallel()

	jobs := memory.NewJobStore()
	runner := &inlineRunner{}
	sweeper := &countingSweeper{}
	svc := newTestService(t, jobs, runner, noopJobRunner{}, sweeper)

	res, err := svc.Submit(context.Background(), SubmitRequest{Content: "1. question", Mode: "REPLACE"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.JobToken, domain.JobTokenPrefix))
	assert.Equal(t, domain.ImportModeReplace, res.Mode)
	assert.Equal(t, 1, sweeper.calls)

	require.Len(t, runner.submitted, 1)
	assert.Equal(t, res.JobToken, runner.submitted[0].ID())
	assert.Equal(t, task.TaskTypeQuestionImport, runner.submitted[0].Type())

	job, err := jobs.GetByToken(context.Background(), res.JobToken)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, job.Status)
}

func TestSubmit_QueueFullFailsJob(t *testing.T) {
	t.Parallel()

	jobs := memory.NewJobStore()
	runner := &inlineRunner{err: fmt.Errorf("failed to submit task: %w", task.ErrQueueFull)}
	svc := newTestService(t, jobs, runner, noopJobRunner{}, nil)

	_, err := svc.Submit(context.Background(), SubmitRequest{Content: "1. question"})
	assert.ErrorIs(t, err, ErrImportQueueFull)

	job, err := jobs.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, domain.MsgQueueFull, job.ErrorMessage)
	assert.NotNil(t, job.EndedAt)
}

func TestSubmit_ClosedRunner(t *testing.T) {
	t.Parallel()

	jobs := memory.NewJobStore()
	runner := &inlineRunner{err: task.ErrQueueClosed}
	svc := newTestService(t, jobs, runner, noopJobRunner{}, nil)

	_, err := svc.Submit(context.Background(), SubmitRequest{Content: "1. question"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestStatus_NotFound(t *testing.T) {
	t.Parallel()

	sweeper := &countingSweeper{}
	svc := newTestService(t, memory.NewJobStore(), &inlineRunner{}, noopJobRunner{}, sweeper)

	_, err := svc.Status(context.Background(), "imp_missing")
	assert.ErrorIs(t, err, ErrImportNotFound)
	assert.Equal(t, 1, sweeper.calls)

	_, err = svc.Status(context.Background(), " ")
	assert.ErrorIs(t, err, ErrImportNotFound)
}

func TestStatus_Processing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	jobs := memory.NewJobStore()
	svc := newTestService(t, jobs, &inlineRunner{}, noopJobRunner{}, nil)

	res, err := svc.Submit(ctx, SubmitRequest{Content: "1. question"})
	require.NoError(t, err)

	st, err := svc.Status(ctx, res.JobToken)
	require.NoError(t, err)
	assert.Equal(t, res.JobToken, st.ID)
	assert.Equal(t, domain.JobStatusProcessing, st.Status)
	assert.Equal(t, domain.ImportModeAdd, st.Mode)
	assert.Equal(t, "0.0", st.Progress.Percentage)
	assert.Equal(t, 0, st.ImportedCount)
	assert.Empty(t, st.Errors)
}

func TestBuildStatus(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(12500 * time.Millisecond)
	job := &domain.Job{
		Token:           "imp_abc",
		Mode:            domain.ImportModeAdd,
		Status:          domain.JobStatusCompleted,
		TotalChunks:     3,
		ProcessedChunks: 2,
		SuccessChunks:   1,
		FailedChunks:    1,
		StartedAt:       start,
		EndedAt:         &end,
	}
	items := []*domain.ChunkItem{
		domain.NewSuccessItem(1, domain.ChunkResult{ParsedCount: 5, InsertedCount: 4, DuplicateCount: 1, Attempts: 1}),
		domain.NewFailedItem(2, 3, errors.New("api error status 502")),
	}

	st := buildStatus(job, items, start.Add(time.Hour))
	assert.Equal(t, "66.7", st.Progress.Percentage)
	assert.Equal(t, "12.5", st.Duration)
	assert.Equal(t, 4, st.ImportedCount)
	assert.Equal(t, []string{"chunk 2 failed after 3 attempts: api error status 502"}, st.Errors)
}

func TestBuildStatus_ErrorsCappedAndFallback(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	job := &domain.Job{Token: "imp_abc", Mode: domain.ImportModeAdd, Status: domain.JobStatusFailed, StartedAt: start}

	var items []*domain.ChunkItem
	for i := 1; i <= 15; i++ {
		items = append(items, domain.NewFailedItem(i, 1, errors.New("boom")))
	}
	st := buildStatus(job, items, start)
	assert.Len(t, st.Errors, MaxStatusErrors)
	assert.Equal(t, "chunk 1 failed after 1 attempt: boom", st.Errors[0])

	job.ErrorMessage = domain.MsgNoValidChunk
	st = buildStatus(job, nil, start.Add(1500*time.Millisecond))
	assert.Equal(t, []string{domain.MsgNoValidChunk}, st.Errors)
	assert.Equal(t, "1.5", st.Duration)
}

func TestImportService_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	jobs := memory.NewJobStore()
	questions := memory.NewQuestionStore()
	settings := memory.NewSettingsStore()
	require.NoError(t, settings.SetInt(ctx, store.SettingImportBatchDelay, 0))

	completer := generation.CompleterFunc(func(context.Context, string, string) (string, error) {
		return "```json\n[{\"type\":\"short_answer\",\"text\":\"What is Go?\",\"answer\":\"A programming language\"}]\n```", nil
	})
	processor := ingest.NewProcessor(completer, questions, ingest.ProcessorConfig{MaxRetries: 0, BaseDelay: time.Millisecond}, discardLogger())
	janitor := ingest.NewJanitor(jobs, ingest.JanitorConfig{Timeout: 6 * time.Hour, Retention: 24 * time.Hour, MaxFinishedKeep: 200}, discardLogger())
	scheduler := ingest.NewScheduler(jobs, questions, settings, processor, janitor,
		ingest.SchedulerConfig{DefaultMaxConcurrent: 2, DefaultChunkSize: 1000}, discardLogger())

	svc := newTestService(t, jobs, &inlineRunner{}, scheduler, janitor)

	res, err := svc.Submit(ctx, SubmitRequest{Content: "1. What is Go?\nAnswer: A programming language"})
	require.NoError(t, err)

	st, err := svc.Status(ctx, res.JobToken)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, st.Status)
	assert.Equal(t, 1, st.Progress.Total)
	assert.Equal(t, 1, st.Progress.Successful)
	assert.Equal(t, "100.0", st.Progress.Percentage)
	assert.Equal(t, 1, st.ImportedCount)
	assert.Empty(t, st.Errors)
	assert.Len(t, questions.All(), 1)
}
