package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/quizimport/internal/chunker"
	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/redact"
	"github.com/phrazzld/quizimport/internal/store"
)

// SchedulerConfig holds the fallbacks used when runtime settings are absent.
type SchedulerConfig struct {
	DefaultMaxConcurrent int
	DefaultBatchDelay    time.Duration
	DefaultChunkSize     int
}

// Scheduler drives one import job from raw content to a terminal status.
type Scheduler struct {
	jobs      store.JobStore
	questions store.QuestionStore
	settings  store.SettingsStore
	processor *Processor
	janitor   *Janitor
	cfg       SchedulerConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduler creates a Scheduler. janitor may be nil.
func NewScheduler(
	jobs store.JobStore,
	questions store.QuestionStore,
	settings store.SettingsStore,
	processor *Processor,
	janitor *Janitor,
	cfg SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:      jobs,
		questions: questions,
		settings:  settings,
		processor: processor,
		janitor:   janitor,
		cfg:       cfg,
		logger:    logger.With("component", "import_scheduler"),
		now:       time.Now,
	}
}

type tuning struct {
	maxConcurrent int
	batchDelay    time.Duration
	chunkSize     int
}

// Run processes job to completion. Any error before finalisation, including
// a panic, fails the job with the error's message. The janitor runs
// afterwards regardless of the outcome. The returned error reports why the
// job failed to run; a job whose chunks all failed is not an error here.
func (s *Scheduler) Run(ctx context.Context, job *domain.Job, content, bankID string) (err error) {
	log := s.logger.With("job_token", job.Token, "mode", job.Mode)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import job panicked: %v", r)
			log.Error("import job panicked", "panic", r)
		}
		if err != nil {
			s.fail(ctx, job, err.Error(), log)
		}
		if s.janitor != nil {
			_ = s.janitor.Sweep(context.WithoutCancel(ctx))
		}
	}()

	return s.run(ctx, job, content, bankID, log)
}

func (s *Scheduler) run(ctx context.Context, job *domain.Job, content, bankID string, log *slog.Logger) error {
	if job.Mode == domain.ImportModeReplace {
		if err := s.questions.PurgeAll(ctx); err != nil {
			return fmt.Errorf("failed to purge questions: %w", err)
		}
		log.Info("existing questions purged")
	}

	t := s.tuning(ctx, log)
	chunks := chunker.Split(content, t.chunkSize)
	if len(chunks) == 0 {
		return errors.New(domain.MsgNoValidChunk)
	}
	if err := s.jobs.SetTotalChunks(ctx, job.ID, len(chunks)); err != nil {
		return fmt.Errorf("failed to set total chunks: %w", err)
	}
	log.Info("import job started",
		"total_chunks", len(chunks),
		"max_concurrent", t.maxConcurrent,
		"chunk_size", t.chunkSize)

	for start := 0; start < len(chunks); start += t.maxConcurrent {
		end := min(start+t.maxConcurrent, len(chunks))

		var g errgroup.Group
		for i := start; i < end; i++ {
			chunkNo, chunk := i+1, chunks[i]
			g.Go(func() error {
				return s.processChunk(ctx, job, chunkNo, chunk, bankID)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if end < len(chunks) && t.batchDelay > 0 {
			if err := sleepContext(ctx, t.batchDelay); err != nil {
				return err
			}
		}
	}

	return s.finalize(ctx, job, log)
}

// processChunk runs one chunk and records its outcome. A panic while
// processing is recorded as a failed chunk.
func (s *Scheduler) processChunk(ctx context.Context, job *domain.Job, chunkNo int, chunk, bankID string) error {
	item := func() (item *domain.ChunkItem) {
		defer func() {
			if r := recover(); r != nil {
				item = domain.NewFailedItem(chunkNo, 1, fmt.Errorf("chunk task panicked: %v", r))
			}
		}()
		_, item = s.processor.Process(ctx, chunkNo, chunk, bankID)
		return item
	}()

	item.JobID = job.ID
	if err := s.jobs.RecordChunkOutcome(ctx, item); err != nil {
		return fmt.Errorf("failed to record outcome of chunk %d: %w", chunkNo, err)
	}
	return nil
}

func (s *Scheduler) finalize(ctx context.Context, job *domain.Job, log *slog.Logger) error {
	current, err := s.jobs.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to reload job: %w", err)
	}

	status, msg := current.FinalStatus()
	ok, err := s.jobs.Finish(ctx, job.ID, status, msg, s.now())
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	if !ok {
		log.Warn("import job was already finished", "status", current.Status)
		return nil
	}

	log.Info("import job finished",
		"status", status,
		"total_chunks", current.TotalChunks,
		"success_chunks", current.SuccessChunks,
		"failed_chunks", current.FailedChunks)
	return nil
}

func (s *Scheduler) fail(ctx context.Context, job *domain.Job, msg string, log *slog.Logger) {
	msg = domain.TruncateMessage(redact.Secrets(msg))
	ok, err := s.jobs.Finish(context.WithoutCancel(ctx), job.ID, domain.JobStatusFailed, msg, s.now())
	if err != nil {
		log.Error("failed to mark import job failed", "error", err, "reason", msg)
		return
	}
	if ok {
		log.Error("import job failed", "reason", msg)
	}
}

// tuning reads the runtime settings, falling back to the configured defaults
// when a setting cannot be read.
func (s *Scheduler) tuning(ctx context.Context, log *slog.Logger) tuning {
	read := func(key string, fallback int) int {
		v, err := s.settings.GetInt(ctx, key, fallback)
		if err != nil {
			log.Warn("failed to read setting, using default", "key", key, "error", err)
			return fallback
		}
		return v
	}

	delaySeconds := read(store.SettingImportBatchDelay, int(s.cfg.DefaultBatchDelay/time.Second))
	return tuning{
		maxConcurrent: max(read(store.SettingImportMaxConcurrent, s.cfg.DefaultMaxConcurrent), 1),
		batchDelay:    time.Duration(max(delaySeconds, 0)) * time.Second,
		chunkSize:     chunker.ClampTargetSize(read(store.SettingImportChunkSize, s.cfg.DefaultChunkSize)),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
