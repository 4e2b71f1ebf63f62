package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/store"
)

// JanitorConfig holds the janitor's time and size bounds.
type JanitorConfig struct {
	// Timeout fails jobs that have been processing for longer than this.
	Timeout time.Duration
	// Retention deletes finished jobs that ended longer ago than this.
	Retention time.Duration
	// MaxFinishedKeep caps the number of finished jobs kept.
	MaxFinishedKeep int
}

// Janitor reclaims stuck jobs and removes old finished ones. Sweeps are
// serialized and idempotent.
type Janitor struct {
	jobs   store.JobStore
	cfg    JanitorConfig
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewJanitor creates a Janitor.
func NewJanitor(jobs store.JobStore, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		jobs:   jobs,
		cfg:    cfg,
		logger: logger.With("component", "import_janitor"),
		now:    time.Now,
	}
}

// Sweep runs the three cleanup passes in order: stale processing jobs are
// failed with a timeout message, finished jobs past retention are deleted,
// and finished jobs beyond the keep limit are deleted oldest first. A failing
// pass does not stop the following ones; their errors are joined.
func (j *Janitor) Sweep(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().UTC()
	var errs []error

	timedOut, err := j.jobs.FailStale(ctx, now.Add(-j.cfg.Timeout), domain.MsgJobTimeout, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to reclaim stale jobs: %w", err))
	}

	expired, err := j.jobs.DeleteFinishedBefore(ctx, now.Add(-j.cfg.Retention))
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to delete expired jobs: %w", err))
	}

	evicted, err := j.jobs.DeleteFinishedBeyond(ctx, j.cfg.MaxFinishedKeep)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to evict finished jobs: %w", err))
	}

	if timedOut+expired+evicted > 0 {
		j.logger.Info("janitor sweep",
			"timed_out", timedOut,
			"expired", expired,
			"evicted", evicted)
	}

	if err := errors.Join(errs...); err != nil {
		j.logger.Error("janitor sweep incomplete", "error", err)
		return err
	}
	return nil
}

// Schedule runs Sweep on a cron schedule such as "@every 10m" and returns the
// started cron instance. Stop it with Stop.
func (j *Janitor) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		// errors are already logged by Sweep
		_ = j.Sweep(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", spec, err)
	}
	c.Start()
	j.logger.Info("janitor scheduled", "schedule", spec)
	return c, nil
}
