package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/platform/memory"
	"github.com/phrazzld/quizimport/internal/store"
)

func newTestJanitor(jobs store.JobStore, now time.Time) *Janitor {
	j := NewJanitor(jobs, JanitorConfig{Timeout: 6 * time.Hour, Retention: 24 * time.Hour, MaxFinishedKeep: 10}, discardLogger())
	j.now = func() time.Time { return now }
	return j
}

func seedJob(t *testing.T, jobs *memory.JobStore, startedAt time.Time, endedAt *time.Time) *domain.Job {
	t.Helper()
	ctx := context.Background()
	job := domain.NewJob(domain.ImportModeAdd)
	job.StartedAt = startedAt
	require.NoError(t, jobs.Create(ctx, job))
	if endedAt != nil {
		_, err := jobs.Finish(ctx, job.ID, domain.JobStatusCompleted, "", *endedAt)
		require.NoError(t, err)
	}
	return job
}

func TestJanitor_TimesOutStaleJobs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	jobs := memory.NewJobStore()

	stale := seedJob(t, jobs, now.Add(-10*time.Hour), nil)
	fresh := seedJob(t, jobs, now.Add(-time.Hour), nil)

	require.NoError(t, newTestJanitor(jobs, now).Sweep(ctx))

	got, err := jobs.GetByToken(ctx, stale.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, domain.MsgJobTimeout, got.ErrorMessage)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.EndedAt.Equal(now))

	got, err = jobs.GetByToken(ctx, fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, got.Status)
}

func TestJanitor_DeletesExpiredAndOverflow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	jobs := memory.NewJobStore()

	expiredEnd := now.Add(-25 * time.Hour)
	expired := seedJob(t, jobs, expiredEnd.Add(-time.Minute), &expiredEnd)

	var recent []*domain.Job
	for i := 0; i < 12; i++ {
		end := now.Add(-time.Duration(i+1) * time.Minute)
		recent = append(recent, seedJob(t, jobs, end.Add(-time.Minute), &end))
	}
	running := seedJob(t, jobs, now.Add(-time.Minute), nil)

	require.NoError(t, newTestJanitor(jobs, now).Sweep(ctx))

	_, err := jobs.GetByID(ctx, expired.ID)
	assert.ErrorIs(t, err, store.ErrJobNotFound)
	for i, job := range recent {
		_, err := jobs.GetByID(ctx, job.ID)
		if i < 10 {
			assert.NoError(t, err, "job %d should be kept", i)
		} else {
			assert.ErrorIs(t, err, store.ErrJobNotFound, "job %d should be evicted", i)
		}
	}
	_, err = jobs.GetByID(ctx, running.ID)
	assert.NoError(t, err)
}

func TestJanitor_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	jobs := memory.NewJobStore()
	seedJob(t, jobs, now.Add(-10*time.Hour), nil)
	for i := 0; i < 15; i++ {
		end := now.Add(-time.Duration(i) * time.Hour)
		seedJob(t, jobs, end.Add(-time.Minute), &end)
	}
	j := newTestJanitor(jobs, now)

	require.NoError(t, j.Sweep(ctx))
	after := jobs.Len()
	require.NoError(t, j.Sweep(ctx))

	assert.Equal(t, after, jobs.Len())
	assert.Equal(t, 10, after)
}

type brokenJobStore struct {
	*memory.JobStore
	calls []string
}

func (s *brokenJobStore) FailStale(context.Context, time.Time, string, time.Time) (int64, error) {
	s.calls = append(s.calls, "stale")
	return 0, errors.New("db down")
}

func (s *brokenJobStore) DeleteFinishedBefore(ctx context.Context, t time.Time) (int64, error) {
	s.calls = append(s.calls, "expired")
	return s.JobStore.DeleteFinishedBefore(ctx, t)
}

func (s *brokenJobStore) DeleteFinishedBeyond(ctx context.Context, keep int) (int64, error) {
	s.calls = append(s.calls, "overflow")
	return s.JobStore.DeleteFinishedBeyond(ctx, keep)
}

func TestJanitor_FailingPassDoesNotStopOthers(t *testing.T) {
	t.Parallel()
	jobs := &brokenJobStore{JobStore: memory.NewJobStore()}

	err := newTestJanitor(jobs, time.Now()).Sweep(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, []string{"stale", "expired", "overflow"}, jobs.calls)
}

func TestJanitor_Schedule(t *testing.T) {
	t.Parallel()
	j := newTestJanitor(memory.NewJobStore(), time.Now())

	_, err := j.Schedule("not a schedule")
	assert.Error(t, err)

	c, err := j.Schedule("@every 1h")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
