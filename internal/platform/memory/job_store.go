package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/store"
)

// JobStore is a mutex-guarded implementation of store.JobStore.
type JobStore struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*domain.Job
	items  map[int64][]*domain.ChunkItem
}

var _ store.JobStore = (*JobStore)(nil)

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:  make(map[int64]*domain.Job),
		items: make(map[int64][]*domain.ChunkItem),
	}
}

// Create implements store.JobStore.
func (s *JobStore) Create(_ context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.jobs {
		if existing.Token == job.Token {
			return fmt.Errorf("%w: job token", store.ErrDuplicate)
		}
	}
	s.nextID++
	job.ID = s.nextID
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// GetByID implements store.JobStore.
func (s *JobStore) GetByID(_ context.Context, id int64) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return cloneJob(job), nil
}

// GetByToken implements store.JobStore.
func (s *JobStore) GetByToken(_ context.Context, token string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.Token == token {
			return cloneJob(job), nil
		}
	}
	return nil, store.ErrJobNotFound
}

// SetTotalChunks implements store.JobStore.
func (s *JobStore) SetTotalChunks(_ context.Context, jobID int64, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return store.ErrJobNotFound
	}
	if job.Status != domain.JobStatusProcessing {
		return fmt.Errorf("%w: job is %s", store.ErrUpdateFailed, job.Status)
	}
	job.TotalChunks = total
	return nil
}

// RecordChunkOutcome implements store.JobStore.
func (s *JobStore) RecordChunkOutcome(_ context.Context, item *domain.ChunkItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[item.JobID]
	if !ok {
		return store.ErrJobNotFound
	}
	for _, existing := range s.items[item.JobID] {
		if existing.ChunkNo == item.ChunkNo {
			return store.ErrDuplicateChunk
		}
	}

	stored := *item
	if item.Result != nil {
		r := *item.Result
		stored.Result = &r
	}
	stored.ID = int64(len(s.items[item.JobID]) + 1)
	s.items[item.JobID] = append(s.items[item.JobID], &stored)
	item.ID = stored.ID

	job.ProcessedChunks++
	if item.Status == domain.ChunkStatusSuccess {
		job.SuccessChunks++
	} else {
		job.FailedChunks++
	}
	return nil
}

// ListItems implements store.JobStore.
func (s *JobStore) ListItems(_ context.Context, jobID int64) ([]*domain.ChunkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]*domain.ChunkItem, 0, len(s.items[jobID]))
	for _, it := range s.items[jobID] {
		c := *it
		items = append(items, &c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ChunkNo < items[j].ChunkNo })
	return items, nil
}

// Finish implements store.JobStore.
func (s *JobStore) Finish(_ context.Context, jobID int64, status domain.JobStatus, errMsg string, endedAt time.Time) (bool, error) {
	if status != domain.JobStatusCompleted && status != domain.JobStatusFailed {
		return false, domain.ErrInvalidJobStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return false, store.ErrJobNotFound
	}
	if job.Status != domain.JobStatusProcessing {
		return false, nil
	}
	finish(job, status, errMsg, endedAt)
	return true, nil
}

// FailStale implements store.JobStore.
func (s *JobStore) FailStale(_ context.Context, startedBefore time.Time, errMsg string, endedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, job := range s.jobs {
		if job.Status == domain.JobStatusProcessing && job.StartedAt.Before(startedBefore) {
			finish(job, domain.JobStatusFailed, errMsg, endedAt)
			n++
		}
	}
	return n, nil
}

// DeleteFinishedBefore implements store.JobStore.
func (s *JobStore) DeleteFinishedBefore(_ context.Context, endedBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, job := range s.jobs {
		if job.IsTerminal() && job.EndedAt != nil && job.EndedAt.Before(endedBefore) {
			s.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

// DeleteFinishedBeyond implements store.JobStore.
func (s *JobStore) DeleteFinishedBeyond(_ context.Context, keep int) (int64, error) {
	keep = max(keep, 0)
	s.mu.Lock()
	defer s.mu.Unlock()

	var finished []*domain.Job
	for _, job := range s.jobs {
		if job.IsTerminal() {
			finished = append(finished, job)
		}
	}
	if len(finished) <= keep {
		return 0, nil
	}
	sort.Slice(finished, func(i, j int) bool {
		a, b := endedAt(finished[i]), endedAt(finished[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return finished[i].ID > finished[j].ID
	})

	var n int64
	for _, job := range finished[keep:] {
		s.deleteLocked(job.ID)
		n++
	}
	return n, nil
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *JobStore) deleteLocked(id int64) {
	delete(s.jobs, id)
	delete(s.items, id)
}

func finish(job *domain.Job, status domain.JobStatus, errMsg string, endedAt time.Time) {
	t := endedAt.UTC()
	job.Status = status
	job.EndedAt = &t
	if errMsg != "" {
		job.ErrorMessage = domain.TruncateMessage(errMsg)
	}
}

func endedAt(job *domain.Job) time.Time {
	if job.EndedAt == nil {
		return time.Time{}
	}
	return *job.EndedAt
}

func cloneJob(job *domain.Job) *domain.Job {
	c := *job
	if job.EndedAt != nil {
		t := *job.EndedAt
		c.EndedAt = &t
	}
	return &c
}
