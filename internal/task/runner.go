package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// TaskRunner accepts tasks and executes them on a worker pool.
type TaskRunner struct {
	queue    *TaskQueue
	pool     *WorkerPool
	logger   *slog.Logger
	stopOnce sync.Once
}

// NewTaskRunner creates a new TaskRunner. Call Start before submitting work.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	logger = logger.With("component", "task_runner")
	queue := NewTaskQueue(config.QueueSize, logger)
	return &TaskRunner{
		queue:  queue,
		pool:   NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger),
		logger: logger,
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Submit adds a task to the queue without blocking. It fails with
// ErrQueueFull when the queue has no room and ErrQueueClosed after Stop.
func (r *TaskRunner) Submit(_ context.Context, task Task) error {
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to submit task %s: %w", task.ID(), err)
	}
	return nil
}

// Start begins processing tasks.
func (r *TaskRunner) Start() error {
	r.pool.Start()
	return nil
}

// Stop cancels running tasks, waits for the workers to return and closes the
// queue. Tasks that never started are discarded.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		r.pool.Stop()
		r.queue.Close()

		discarded := 0
		for task := range r.queue.GetChannel() {
			if d, ok := task.(Discarder); ok {
				d.Discard(context.Background(), "server shutting down")
			}
			discarded++
		}
		if discarded > 0 {
			r.logger.Warn("discarded queued tasks on shutdown", "count", discarded)
		}
	})
}
