// Package task manages background work queuing and execution. Import jobs
// are submitted as tasks so that HTTP request handling never waits for the
// completion service; a fixed pool of workers drains a bounded queue.
package task
