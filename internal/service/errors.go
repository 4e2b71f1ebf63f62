package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/quizimport/internal/store"
	"github.com/phrazzld/quizimport/internal/task"
)

// Sentinel errors returned by ImportService. The API layer maps them to
// HTTP status codes.
var (
	// ErrImportNotFound indicates no job exists for the requested token.
	// API layer should map this to HTTP 404 Not Found.
	ErrImportNotFound = errors.New("import job not found")

	// ErrImportQueueFull indicates the background queue had no room for the job.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrImportQueueFull = errors.New("import queue is full")

	// ErrServiceUnavailable indicates the background runner has shut down.
	ErrServiceUnavailable = errors.New("import service is shutting down")
)

// ServiceError wraps errors from a service operation with context.
type ServiceError struct {
	// Service is the service that failed (e.g. "import")
	Service string
	// Op is the operation that failed (e.g. "submit", "status")
	Op string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError. Known conditions are translated to
// this package's sentinel errors and returned without wrapping.
func NewServiceError(service, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrImportNotFound), errors.Is(err, store.ErrJobNotFound):
		return ErrImportNotFound
	case errors.Is(err, ErrImportQueueFull), errors.Is(err, task.ErrQueueFull):
		return ErrImportQueueFull
	case errors.Is(err, ErrServiceUnavailable), errors.Is(err, task.ErrQueueClosed):
		return ErrServiceUnavailable
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}
