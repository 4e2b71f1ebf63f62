package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by completers.
var (
	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrEmptyCompletion is returned when the response carries no message content
	ErrEmptyCompletion = errors.New("api response has no message content")

	// ErrContentBlocked is returned when the model refuses the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during completion")

	// ErrInvalidConfig is returned when the completer configuration is invalid
	ErrInvalidConfig = errors.New("invalid completer configuration")

	// ErrUpstreamStatus is matched by every *StatusError
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
)

// StatusError is a non-2xx response from the completion endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error status %d: %s", e.StatusCode, e.Message)
}

// Unwrap allows errors.Is(err, ErrUpstreamStatus).
func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

// Permanent reports whether the status cannot change on retry, i.e. the
// request itself or its credentials are wrong.
func (e *StatusError) Permanent() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusMethodNotAllowed,
		http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

// permanentError tags an error as not worth retrying.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that IsPermanent reports true for it and anything
// wrapping it. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether retrying err is pointless. Errors are retryable
// unless explicitly tagged, caused by configuration, blocked by the model's
// safety filters, or a StatusError whose code indicates a caller defect.
// Context cancellation is permanent: the run is shutting down.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return true
	}
	if errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrContentBlocked) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Permanent()
	}
	return false
}
