// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyContent is returned when submitted import content is empty or blank.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidMode is returned when an import mode is not recognised.
	ErrInvalidMode = errors.New("invalid import mode")

	// ErrInvalidJobStatus is returned when a job status is not valid.
	ErrInvalidJobStatus = errors.New("invalid import job status")

	// ErrInvalidChunkStatus is returned when a chunk item status is not valid.
	ErrInvalidChunkStatus = errors.New("invalid chunk status")

	// ErrInvalidQuestion is returned when a question record is missing required fields.
	ErrInvalidQuestion = errors.New("invalid question")
)
