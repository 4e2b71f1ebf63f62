package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/quizimport/internal/api/shared"
	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/platform/logger"
	"github.com/phrazzld/quizimport/internal/service"
	"github.com/phrazzld/quizimport/internal/service/auth"
	"github.com/phrazzld/quizimport/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrImportNotFound),
		errors.Is(err, store.ErrJobNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Capacity errors
	case errors.Is(err, service.ErrImportQueueFull),
		errors.Is(err, service.ErrServiceUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization header required"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, service.ErrImportNotFound),
		errors.Is(err, store.ErrJobNotFound):
		return "Import job not found"

	case errors.Is(err, domain.ErrEmptyContent):
		return "Content is required"

	case errors.Is(err, domain.ErrInvalidMode):
		return "Mode must be add or replace"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation error"

	case errors.Is(err, service.ErrImportQueueFull):
		return "Import queue is full, try again later"

	case errors.Is(err, service.ErrServiceUnavailable):
		return "Import service is unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status code and safe message for err. A non-empty
// message replaces the default safe message for 4xx responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	userMessage := GetSafeErrorMessage(err)
	if message != "" && status < http.StatusInternalServerError {
		userMessage = message
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'ImportRequest.Mode' Error:Field validation for 'Mode' failed on the 'oneof' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// requestLogger returns the request-scoped logger, falling back to def.
func requestLogger(r *http.Request, def *slog.Logger) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), def)
}
