package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/phrazzld/quizimport/internal/generation"
)

// mapError translates a genai client error into the generation taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusError(*apiErrPtr)
	}

	return fmt.Errorf("%w: gemini request failed: %v", generation.ErrTransientFailure, err)
}

func statusError(apiErr genai.APIError) error {
	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Status
	}
	return &generation.StatusError{StatusCode: apiErr.Code, Message: msg}
}
