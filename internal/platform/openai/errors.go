package openai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/quizimport/internal/generation"
)

// statusPattern extracts the HTTP status the client embeds in its error
// text, e.g. "API returned unexpected status code: 429: Rate limit reached".
var statusPattern = regexp.MustCompile(`status code:?\s*(\d{3})(?::\s*(.*))?`)

// mapError translates a langchaingo client error into the generation taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return &generation.StatusError{StatusCode: code, Message: strings.TrimSpace(m[2])}
		}
	}
	return fmt.Errorf("%w: openai request failed: %v", generation.ErrTransientFailure, err)
}
