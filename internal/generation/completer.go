package generation

import (
	"context"
	"fmt"
)

// Completer sends a system prompt and a user prompt to a chat-completion
// service and returns the text of the first completion.
//
// Model selection, credentials, token limits and temperature are bound when a
// completer is constructed. Implementations must return ErrEmptyCompletion
// when the response has no content, a *StatusError for non-2xx responses and
// ErrInvalidConfig (or a wrapping error) for missing configuration, so that
// callers can decide whether a retry is worthwhile via IsPermanent.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CompleterFunc adapts an ordinary function to the Completer interface.
type CompleterFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

// Unconfigured returns a Completer whose every call fails permanently with
// ErrInvalidConfig and reason. It lets the service start without credentials
// while making each import fail fast with a readable error.
func Unconfigured(reason string) Completer {
	return CompleterFunc(func(context.Context, string, string) (string, error) {
		return "", fmt.Errorf("%w: %s", ErrInvalidConfig, reason)
	})
}
