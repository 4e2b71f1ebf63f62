package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/generation"
)

type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.resp, f.err
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:              "openai",
		APIKey:                "sk-test",
		MaxTokens:             4096,
		Temperature:           0.7,
		RequestTimeoutSeconds: 120,
	}
}

func newTestCompleter(m chatModel) *Completer {
	return newCompleter(slog.New(slog.NewTextHandler(io.Discard, nil)), testConfig(), m)
}

func TestNewCompleter(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.BaseURL = "http://localhost:9999/v1/"
	c, err := NewCompleter(slog.Default(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, c)

	cfg.APIKey = ""
	_, err = NewCompleter(slog.Default(), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestComplete_Success(t *testing.T) {
	t.Parallel()

	m := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "[]"}}}}
	out, err := newTestCompleter(m).Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	require.Len(t, m.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.messages[1].Role)
	assert.Equal(t, 4096, m.options.MaxTokens)
	assert.InDelta(t, 0.7, m.options.Temperature, 0.0001)
}

func TestComplete_EmptyResponses(t *testing.T) {
	t.Parallel()

	for _, resp := range []*llms.ContentResponse{
		nil,
		{},
		{Choices: []*llms.ContentChoice{{Content: "  "}}},
	} {
		_, err := newTestCompleter(&fakeModel{resp: resp}).Complete(context.Background(), "s", "u")
		assert.ErrorIs(t, err, generation.ErrEmptyCompletion)
		assert.False(t, generation.IsPermanent(err))
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		permanent  bool
	}{
		{"unauthorized", errors.New("API returned unexpected status code: 401: Incorrect API key provided"), 401, "Incorrect API key provided", true},
		{"rate limited", errors.New("API returned unexpected status code: 429: Rate limit reached"), 429, "Rate limit reached", false},
		{"bad gateway no body", errors.New("API returned unexpected status code: 502"), 502, "", false},
		{"unprocessable", errors.New("API returned unexpected status code: 422: bad"), 422, "bad", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := mapError(tc.err)
			var statusErr *generation.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tc.wantStatus, statusErr.StatusCode)
			assert.Equal(t, tc.wantMsg, statusErr.Message)
			assert.Equal(t, tc.permanent, generation.IsPermanent(err))
		})
	}

	err := mapError(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.False(t, generation.IsPermanent(err))

	assert.ErrorIs(t, mapError(context.DeadlineExceeded), context.DeadlineExceeded)
	assert.NoError(t, mapError(nil))
}

func TestComplete_MapsClientErrors(t *testing.T) {
	t.Parallel()

	m := &fakeModel{err: errors.New("API returned unexpected status code: 400: invalid request")}
	_, err := newTestCompleter(m).Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, generation.ErrUpstreamStatus)
	assert.True(t, generation.IsPermanent(err))
}
