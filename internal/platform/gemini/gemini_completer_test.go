package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/generation"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:              "gemini",
		APIKey:                "test-key",
		MaxTokens:             2048,
		Temperature:           0.5,
		RequestTimeoutSeconds: 5,
	}
}

func textResponse(text string, reason genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: reason,
		}},
	}
}

func newTestCompleter(models contentGenerator) *Completer {
	return newCompleter(slog.New(slog.NewTextHandler(io.Discard, nil)), testConfig(), models)
}

func TestNewCompleter_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.APIKey = ""
	_, err := NewCompleter(context.Background(), slog.Default(), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	assert.True(t, generation.IsPermanent(err))

	_, err = NewCompleter(context.Background(), nil, testConfig())
	assert.Error(t, err)
}

func TestComplete_Success(t *testing.T) {
	t.Parallel()

	models := &fakeModels{resp: textResponse(`[{"text":"q","answer":"a"}]`, genai.FinishReasonStop)}
	c := newTestCompleter(models)

	out, err := c.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, `[{"text":"q","answer":"a"}]`, out)

	assert.Equal(t, DefaultModel, models.model)
	require.Len(t, models.contents, 1)
	assert.Equal(t, "user", models.contents[0].Parts[0].Text)
	assert.Equal(t, "system", models.config.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.5, float64(*models.config.Temperature), 0.0001)
}

func TestComplete_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		resp      *genai.GenerateContentResponse
		err       error
		wantErr   error
		permanent bool
	}{
		{"api 429", nil, genai.APIError{Code: 429, Message: "quota"}, generation.ErrUpstreamStatus, false},
		{"api 401", nil, genai.APIError{Code: 401, Message: "bad key"}, generation.ErrUpstreamStatus, true},
		{"api 503", nil, genai.APIError{Code: 503, Status: "UNAVAILABLE"}, generation.ErrUpstreamStatus, false},
		{"network", nil, errors.New("connection reset"), generation.ErrTransientFailure, false},
		{"deadline", nil, context.DeadlineExceeded, context.DeadlineExceeded, false},
		{"nil response", nil, nil, generation.ErrEmptyCompletion, false},
		{"no candidates", &genai.GenerateContentResponse{}, nil, generation.ErrEmptyCompletion, false},
		{"blank text", textResponse("  ", genai.FinishReasonStop), nil, generation.ErrEmptyCompletion, false},
		{"safety", textResponse("", genai.FinishReasonSafety), nil, generation.ErrContentBlocked, true},
		{
			"prompt blocked",
			&genai.GenerateContentResponse{PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: "SAFETY"}},
			nil, generation.ErrContentBlocked, true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestCompleter(&fakeModels{resp: tc.resp, err: tc.err})
			_, err := c.Complete(context.Background(), "system", "user")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.permanent, generation.IsPermanent(err))
		})
	}
}

func TestMapError_StatusCode(t *testing.T) {
	t.Parallel()

	err := mapError(genai.APIError{Code: 500, Message: "internal"})
	var statusErr *generation.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.StatusCode)
	assert.Equal(t, "api error status 500: internal", err.Error())

	assert.NoError(t, mapError(nil))
}

func TestComplete_AppliesTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	models := contentGeneratorFunc(func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		deadline, _ = ctx.Deadline()
		return textResponse("ok", genai.FinishReasonStop), nil
	})
	c := newTestCompleter(models)
	_, err := c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.False(t, deadline.IsZero())
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, 2*time.Second)
}

type contentGeneratorFunc func(ctx context.Context) (*genai.GenerateContentResponse, error)

func (f contentGeneratorFunc) GenerateContent(
	ctx context.Context,
	_ string,
	_ []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	return f(ctx)
}
