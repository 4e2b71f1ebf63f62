package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/generation"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// contentGenerator is the subset of *genai.Models used by the completer.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Completer implements generation.Completer using the Gemini API.
type Completer struct {
	logger *slog.Logger
	config config.LLMConfig
	models contentGenerator
	model  string
}

var _ generation.Completer = (*Completer)(nil)

// NewCompleter creates a Gemini-backed completer.
func NewCompleter(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Completer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}
	return newCompleter(logger, cfg, client.Models), nil
}

func newCompleter(logger *slog.Logger, cfg config.LLMConfig, models contentGenerator) *Completer {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Completer{
		logger: logger.With("component", "gemini_completer", "model", model),
		config: cfg,
		models: models,
		model:  model,
	}
}

// Complete sends one system+user exchange and returns the reply text.
func (c *Completer) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if timeout := c.config.RequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       genai.Ptr(float32(c.config.Temperature)),
		MaxOutputTokens:   int32(c.config.MaxTokens),
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: userPrompt}}}}

	c.logger.DebugContext(ctx, "calling gemini", "prompt_length", len(userPrompt))
	resp, err := c.models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		mapped := mapError(err)
		c.logger.WarnContext(ctx, "gemini call failed", "error", mapped)
		return "", mapped
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", generation.ErrEmptyCompletion
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", generation.ErrEmptyCompletion
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", generation.ErrEmptyCompletion
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", generation.ErrEmptyCompletion
	}
	return b.String(), nil
}
