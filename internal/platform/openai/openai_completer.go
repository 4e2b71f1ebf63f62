package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/generation"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// chatModel is the subset of llms.Model used by the completer.
type chatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Completer implements generation.Completer against an OpenAI-compatible API.
type Completer struct {
	logger *slog.Logger
	config config.LLMConfig
	llm    chatModel
}

var _ generation.Completer = (*Completer)(nil)

// NewCompleter creates an OpenAI-compatible completer.
func NewCompleter(logger *slog.Logger, cfg config.LLMConfig) (*Completer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create openai client: %v", generation.ErrInvalidConfig, err)
	}
	return newCompleter(logger.With("model", model), cfg, client), nil
}

func newCompleter(logger *slog.Logger, cfg config.LLMConfig, llm chatModel) *Completer {
	return &Completer{
		logger: logger.With("component", "openai_completer"),
		config: cfg,
		llm:    llm,
	}
}

// Complete sends one system+user exchange and returns the first choice's text.
func (c *Completer) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if timeout := c.config.RequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	c.logger.DebugContext(ctx, "calling chat completion", "prompt_length", len(userPrompt))
	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
	)
	if err != nil {
		mapped := mapError(err)
		c.logger.WarnContext(ctx, "chat completion failed", "error", mapped)
		return "", mapped
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", generation.ErrEmptyCompletion
	}
	content := resp.Choices[0].Content
	if strings.TrimSpace(content) == "" {
		return "", generation.ErrEmptyCompletion
	}
	return content, nil
}
