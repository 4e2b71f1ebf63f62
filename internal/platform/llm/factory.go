// Package llm selects the completion provider named in configuration.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/quizimport/internal/config"
	"github.com/phrazzld/quizimport/internal/generation"
	"github.com/phrazzld/quizimport/internal/platform/gemini"
	"github.com/phrazzld/quizimport/internal/platform/openai"
)

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// NewCompleter builds the completer for cfg.Provider. A missing API key does
// not fail startup: the returned completer fails every call permanently with
// generation.ErrInvalidConfig instead.
func NewCompleter(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (generation.Completer, error) {
	if cfg.APIKey == "" {
		logger.WarnContext(ctx, "llm api key is not configured; imports will fail", "provider", cfg.Provider)
		return generation.Unconfigured("llm.api_key is not set"), nil
	}

	switch cfg.Provider {
	case ProviderGemini:
		return gemini.NewCompleter(ctx, logger, cfg)
	case ProviderOpenAI, "":
		return openai.NewCompleter(logger, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", generation.ErrInvalidConfig, cfg.Provider)
	}
}
