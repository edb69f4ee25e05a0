package llm

import (
	"context"
	"fmt"

	"fuelplanner/internal/config"
	"fuelplanner/internal/shared"
)

// systemPrompt frames every request; providers without a system role prepend it.
const systemPrompt = "You are a concise endurance sports nutrition coach. Answer in plain text."

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// New returns the generator for the configured provider.
func New(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		return NewGroqClient(cfg), nil
	case config.ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
