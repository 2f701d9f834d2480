// Package llm binds the language-model providers behind one Provider
// interface and layers the session's prompting logic (query enhancement,
// summarization, final answer) on top in Manager.
package llm

import (
	"context"
	"fmt"

	"github.com/deepsage/deepsage/pkg/config"
)

// Provider generates one completion for a system/user prompt pair.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	ModelName() string
}

// NewProviderFromConfig builds the configured provider.
func NewProviderFromConfig(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
