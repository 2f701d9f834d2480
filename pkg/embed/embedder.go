// Package embed produces unit-norm text embeddings. Long inputs are split
// into overlapping windows sized per retrieval family, embedded chunk by
// chunk, mean-pooled, and re-normalized so every vector lives on the unit
// sphere.
package embed

import (
	"context"
	"fmt"

	"github.com/deepsage/deepsage/pkg/config"
)

// Embedder is a single-vector text embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	Dimension() int

	ModelName() string
}

// NewFromConfig builds the configured embedding provider.
func NewFromConfig(cfg config.EmbedderConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg)
	case "ollama":
		return NewOllamaEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.Provider)
	}
}
