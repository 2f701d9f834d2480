package embed

import (
	"context"
	"fmt"
)

// TextPipeline embeds arbitrary-length text through one retrieval family:
// chunk, embed per chunk, mean-pool, normalize. Its outputs are always
// unit-norm.
type TextPipeline struct {
	embedder Embedder
	family   Family
}

func NewTextPipeline(embedder Embedder, family Family) *TextPipeline {
	return &TextPipeline{embedder: embedder, family: family}
}

func (p *TextPipeline) Family() Family {
	return p.family
}

// EmbedText returns one unit-norm vector for the whole input.
func (p *TextPipeline) EmbedText(ctx context.Context, text string) ([]float32, error) {
	chunks := ChunkText(text, p.family.Window, p.family.Stride)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := p.embedder.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk embedding failed: %w", err)
		}
		vectors = append(vectors, vec)
	}

	return Normalize(MeanPool(vectors)), nil
}
