package embedding

import (
	"context"
	"strings"
)

// Embedder turns free text into a vector. Blank text yields a zero-length
// vector without touching the provider, which callers treat as "skip
// retrieval".
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type queryEmbedder struct {
	provider EmbeddingProvider
	taskType string
}

// NewEmbedder wraps provider for query-side embedding.
func NewEmbedder(provider EmbeddingProvider) Embedder {
	return &queryEmbedder{provider: provider, taskType: TaskRetrievalQuery}
}

// NewDocumentEmbedder wraps provider for ingestion-side embedding.
func NewDocumentEmbedder(provider EmbeddingProvider) Embedder {
	return &queryEmbedder{provider: provider, taskType: TaskRetrievalDocument}
}

func (e *queryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return []float32{}, nil
	}

	res, err := e.provider.Generate(ctx, text, e.taskType)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return []float32{}, nil
	}
	return res.Embedding.Values, nil
}
