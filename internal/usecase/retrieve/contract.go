package retrieve

import (
	"context"

	"github.com/sashaklochko/statista-context/internal/domain"
	"github.com/sashaklochko/statista-context/internal/domain/search/result"
)

// IndexSearcher defines the index store contract for retrieval.
type IndexSearcher interface {
	Lexical(ctx context.Context, query string, topK int) ([]result.Hit, error)
	Vector(ctx context.Context, vector []float32, topK int) ([]result.Hit, error)
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
