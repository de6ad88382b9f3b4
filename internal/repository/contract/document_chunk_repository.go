package contract

import (
	"context"

	"healthmate-be/internal/entity"
)

// ScoredChunk pairs a chunk with its raw L2 distance from the query vector.
type ScoredChunk struct {
	Chunk    *entity.DocumentChunk
	Distance float64
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteBySource(ctx context.Context, source string) error
	Count(ctx context.Context) (int64, error)
	ListSources(ctx context.Context) ([]string, error)

	// SearchSimilarWithDistance orders by L2 distance ascending and returns
	// the raw distance alongside each chunk. source narrows the search to a
	// single document when non-empty.
	SearchSimilarWithDistance(ctx context.Context, embedding []float32, limit int, source string) ([]*ScoredChunk, error)
}
