package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"healthmate-be/internal/entity"
	"healthmate-be/internal/repository/contract"
	"healthmate-be/pkg/embedding"
	"healthmate-be/pkg/store"
)

const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

// Gateway fronts the embedding index: it embeds text on the way in and on
// the way out, and delegates storage and nearest-neighbour search to the
// chunk repository. Embedding and index errors propagate; an empty result
// set does not.
type Gateway struct {
	embedder embedding.EmbeddingProvider
	repo     contract.DocumentChunkRepository
}

func NewGateway(embedder embedding.EmbeddingProvider, repo contract.DocumentChunkRepository) *Gateway {
	return &Gateway{embedder: embedder, repo: repo}
}

// AddDocuments embeds and persists texts. metadatas and ids are optional,
// but when provided their lengths must match texts. Missing ids are minted.
// Returns the ids actually stored, in input order.
func (g *Gateway) AddDocuments(ctx context.Context, texts []string, metadatas []store.ChunkMetadata, ids []string) ([]string, error) {
	if len(metadatas) > 0 && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("metadatas length %d does not match texts length %d", len(metadatas), len(texts))
	}
	if len(ids) > 0 && len(ids) != len(texts) {
		return nil, fmt.Errorf("ids length %d does not match texts length %d", len(ids), len(texts))
	}
	if len(texts) == 0 {
		return []string{}, nil
	}

	chunks := make([]*entity.DocumentChunk, 0, len(texts))
	assigned := make([]string, 0, len(texts))
	for i, text := range texts {
		resp, err := g.embedder.Generate(text, taskTypeDocument)
		if err != nil {
			return nil, fmt.Errorf("failed to embed document %d: %w", i, err)
		}

		chunkId := ""
		if len(ids) > 0 {
			chunkId = ids[i]
		}
		if chunkId == "" {
			chunkId = uuid.NewString()
		}

		var meta store.ChunkMetadata
		if len(metadatas) > 0 {
			meta = metadatas[i]
		}

		chunks = append(chunks, &entity.DocumentChunk{
			Id:             uuid.New(),
			ChunkId:        chunkId,
			Document:       text,
			EmbeddingValue: resp.Embedding.Values,
			Metadata:       meta,
		})
		assigned = append(assigned, chunkId)
	}

	if err := g.repo.CreateBulk(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to store document chunks: %w", err)
	}
	return assigned, nil
}

// SimilaritySearchWithScore returns the k nearest chunks as passages paired
// with their raw L2 distance. source narrows the search when non-empty.
func (g *Gateway) SimilaritySearchWithScore(ctx context.Context, query string, k int, source string) ([]store.ScoredPassage, error) {
	resp, err := g.embedder.Generate(query, taskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := g.repo.SearchSimilarWithDistance(ctx, resp.Embedding.Values, k, source)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	results := make([]store.ScoredPassage, 0, len(scored))
	for _, sc := range scored {
		results = append(results, store.ScoredPassage{
			Passage: store.Passage{
				Content:  sc.Chunk.Document,
				Metadata: sc.Chunk.Metadata,
			},
			Distance: sc.Distance,
		})
	}
	return results, nil
}

// SimilaritySearch is SimilaritySearchWithScore with distances dropped.
func (g *Gateway) SimilaritySearch(ctx context.Context, query string, k int, source string) ([]store.Passage, error) {
	scored, err := g.SimilaritySearchWithScore(ctx, query, k, source)
	if err != nil {
		return nil, err
	}
	passages := make([]store.Passage, 0, len(scored))
	for _, sp := range scored {
		passages = append(passages, sp.Passage)
	}
	return passages, nil
}

// DeleteSource removes every chunk ingested from the given source document.
func (g *Gateway) DeleteSource(ctx context.Context, source string) error {
	if err := g.repo.DeleteBySource(ctx, source); err != nil {
		return fmt.Errorf("failed to delete source %q: %w", source, err)
	}
	return nil
}

// Count reports the number of chunks in the index.
func (g *Gateway) Count(ctx context.Context) (int64, error) {
	return g.repo.Count(ctx)
}

// ListSources reports the distinct source documents currently indexed.
func (g *Gateway) ListSources(ctx context.Context) ([]string, error) {
	return g.repo.ListSources(ctx)
}
