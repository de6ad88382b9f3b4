package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"healthmate-be/internal/entity"
	"healthmate-be/internal/model"
	"healthmate-be/internal/repository/implementation"
	"healthmate-be/pkg/database"
	"healthmate-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the pgvector-backed chunk repository against a real database.
// Skipped unless DB_CONNECTION_STRING is set.
func TestDocumentChunkRepository(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error)
	require.NoError(t, db.AutoMigrate(&model.DocumentChunk{}))

	repo := implementation.NewDocumentChunkRepository(db)
	ctx := context.Background()
	source := fmt.Sprintf("it-%s.md", uuid.NewString()[:8])
	t.Cleanup(func() { _ = repo.DeleteBySource(ctx, source) })

	vec := func(x float32) []float32 {
		v := make([]float32, 768)
		v[0] = x
		return v
	}

	chunks := []*entity.DocumentChunk{
		{
			Id:             uuid.New(),
			ChunkId:        source + "_chunk_0",
			Document:       "cool the burn under running water",
			EmbeddingValue: vec(1),
			Metadata:       store.ChunkMetadata{Source: source, ChunkIndex: 0, TotalChunks: 2},
		},
		{
			Id:             uuid.New(),
			ChunkId:        source + "_chunk_1",
			Document:       "cover with a sterile dressing",
			EmbeddingValue: vec(5),
			Metadata:       store.ChunkMetadata{Source: source, ChunkIndex: 1, TotalChunks: 2},
		},
	}
	require.NoError(t, repo.CreateBulk(ctx, chunks))

	// upsert on chunk_id: re-inserting must not duplicate
	require.NoError(t, repo.CreateBulk(ctx, chunks[:1]))

	results, err := repo.SearchSimilarWithDistance(ctx, vec(1), 10, source)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// nearest first, with its distance
	assert.Equal(t, source+"_chunk_0", results[0].Chunk.ChunkId)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-6)
	assert.Greater(t, results[1].Distance, results[0].Distance)
	assert.Equal(t, source, results[0].Chunk.Metadata.Source)

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	assert.Contains(t, sources, source)

	require.NoError(t, repo.DeleteBySource(ctx, source))
	results, err = repo.SearchSimilarWithDistance(ctx, vec(1), 10, source)
	require.NoError(t, err)
	assert.Empty(t, results)
}
