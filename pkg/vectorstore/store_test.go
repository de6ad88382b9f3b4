package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthmate-be/internal/entity"
	"healthmate-be/internal/repository/contract"
	"healthmate-be/pkg/embedding"
	"healthmate-be/pkg/store"
)

type fakeEmbedder struct {
	err       error
	taskTypes []string
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.taskTypes = append(f.taskTypes, taskType)
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{float32(len(text)), 1, 2}},
	}, nil
}

type fakeRepo struct {
	created   []*entity.DocumentChunk
	results   []*contract.ScoredChunk
	searchErr error
	deleted   []string
}

func (f *fakeRepo) CreateBulk(_ context.Context, chunks []*entity.DocumentChunk) error {
	f.created = append(f.created, chunks...)
	return nil
}

func (f *fakeRepo) DeleteBySource(_ context.Context, source string) error {
	f.deleted = append(f.deleted, source)
	return nil
}

func (f *fakeRepo) Count(_ context.Context) (int64, error) { return int64(len(f.created)), nil }

func (f *fakeRepo) ListSources(_ context.Context) ([]string, error) { return nil, nil }

func (f *fakeRepo) SearchSimilarWithDistance(_ context.Context, _ []float32, _ int, _ string) ([]*contract.ScoredChunk, error) {
	return f.results, f.searchErr
}

func TestAddDocumentsValidatesLengths(t *testing.T) {
	g := NewGateway(&fakeEmbedder{}, &fakeRepo{})

	_, err := g.AddDocuments(context.Background(), []string{"a", "b"}, []store.ChunkMetadata{{Source: "x"}}, nil)
	assert.ErrorContains(t, err, "metadatas length")

	_, err = g.AddDocuments(context.Background(), []string{"a", "b"}, nil, []string{"only-one"})
	assert.ErrorContains(t, err, "ids length")
}

func TestAddDocumentsEchoesAndMintsIds(t *testing.T) {
	repo := &fakeRepo{}
	emb := &fakeEmbedder{}
	g := NewGateway(emb, repo)

	ids, err := g.AddDocuments(context.Background(),
		[]string{"press firmly", "elevate the limb"},
		[]store.ChunkMetadata{{Source: "wounds.md"}, {Source: "wounds.md"}},
		[]string{"wounds.md_chunk_0", ""},
	)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "wounds.md_chunk_0", ids[0])
	assert.NotEmpty(t, ids[1])

	require.Len(t, repo.created, 2)
	assert.Equal(t, "press firmly", repo.created[0].Document)
	assert.Equal(t, "wounds.md", repo.created[0].Metadata.Source)
	assert.NotEmpty(t, repo.created[0].EmbeddingValue)
	assert.Equal(t, []string{"RETRIEVAL_DOCUMENT", "RETRIEVAL_DOCUMENT"}, emb.taskTypes)
}

func TestAddDocumentsEmptyInput(t *testing.T) {
	repo := &fakeRepo{}
	g := NewGateway(&fakeEmbedder{}, repo)

	ids, err := g.AddDocuments(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, repo.created)
}

func TestSimilaritySearchWithScore(t *testing.T) {
	repo := &fakeRepo{results: []*contract.ScoredChunk{
		{Chunk: &entity.DocumentChunk{Document: "cool the burn", Metadata: store.ChunkMetadata{Source: "burns.md"}}, Distance: 0.2},
		{Chunk: &entity.DocumentChunk{Document: "call for help", Metadata: store.ChunkMetadata{Source: "general.md"}}, Distance: 0.9},
	}}
	emb := &fakeEmbedder{}
	g := NewGateway(emb, repo)

	results, err := g.SimilaritySearchWithScore(context.Background(), "burn", 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "cool the burn", results[0].Passage.Content)
	assert.Equal(t, 0.2, results[0].Distance)
	assert.Equal(t, []string{"RETRIEVAL_QUERY"}, emb.taskTypes)
}

func TestSimilaritySearchPropagatesErrors(t *testing.T) {
	g := NewGateway(&fakeEmbedder{err: errors.New("embedding api down")}, &fakeRepo{})
	_, err := g.SimilaritySearchWithScore(context.Background(), "burn", 2, "")
	assert.ErrorContains(t, err, "failed to embed query")

	g = NewGateway(&fakeEmbedder{}, &fakeRepo{searchErr: errors.New("index unreachable")})
	_, err = g.SimilaritySearch(context.Background(), "burn", 2, "")
	assert.ErrorContains(t, err, "similarity search failed")
}

func TestDeleteSource(t *testing.T) {
	repo := &fakeRepo{}
	g := NewGateway(&fakeEmbedder{}, repo)

	require.NoError(t, g.DeleteSource(context.Background(), "burns.md"))
	assert.Equal(t, []string{"burns.md"}, repo.deleted)
}
