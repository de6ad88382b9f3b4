package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthmate-be/pkg/store"
)

type stubSearcher struct {
	results  []store.ScoredPassage
	err      error
	lastK    int
	numCalls int
}

func (s *stubSearcher) SimilaritySearchWithScore(_ context.Context, _ string, k int, _ string) ([]store.ScoredPassage, error) {
	s.lastK = k
	s.numCalls++
	return s.results, s.err
}

func scoredPassage(content, source string, distance float64) store.ScoredPassage {
	return store.ScoredPassage{
		Passage:  store.Passage{Content: content, Metadata: store.ChunkMetadata{Source: source}},
		Distance: distance,
	}
}

func TestRetrieveOverFetchesAndTruncates(t *testing.T) {
	searcher := &stubSearcher{results: []store.ScoredPassage{
		scoredPassage("passage one", "a.md", 0.1),
		scoredPassage("passage two", "b.md", 0.2),
		scoredPassage("passage three", "c.md", 0.3),
		scoredPassage("passage four", "d.md", 0.4),
	}}
	r := New(searcher, Options{})

	passages, err := r.Retrieve(context.Background(), "burn", 2, true)
	require.NoError(t, err)
	assert.Equal(t, 4, searcher.lastK)
	assert.Len(t, passages, 2)
	assert.Equal(t, "passage one", passages[0].Content)
}

func TestRetrieveScoresAndFilters(t *testing.T) {
	searcher := &stubSearcher{results: []store.ScoredPassage{
		scoredPassage("relevant", "a.md", 0.5),   // score 1/1.5 ≈ 0.667
		scoredPassage("borderline", "b.md", 1.0), // score 0.5, kept (>=)
		scoredPassage("far away", "c.md", 3.0),   // score 0.25, dropped
	}}
	r := New(searcher, Options{})

	passages, err := r.Retrieve(context.Background(), "burn", 3, false)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.InDelta(t, 1.0/1.5, passages[0].Score, 1e-9)
	assert.InDelta(t, 0.5, passages[1].Score, 1e-9)
}

func TestRetrieveDedupKeepsHigherScored(t *testing.T) {
	searcher := &stubSearcher{results: []store.ScoredPassage{
		scoredPassage("Apply firm pressure to the wound with a clean cloth.", "b.md", 0.3),
		scoredPassage("Apply firm pressure to the wound with a clean cloth!", "a.md", 0.1),
		scoredPassage("Run the burn under cool water for twenty minutes.", "c.md", 0.2),
	}}
	r := New(searcher, Options{})

	passages, err := r.Retrieve(context.Background(), "wound", 3, true)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	// the closer (distance 0.1) near-duplicate wins
	assert.Equal(t, "a.md", passages[0].Metadata.Source)
	assert.Equal(t, "c.md", passages[1].Metadata.Source)

	for i := range passages {
		for j := i + 1; j < len(passages); j++ {
			assert.Less(t, sequenceRatio(passages[i].Content, passages[j].Content), DefaultDedupThreshold)
		}
	}
}

func TestRetrieveDedupDisabled(t *testing.T) {
	searcher := &stubSearcher{results: []store.ScoredPassage{
		scoredPassage("identical text here", "a.md", 0.1),
		scoredPassage("identical text here", "b.md", 0.2),
	}}
	r := New(searcher, Options{})

	passages, err := r.Retrieve(context.Background(), "q", 3, false)
	require.NoError(t, err)
	assert.Len(t, passages, 2)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := New(&stubSearcher{}, Options{})

	passages, err := r.Retrieve(context.Background(), "how to treat a burn", 3, true)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestRetrievePropagatesSearchErrors(t *testing.T) {
	r := New(&stubSearcher{err: errors.New("index unreachable")}, Options{})

	_, err := r.Retrieve(context.Background(), "q", 3, true)
	assert.ErrorContains(t, err, "retrieval failed")
}

func TestRetrieveDefaultTopK(t *testing.T) {
	searcher := &stubSearcher{}
	r := New(searcher, Options{TopK: 5})

	_, err := r.Retrieve(context.Background(), "q", 0, true)
	require.NoError(t, err)
	assert.Equal(t, 10, searcher.lastK)
}

func TestExtractCitationsDedupesBySource(t *testing.T) {
	passages := []store.Passage{
		{Metadata: store.ChunkMetadata{Source: "burns.md", Path: "kb/burns.md", Pages: 4}},
		{Metadata: store.ChunkMetadata{Source: "wounds.md"}},
		{Metadata: store.ChunkMetadata{Source: "burns.md"}},
		{Metadata: store.ChunkMetadata{}},
	}

	citations := ExtractCitations(passages)
	require.Len(t, citations, 2)
	assert.Equal(t, "burns.md", citations[0].Source)
	assert.Equal(t, 4, citations[0].Pages)
	assert.Equal(t, "wounds.md", citations[1].Source)
}

func TestFormatCitations(t *testing.T) {
	out := FormatCitations([]store.Citation{
		{Source: "burns.md", Pages: 4},
		{Source: "wounds.md"},
	})
	assert.Equal(t, "Sources:\n1. burns.md (4 pages)\n2. wounds.md", out)

	assert.Empty(t, FormatCitations(nil))
}

func TestSequenceRatio(t *testing.T) {
	assert.Equal(t, 1.0, sequenceRatio("same", "same"))
	assert.Equal(t, 1.0, sequenceRatio("", ""))
	assert.Equal(t, 0.0, sequenceRatio("abc", "xyz"))

	// near-identical sentences should sit above the dedup threshold
	a := "Apply firm pressure to the wound with a clean cloth."
	b := "Apply firm pressure to the wound with a clean cloth!"
	assert.GreaterOrEqual(t, sequenceRatio(a, b), 0.85)

	// rewordings of the same instruction still count as duplicates
	assert.GreaterOrEqual(t, sequenceRatio(
		"Apply pressure to the wound for 10 minutes.",
		"Apply firm pressure to the wound for ten minutes.",
	), 0.85)

	// unrelated guidance should sit well below it
	c := "Run the burn under cool water for twenty minutes."
	assert.Less(t, sequenceRatio(a, c), 0.85)
}
