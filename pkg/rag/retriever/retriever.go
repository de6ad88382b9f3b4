package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"healthmate-be/pkg/store"
)

const (
	DefaultTopK                = 3
	DefaultSimilarityThreshold = 0.5
	DefaultDedupThreshold      = 0.85
)

// Searcher is the slice of the vector store gateway the retriever needs.
type Searcher interface {
	SimilaritySearchWithScore(ctx context.Context, query string, k int, source string) ([]store.ScoredPassage, error)
}

type Options struct {
	TopK                int
	SimilarityThreshold float64
	DedupThreshold      float64
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if o.DedupThreshold <= 0 {
		o.DedupThreshold = DefaultDedupThreshold
	}
	return o
}

// Retriever turns raw nearest-neighbour hits into a ranked, relevance-filtered,
// deduplicated passage list.
type Retriever struct {
	searcher Searcher
	opts     Options
}

func New(searcher Searcher, opts Options) *Retriever {
	return &Retriever{searcher: searcher, opts: opts.withDefaults()}
}

// Retrieve fetches 2*topK candidates, converts each L2 distance d to a score
// of 1/(1+d), drops anything under the similarity threshold, optionally
// removes near-duplicate texts keeping the higher-scored copy, and truncates
// to topK. Zero candidates is an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, applyDedup bool) ([]store.Passage, error) {
	if topK <= 0 {
		topK = r.opts.TopK
	}

	scored, err := r.searcher.SimilaritySearchWithScore(ctx, query, 2*topK, "")
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	passages := make([]store.Passage, 0, len(scored))
	for _, sp := range scored {
		p := sp.Passage
		p.Score = 1.0 / (1.0 + sp.Distance)
		if p.Score < r.opts.SimilarityThreshold {
			continue
		}
		passages = append(passages, p)
	}

	if applyDedup {
		passages = r.dedup(passages)
	}

	if len(passages) > topK {
		passages = passages[:topK]
	}
	return passages, nil
}

// dedup walks passages best-first and drops any whose text is at least
// dedupThreshold similar to one already kept, so the higher-scored member of
// each near-duplicate pair survives. Quadratic, but bounded by the 2*topK
// over-fetch.
func (r *Retriever) dedup(passages []store.Passage) []store.Passage {
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})

	kept := make([]store.Passage, 0, len(passages))
	for _, candidate := range passages {
		duplicate := false
		for _, existing := range kept {
			if sequenceRatio(candidate.Content, existing.Content) >= r.opts.DedupThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// ExtractCitations collapses passages to one citation per source, in first-seen
// order.
func ExtractCitations(passages []store.Passage) []store.Citation {
	seen := make(map[string]bool)
	citations := make([]store.Citation, 0)
	for _, p := range passages {
		source := p.Metadata.Source
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		citations = append(citations, store.Citation{
			Source: source,
			Path:   p.Metadata.Path,
			Pages:  p.Metadata.Pages,
		})
	}
	return citations
}

// FormatCitations renders citations as a numbered block for display. The
// numbering here is per-call and unrelated to the [Source N] markers the
// context builder embeds in prompts.
func FormatCitations(citations []store.Citation) string {
	if len(citations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, c := range citations {
		if c.Pages > 0 {
			fmt.Fprintf(&b, "%d. %s (%d pages)\n", i+1, c.Source, c.Pages)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.Source)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
