package store

// ChunkMetadata describes where a knowledge chunk came from.
type ChunkMetadata struct {
	Source      string `json:"source"`
	Path        string `json:"path,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// Passage is a retrieved chunk of source text with its similarity score.
// Score is 1/(1+d) over the raw L2 distance d, bounded to (0, 1].
type Passage struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}

// ScoredPassage pairs a passage with its raw index distance (lower = closer).
// The gateway returns these; the retriever converts distance to Score.
type ScoredPassage struct {
	Passage  Passage
	Distance float64
}

// Citation is a deduplicated reference to a passage's origin document.
type Citation struct {
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
	Pages  int    `json:"pages,omitempty"`
}
