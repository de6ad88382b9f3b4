package dto

type IngestDocumentRequest struct {
	Source  string `json:"source" validate:"required"`
	Content string `json:"content" validate:"required"`
	Path    string `json:"path,omitempty"`
	Pages   int    `json:"pages,omitempty"`
}

// IngestDocumentResponse acknowledges that the embed job was queued; the
// chunk count is only known once the consumer finishes, reported on the
// KNOWLEDGE_INGESTED event.
type IngestDocumentResponse struct {
	Source string `json:"source"`
	Queued bool   `json:"queued"`
}

type KnowledgeStatsResponse struct {
	NumChunks int64    `json:"num_chunks"`
	Sources   []string `json:"sources"`
}

// EmbedJobPayload is what the ingestion publisher puts on the queue; the
// consumer embeds and stores it.
type EmbedJobPayload struct {
	Source  string `json:"source"`
	Path    string `json:"path,omitempty"`
	Pages   int    `json:"pages,omitempty"`
	Content string `json:"content"`
}
