package entity

import (
	"time"

	"healthmate-be/pkg/store"

	"github.com/google/uuid"
)

// DocumentChunk is a knowledge-base chunk with its embedding vector.
type DocumentChunk struct {
	Id             uuid.UUID
	ChunkId        string // stable external id, e.g. "burns.md_chunk_3"
	Document       string
	EmbeddingValue []float32
	Metadata       store.ChunkMetadata
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
