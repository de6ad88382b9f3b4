package mapper

import (
	"encoding/json"
	"time"

	"healthmate-be/internal/entity"
	"healthmate-be/internal/model"
	"healthmate-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var meta store.ChunkMetadata
	if len(c.Metadata) > 0 {
		// Metadata column is written by us, so a decode failure means a
		// hand-edited row; fall back to the source column.
		_ = json.Unmarshal(c.Metadata, &meta)
	}
	if meta.Source == "" {
		meta.Source = c.Source
	}

	return &entity.DocumentChunk{
		Id:             c.Id,
		ChunkId:        c.ChunkId,
		Document:       c.Document,
		EmbeddingValue: c.EmbeddingValue.Slice(),
		Metadata:       meta,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	metaJson, _ := json.Marshal(c.Metadata)

	return &model.DocumentChunk{
		Id:             c.Id,
		ChunkId:        c.ChunkId,
		Document:       c.Document,
		EmbeddingValue: pgvector.NewVector(c.EmbeddingValue),
		Source:         c.Metadata.Source,
		Metadata:       datatypes.JSON(metaJson),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *DocumentChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *DocumentChunkMapper) ToModels(chunks []*entity.DocumentChunk) []*model.DocumentChunk {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
