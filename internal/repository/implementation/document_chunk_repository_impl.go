package implementation

import (
	"context"

	"healthmate-be/internal/entity"
	"healthmate-be/internal/mapper"
	"healthmate-be/internal/model"
	"healthmate-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := r.mapper.ToModels(chunks)
	// Re-ingesting a source upserts on the stable chunk id.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chunk_id"}},
			UpdateAll: true,
		}).
		Create(&models).Error
}

func (r *DocumentChunkRepositoryImpl) DeleteBySource(ctx context.Context, source string) error {
	return r.db.WithContext(ctx).Where("source = ?", source).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

func (r *DocumentChunkRepositoryImpl) ListSources(ctx context.Context) ([]string, error) {
	var sources []string
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Distinct("source").
		Order("source").
		Pluck("source", &sources).Error
	return sources, err
}

// scoredChunkRow carries the model columns plus the computed distance.
type scoredChunkRow struct {
	model.DocumentChunk
	Distance float64
}

func (r *DocumentChunkRepositoryImpl) SearchSimilarWithDistance(
	ctx context.Context,
	embedding []float32,
	limit int,
	source string,
) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	// L2 distance operator: row vector <-> query vector. The retriever's
	// score transform 1/(1+d) expects L2, not cosine.
	query := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Select("document_chunks.*, embedding_value <-> ? AS distance", vec).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding_value <-> ?",
			Vars:               []interface{}{vec},
			WithoutParentheses: true,
		}}).
		Limit(limit)

	if source != "" {
		query = query.Where("source = ?", source)
	}

	var rows []scoredChunkRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]*contract.ScoredChunk, len(rows))
	for i := range rows {
		results[i] = &contract.ScoredChunk{
			Chunk:    r.mapper.ToEntity(&rows[i].DocumentChunk),
			Distance: rows[i].Distance,
		}
	}
	return results, nil
}
