package implementation

import (
	"context"

	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PassageRepositoryImpl struct {
	db *gorm.DB
}

func NewPassageRepository(db *gorm.DB) contract.PassageRepository {
	return &PassageRepositoryImpl{db: db}
}

// SearchSimilar returns passages with similarity scores, best match first.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding <=> query_vector) as the score.
func (r *PassageRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]store.Passage, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.Passage
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("passages").
		Select("passages.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	passages := make([]store.Passage, len(results))
	for i, res := range results {
		passages[i] = store.Passage{
			Text:        res.Text,
			SourceTitle: res.Title,
			SourceURL:   res.Url,
			Score:       res.Similarity,
		}
	}
	return passages, nil
}

func (r *PassageRepositoryImpl) CreateBulk(ctx context.Context, passages []*model.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(passages, 100).Error
}

func (r *PassageRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Passage{}).Count(&count).Error
	return count, err
}
