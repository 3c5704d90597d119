package contract

import (
	"context"

	"rag-chat-be/internal/model"
	"rag-chat-be/pkg/store"
)

// PassageRepository is the vector index over the ingested corpus. The query
// orchestrator only searches; CreateBulk exists for the ingestion pipeline.
type PassageRepository interface {
	// SearchSimilar returns up to limit passages ranked by descending
	// cosine similarity to the query embedding. Fewer than limit results
	// is not an error.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]store.Passage, error)

	CreateBulk(ctx context.Context, passages []*model.Passage) error
	Count(ctx context.Context) (int64, error)
}
