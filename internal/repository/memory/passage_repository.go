package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/store"
)

// PassageRepository is the fallback vector index used when Postgres is
// disabled. Search is a brute-force cosine scan over every stored passage,
// which is fine for the corpus sizes a db-less run handles.
type PassageRepository struct {
	mu       sync.RWMutex
	passages []*model.Passage
}

var _ contract.PassageRepository = &PassageRepository{}

func NewPassageRepository() *PassageRepository {
	return &PassageRepository{}
}

func (r *PassageRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]store.Passage, error) {
	if limit <= 0 {
		limit = 5
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]store.Passage, 0, len(r.passages))
	for _, p := range r.passages {
		results = append(results, store.Passage{
			Text:        p.Text,
			SourceTitle: p.Title,
			SourceURL:   p.Url,
			Score:       cosineSimilarity(embedding, p.Embedding.Slice()),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (r *PassageRepository) CreateBulk(ctx context.Context, passages []*model.Passage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passages = append(r.passages, passages...)
	return nil
}

func (r *PassageRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.passages)), nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
