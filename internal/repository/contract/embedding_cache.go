package contract

import (
	"context"
	"time"
)

// EmbeddingCache maps (model, text) to a previously computed vector. Entries
// are immutable once written; concurrent writers for the same key race
// benignly (values are equal up to provider determinism). A miss is not an
// error, it signals "must regenerate".
type EmbeddingCache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Put(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error
}
