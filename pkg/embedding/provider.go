package embedding

import "context"

// EmbeddingProvider turns text into a fixed-dimension vector.
// EmbedBatch is order-preserving and all-or-nothing: one vector per input,
// any upstream error fails the whole batch.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the provider/model pair. It is part of every
	// embedding cache key so switching models never reuses stale vectors.
	Model() string
}
