package memory

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"rag-chat-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// EmbeddingCache is the in-process embedding cache used when redis is not
// configured, and by tests.
type EmbeddingCache struct {
	cache *cache.Cache
}

var _ contract.EmbeddingCache = &EmbeddingCache{}

func NewEmbeddingCache(defaultTTL time.Duration) *EmbeddingCache {
	return &EmbeddingCache{
		cache: cache.New(defaultTTL, 10*time.Minute),
	}
}

func embeddingKey(model, text string) string {
	return fmt.Sprintf("%s:%s", model, base64.StdEncoding.EncodeToString([]byte(text)))
}

func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	if x, found := c.cache.Get(embeddingKey(model, text)); found {
		return x.([]float32), true, nil
	}
	return nil, false, nil
}

func (c *EmbeddingCache) Put(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error {
	c.cache.Set(embeddingKey(model, text), vector, ttl)
	return nil
}
