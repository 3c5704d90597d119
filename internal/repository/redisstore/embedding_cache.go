package redisstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"rag-chat-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// EmbeddingCache is a content-addressed redis cache for computed embeddings.
// The key carries the model identity so switching embedding models never
// serves vectors computed by a different model.
type EmbeddingCache struct {
	rdb *redis.Client
}

var _ contract.EmbeddingCache = &EmbeddingCache{}

func NewEmbeddingCache(rdb *redis.Client) *EmbeddingCache {
	return &EmbeddingCache{rdb: rdb}
}

// embeddingKey base64-encodes the text so arbitrary content, including
// whitespace and key separators, can never collide across distinct strings.
func embeddingKey(model, text string) string {
	return fmt.Sprintf("embedding:%s:%s", model, base64.StdEncoding.EncodeToString([]byte(text)))
}

func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	data, err := c.rdb.Get(ctx, embeddingKey(model, text)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("embedding cache read: %w", err)
	}

	var vector []float32
	if err := json.Unmarshal([]byte(data), &vector); err != nil {
		return nil, false, fmt.Errorf("embedding cache decode: %w", err)
	}
	return vector, true, nil
}

func (c *EmbeddingCache) Put(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("embedding cache encode: %w", err)
	}

	if err := c.rdb.Set(ctx, embeddingKey(model, text), data, ttl).Err(); err != nil {
		return fmt.Errorf("embedding cache write: %w", err)
	}
	return nil
}
