package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *JinaProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewJinaProvider("test-key", "")
	p.baseURL = srv.URL
	return p
}

func TestEmbedBatch(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "jina-embeddings-v2-base-en", req.Model)
		require.Len(t, req.Input, 2)

		// Out of order on purpose; the index field must win.
		w.Write([]byte(`{"data":[
			{"object":"embedding","index":1,"embedding":[0.3,0.4]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2]}
		]}`))
	})

	vectors, err := p.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEmbed_SingleText(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"object":"embedding","index":0,"embedding":[1,2,3]}]}`))
	})

	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestEmbedBatch_APIError(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid api key"}`))
	})

	_, err := p.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestEmbedBatch_DuplicateIndexFailsBatch(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		// Two items claiming index 0 would leave slot 1 nil.
		w.Write([]byte(`{"data":[
			{"object":"embedding","index":0,"embedding":[0.1,0.2]},
			{"object":"embedding","index":0,"embedding":[0.3,0.4]}
		]}`))
	})

	_, err := p.EmbedBatch(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate embedding index")
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"object":"embedding","index":0,"embedding":[1]}]}`))
	})

	_, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 embeddings for 2 inputs")
}

func TestModel_DefaultsWhenEmpty(t *testing.T) {
	p := NewJinaProvider("key", "")
	assert.Equal(t, "jina-embeddings-v2-base-en", p.Model())

	p = NewJinaProvider("key", "jina-embeddings-v3")
	assert.Equal(t, "jina-embeddings-v3", p.Model())
}
