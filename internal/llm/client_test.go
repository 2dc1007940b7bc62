package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthnet/backend/pkg/utils"
)

type fakeEmbeddingCache struct {
	store map[string][]float32
	gets  []string
	sets  []string
}

func (f *fakeEmbeddingCache) GetEmbedding(_ context.Context, textHash string) ([]float32, bool, error) {
	f.gets = append(f.gets, textHash)
	emb, ok := f.store[textHash]
	return emb, ok, nil
}

func (f *fakeEmbeddingCache) SetEmbedding(_ context.Context, textHash string, embedding []float32, _ time.Duration) error {
	f.sets = append(f.sets, textHash)
	f.store[textHash] = embedding
	return nil
}

func TestGenerateEmbedding_CacheHitSkipsProvider(t *testing.T) {
	const text = "severe abdominal pain in Nagpur"
	want := []float32{0.1, 0.2, 0.3}

	cache := &fakeEmbeddingCache{store: map[string][]float32{
		utils.HashString(text): want,
	}}

	// There is no reachable provider behind this key; a cache hit must
	// return before any provider call is attempted.
	client := NewClient("test-key", "gpt-4", "text-embedding-3-small", 0.2, 256).
		WithEmbeddingCache(cache, time.Minute)

	got, err := client.GenerateEmbedding(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.Len(t, cache.gets, 1)
	assert.Equal(t, utils.HashString(text), cache.gets[0])
	assert.Empty(t, cache.sets)
}

func TestBreakerState_StartsClosed(t *testing.T) {
	client := NewClient("test-key", "gpt-4", "text-embedding-3-small", 0.2, 256)
	assert.Equal(t, "closed", client.BreakerState())
}
