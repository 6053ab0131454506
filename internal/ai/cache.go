package ai

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// CachedClient wraps a Client with a ristretto cache over Embed. The same
// text is embedded repeatedly in this pipeline (retried promotions,
// repeated queries), and embedding calls are the most expensive capability
// calls after generation. Generate is never cached.
type CachedClient struct {
	inner Client
	cache *ristretto.Cache
}

// NewCachedClient builds the cache sized to roughly maxBytes of vectors.
func NewCachedClient(inner Client, maxBytes int64) (*CachedClient, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return &CachedClient{inner: inner, cache: cache}, nil
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Set(text, vec, int64(len(vec)*4))
	return vec, nil
}

func (c *CachedClient) Generate(ctx context.Context, prompt ChatMessage, history []ChatMessage) (string, error) {
	return c.inner.Generate(ctx, prompt, history)
}

func (c *CachedClient) Close() {
	c.cache.Close()
}
