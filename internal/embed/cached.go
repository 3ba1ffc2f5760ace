package embed

import (
	"context"

	"github.com/m2ux/concept-rag-sub002/internal/cache"
)

// CachedEmbedder decorates an Embedder with the shared embedding cache,
// keyed by (model_id, sha256(text)). Same text under the same model
// never recomputes.
type CachedEmbedder struct {
	inner Embedder
	cache *cache.EmbeddingCache
}

// NewCachedEmbedder wraps inner with a fresh cache.EmbeddingCache sized for
// inner's own dimension.
func NewCachedEmbedder(inner Embedder) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache.NewEmbeddingCache(inner.Dimensions())}
}

// NewCachedEmbedderWithCache wraps inner with an existing, possibly shared,
// EmbeddingCache.
func NewCachedEmbedderWithCache(inner Embedder, c *cache.EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(c.inner.ModelName(), text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec)
	return vec, nil
}

func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		key := cache.Key(c.inner.ModelName(), text)
		if vec, ok := c.cache.Get(key); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	computed, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		results[idx] = computed[j]
		c.cache.Set(cache.Key(c.inner.ModelName(), texts[idx]), computed[j])
	}
	return results, nil
}

func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

func (c *CachedEmbedder) Available(ctx context.Context) bool { return c.inner.Available(ctx) }

func (c *CachedEmbedder) Close() error { return c.inner.Close() }

// Inner returns the wrapped embedder, for callers that need
// provider-specific behavior the Embedder interface doesn't expose.
func (c *CachedEmbedder) Inner() Embedder { return c.inner }

// CacheMetrics exposes the underlying cache's hit/miss/eviction counters.
func (c *CachedEmbedder) CacheMetrics() cache.Metrics { return c.cache.Metrics() }
