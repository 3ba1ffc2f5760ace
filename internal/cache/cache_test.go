package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New[string, int](4)
	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestLRUEvictionAtCapacity(t *testing.T) {
	var evicted []string
	c := New[string, int](2).WithEvictionCallback(func(key string, v int) {
		evicted = append(evicted, key)
	})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts "a", the least-recently-used

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	require.Equal(t, []string{"a"}, evicted)
	assert.EqualValues(t, 1, c.Metrics().Evictions)
}

func TestTTLExpiry(t *testing.T) {
	c := New[string, string](4)
	c.SetWithTTL("k", "v", time.Millisecond)
	time.Sleep(2 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestInvalidateMatching(t *testing.T) {
	c := New[string, int](10)
	c.Set("search:a", 1)
	c.Set("search:b", 2)
	c.Set("embed:a", 3)

	c.InvalidateMatching(func(key string) bool {
		return len(key) >= 7 && key[:7] == "search:"
	})

	_, ok := c.Get("search:a")
	assert.False(t, ok)
	_, ok = c.Get("embed:a")
	assert.True(t, ok)
}

func TestSizeNeverExceedsMax(t *testing.T) {
	c := New[int, int](3)
	for i := 0; i < 100; i++ {
		c.Set(i, i)
		assert.LessOrEqual(t, c.Size(), 3)
	}
}

func TestMetricsHitRate(t *testing.T) {
	c := New[string, int](4)
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	m := c.Metrics()
	assert.EqualValues(t, 2, m.Hits)
	assert.EqualValues(t, 1, m.Misses)
	assert.InDelta(t, 2.0/3.0, m.HitRate(), 0.0001)
}

func TestClear(t *testing.T) {
	c := New[string, int](4)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestFingerprintStableUnderKeyOrder(t *testing.T) {
	opt1 := map[string]any{"limit": 10, "source": "book.pdf"}
	opt2 := map[string]any{"source": "book.pdf", "limit": 10}

	fp1, err := Fingerprint("microservices", opt1)
	require.NoError(t, err)
	fp2, err := Fingerprint("microservices", opt2)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestEmbeddingCacheKeyIncludesModel(t *testing.T) {
	k1 := Key("static-384", "hello world")
	k2 := Key("other-model", "hello world")
	assert.NotEqual(t, k1, k2)
}
