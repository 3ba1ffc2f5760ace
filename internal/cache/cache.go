// Package cache implements a generic bounded LRU with optional per-entry
// TTL, atomic metrics, an eviction callback, and key-predicate invalidation.
// It is built on hashicorp/golang-lru's simplelru, which exposes an
// eviction callback; TTL and metrics are layered on top here.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// EvictionCallback is invoked exactly once per evicted entry (LRU eviction,
// explicit invalidation, or TTL expiry discovered on Get).
type EvictionCallback[K comparable, V any] func(key K, value V)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no TTL
}

// Cache is a generic bounded, optionally-TTL'd LRU cache. Safe for
// concurrent use.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[K, entry[V]]
	onEvict  EvictionCallback[K, V]
	defaultTTL time.Duration // zero means no default TTL

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a Cache bounded at maxSize with no default TTL and no
// eviction callback. Use the With* options to add them.
func New[K comparable, V any](maxSize int) *Cache[K, V] {
	c := &Cache[K, V]{}
	lru, err := simplelru.NewLRU[K, entry[V]](maxSize, func(key K, v entry[V]) {
		c.evictions.Add(1)
		if c.onEvict != nil {
			c.onEvict(key, v.value)
		}
	})
	if err != nil {
		// maxSize <= 0 is a programmer error, not a runtime condition; the
		// simplelru constructor only fails on that case.
		panic(err)
	}
	c.lru = lru
	return c
}

// WithEvictionCallback sets the callback invoked on every eviction
// (LRU-driven, explicit invalidation, or TTL expiry).
func (c *Cache[K, V]) WithEvictionCallback(cb EvictionCallback[K, V]) *Cache[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = cb
	return c
}

// WithDefaultTTL sets the TTL applied to entries stored via Set (as
// opposed to SetWithTTL, which takes a per-call TTL).
func (c *Cache[K, V]) WithDefaultTTL(ttl time.Duration) *Cache[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultTTL = ttl
	return c
}

// Get returns the value for key and true, or the zero value and false on a
// miss. An expired entry is treated as a miss and removed, incrementing the
// eviction counter and invoking the eviction callback.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.lru.Remove(key) // triggers onEvict via the callback above
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key using the cache's default TTL (zero means no
// expiry). If inserting key evicts the least-recently-used entry, the
// eviction counter increments and the callback fires.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.currentDefaultTTL())
}

func (c *Cache[K, V]) currentDefaultTTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaultTTL
}

// SetWithTTL stores value under key with a per-entry TTL (zero means never
// expires).
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.lru.Add(key, entry[V]{value: value, expiresAt: expiresAt})
}

// Invalidate removes key, if present, firing the eviction callback.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// InvalidateMatching removes every entry whose key satisfies pred, firing
// the eviction callback for each.
func (c *Cache[K, V]) InvalidateMatching(pred func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.lru.Keys() {
		if pred(key) {
			c.lru.Remove(key)
		}
	}
}

// Clear removes every entry, firing the eviction callback for each.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Size returns the current number of live entries (including any not yet
// discovered to be TTL-expired).
func (c *Cache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Metrics is a point-in-time snapshot of cache counters.
type Metrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// HitRate returns Hits / (Hits+Misses), or 0 when there have been no
// lookups yet.
func (m Metrics) HitRate() float64 {
	total := m.Hits + m.Misses
	if total == 0 {
		return 0
	}
	return float64(m.Hits) / float64(total)
}

// Metrics returns a snapshot of the cache's counters.
func (c *Cache[K, V]) Metrics() Metrics {
	return Metrics{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Size(),
	}
}
