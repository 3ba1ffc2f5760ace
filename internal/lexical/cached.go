package lexical

import "context"

// lemmaCache is the minimal cache surface CachedNetwork needs; satisfied
// by *internal/cache.Cache[string, Entry].
type lemmaCache interface {
	Get(key string) (Entry, bool)
	Set(key string, value Entry)
}

// CachedNetwork wraps a Network with a bounded, TTL-less cache keyed by
// lemma; lexical lookups are stable for a fixed network, so entries
// never expire.
type CachedNetwork struct {
	inner Network
	cache lemmaCache
}

// NewCachedNetwork wraps inner with cache (typically cache.New[string,
// Entry](size), no TTL set).
func NewCachedNetwork(inner Network, cache lemmaCache) *CachedNetwork {
	return &CachedNetwork{inner: inner, cache: cache}
}

func (n *CachedNetwork) Lookup(ctx context.Context, lemma string) (Entry, error) {
	if e, ok := n.cache.Get(lemma); ok {
		return e, nil
	}
	e, err := n.inner.Lookup(ctx, lemma)
	if err != nil {
		return Entry{}, err
	}
	n.cache.Set(lemma, e)
	return e, nil
}

var _ Network = (*CachedNetwork)(nil)
