package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// DefaultSearchCacheSize is the default max entry count for a search result
// cache.
const DefaultSearchCacheSize = 1000

// DefaultSearchCacheTTL is the default per-entry TTL for a search result
// cache.
const DefaultSearchCacheTTL = 5 * time.Minute

// SearchCache caches ranked result lists keyed by a fingerprint of the
// query string and its options.
type SearchCache[V any] struct {
	*Cache[string, V]
}

// NewSearchCache constructs a SearchCache with the default size and TTL.
func NewSearchCache[V any]() *SearchCache[V] {
	return &SearchCache[V]{Cache: New[string, V](DefaultSearchCacheSize).WithDefaultTTL(DefaultSearchCacheTTL)}
}

// Fingerprint computes the cache key for a query against a set of options:
// SHA-256 of queryString || canonical_json(options), where canonical_json
// sorts map keys and marshals struct fields in their declared order (Go's
// encoding/json already does both, so ordinary struct marshaling suffices
// as long as options is a struct or a map with a stable key order; map
// keys are additionally sorted here as a defensive measure).
func Fingerprint(queryString string, options any) (string, error) {
	canon, err := canonicalJSON(options)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(queryString))
	h.Write(canon)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalJSON marshals v such that any map[string]... value has its keys
// sorted, so the same options always fingerprint to the same bytes.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, _ := json.Marshal(k)
			buf = append(buf, kb...)
			buf = append(buf, ':')
			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		buf = append(buf, '}')
		return buf, nil
	case []any:
		buf := []byte{'['}
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, ib...)
		}
		buf = append(buf, ']')
		return buf, nil
	default:
		return json.Marshal(val)
	}
}
