package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m2ux/concept-rag-sub002/internal/cache"
)

type countingNetwork struct {
	calls int
	entry Entry
}

func (n *countingNetwork) Lookup(_ context.Context, _ string) (Entry, error) {
	n.calls++
	return n.entry, nil
}

func TestCachedNetworkCachesAfterFirstLookup(t *testing.T) {
	inner := &countingNetwork{entry: Entry{Synonyms: []string{"x"}}}
	n := NewCachedNetwork(inner, cache.New[string, Entry](16))

	e1, err := n.Lookup(context.Background(), "term")
	require.NoError(t, err)
	e2, err := n.Lookup(context.Background(), "term")
	require.NoError(t, err)

	require.Equal(t, e1, e2)
	require.Equal(t, 1, inner.calls)
}
