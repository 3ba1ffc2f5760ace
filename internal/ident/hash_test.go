package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIDKnownVectors(t *testing.T) {
	// FNV-1a reference values over the 32-bit offset/prime pair.
	assert.Equal(t, uint32(2166136261), HashID(""))
	assert.Equal(t, uint32(0xe40c292c), HashID("a"))
	assert.Equal(t, uint32(0xbf9cf968), HashID("foobar"))
}

func TestHashIDIsStableAcrossCalls(t *testing.T) {
	inputs := []string{"consensus", "Distributed Systems.pdf", "  Paxos  ", "日本語"}
	for _, s := range inputs {
		require.Equal(t, HashID(s), HashID(s))
	}
}

func TestCanonicalConcept(t *testing.T) {
	cases := map[string]string{
		"  Raft  ":          "raft",
		"CONSENSUS":         "consensus",
		"machine learning":  "machine learning",
		"\tNeural Networks": "neural networks",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalConcept(in))
	}
}

func TestConceptIDIdentifiesCaseVariants(t *testing.T) {
	require.Equal(t, ConceptID("Raft"), ConceptID("  raft "))
	require.NotEqual(t, ConceptID("raft"), ConceptID("paxos"))
}

func TestSourceIDPreservesCase(t *testing.T) {
	require.NotEqual(t, SourceID("/books/A.pdf"), SourceID("/books/a.pdf"))
}

func TestContentHash(t *testing.T) {
	require.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHash(nil))
	require.Equal(t, ContentHash([]byte("abc")), ContentHash([]byte("abc")))
	require.NotEqual(t, ContentHash([]byte("abc")), ContentHash([]byte("abd")))
}
