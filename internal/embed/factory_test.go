package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedderDefaultsToStatic(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "")
	e, err := NewEmbedder(context.Background(), "", DefaultOllamaConfig())
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, Dimensions, e.Dimensions())
}

func TestNewEmbedderEnvOverridesProvider(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "static")
	e, err := NewEmbedder(context.Background(), ProviderOllama, DefaultOllamaConfig())
	require.NoError(t, err)
	defer e.Close()

	cached, ok := e.(*CachedEmbedder)
	require.True(t, ok)
	_, ok = cached.Inner().(*StaticEmbedder)
	assert.True(t, ok)
}

func TestNewEmbedderUnreachableOllamaFallsBackToStatic(t *testing.T) {
	cfg := DefaultOllamaConfig()
	cfg.Host = "http://127.0.0.1:1" // nothing listens here
	e, err := NewEmbedder(context.Background(), ProviderOllama, cfg)
	require.NoError(t, err)
	defer e.Close()

	cached, ok := e.(*CachedEmbedder)
	require.True(t, ok)
	_, ok = cached.Inner().(*StaticEmbedder)
	assert.True(t, ok)
}

func TestNewEmbedderCacheDisabled(t *testing.T) {
	t.Setenv("EMBED_CACHE", "false")
	e, err := NewEmbedder(context.Background(), ProviderStatic, DefaultOllamaConfig())
	require.NoError(t, err)
	defer e.Close()

	_, ok := e.(*CachedEmbedder)
	assert.False(t, ok)
}
