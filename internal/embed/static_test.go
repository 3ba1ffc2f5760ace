package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, "distributed systems are hard")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "distributed systems are hard")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, Dimensions)
}

func TestStaticEmbedderDiffersByText(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	v1, _ := e.Embed(ctx, "caching strategies")
	v2, _ := e.Embed(ctx, "distributed consensus")
	assert.NotEqual(t, v1, v2)
}

func TestStaticEmbedderEmptyTextReturnsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, f := range v {
		assert.Zero(t, f)
	}
}

func TestStaticEmbedderClosedRejects(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "hello")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}

func TestStaticEmbedderBatchMatchesSingle(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	single, err := e.Embed(ctx, "knowledge graphs")
	require.NoError(t, err)

	batch, err := e.EmbedBatch(ctx, []string{"knowledge graphs"})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, single, batch[0])
}
