package store

import (
	"context"
	"testing"

	"github.com/m2ux/concept-rag-sub002/internal/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConceptRepoUpsertManyCanonicalizesName(t *testing.T) {
	repo, err := OpenConceptRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.UpsertMany(ctx, []ConceptRow{{Name: "  Distributed Systems ", Vector: testVector(1)}}))

	got, ok, err := repo.FindByName("distributed systems")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "distributed systems", got.Name)
	assert.Equal(t, ident.ConceptID("distributed systems"), got.ID)
}

func TestConceptRepoUpsertManyMergesRecurringConcept(t *testing.T) {
	repo, err := OpenConceptRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.UpsertMany(ctx, []ConceptRow{
		{Name: "caching", CatalogIDs: []uint32{1}, ChunkCount: 2, Vector: testVector(1)},
	}))
	require.NoError(t, repo.UpsertMany(ctx, []ConceptRow{
		{Name: "caching", CatalogIDs: []uint32{2}, ChunkCount: 3, Vector: testVector(1)},
	}))

	got, ok, err := repo.FindByName("caching")
	require.NoError(t, err)
	require.True(t, ok)
	assert.ElementsMatch(t, []uint32{1, 2}, got.CatalogIDs)
	assert.Equal(t, 5, got.ChunkCount)
}

func TestConceptRepoSearchSimilar(t *testing.T) {
	repo, err := OpenConceptRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.UpsertMany(ctx, []ConceptRow{
		{Name: "alpha", Vector: testVector(1)},
		{Name: "beta", Vector: testVector(9)},
	}))

	hits, err := repo.SearchSimilar(ctx, testVector(1), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alpha", hits[0].Row.Name)
}

func TestConceptRepoGetAll(t *testing.T) {
	repo, err := OpenConceptRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.UpsertMany(ctx, []ConceptRow{
		{Name: "alpha", Vector: testVector(1)},
		{Name: "beta", Vector: testVector(2)},
	}))

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
