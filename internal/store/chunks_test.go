package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRepoUpsertManyAndFindBySource(t *testing.T) {
	repo, err := OpenChunkRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	rows := []ChunkRow{
		{ID: 1, CatalogID: 100, Text: "first passage", ChunkIndex: 1, Vector: testVector(1)},
		{ID: 2, CatalogID: 100, Text: "second passage", ChunkIndex: 0, Vector: testVector(2)},
		{ID: 3, CatalogID: 200, Text: "other document", ChunkIndex: 0, Vector: testVector(3)},
	}
	require.NoError(t, repo.UpsertMany(ctx, rows))

	got, err := repo.FindBySource(100, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(2), got[0].ID) // chunk index 0 sorts first
	assert.Equal(t, uint32(1), got[1].ID)
}

func TestChunkRepoFindBySourceRespectsLimit(t *testing.T) {
	repo, err := OpenChunkRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	rows := []ChunkRow{
		{ID: 1, CatalogID: 1, ChunkIndex: 0, Vector: testVector(1)},
		{ID: 2, CatalogID: 1, ChunkIndex: 1, Vector: testVector(2)},
	}
	require.NoError(t, repo.UpsertMany(ctx, rows))

	got, err := repo.FindBySource(1, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestChunkRepoFindByConceptSet(t *testing.T) {
	repo, err := OpenChunkRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	rows := []ChunkRow{
		{ID: 1, CatalogID: 1, ConceptIDs: []uint32{5, 6}, Vector: testVector(1)},
		{ID: 2, CatalogID: 1, ConceptIDs: []uint32{7}, Vector: testVector(2)},
	}
	require.NoError(t, repo.UpsertMany(ctx, rows))

	got, err := repo.FindByConceptSet([]uint32{6, 7}, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestChunkRepoUpsertManyRejectsCollision(t *testing.T) {
	repo, err := OpenChunkRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.UpsertMany(ctx, []ChunkRow{{ID: 1, CatalogID: 100, Vector: testVector(1)}}))

	err = repo.UpsertMany(ctx, []ChunkRow{{ID: 1, CatalogID: 200, Vector: testVector(2)}})
	assert.ErrorContains(t, err, "VALIDATION_ID_COLLISION")
}

func TestChunkRepoDeleteByCatalogID(t *testing.T) {
	repo, err := OpenChunkRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	rows := []ChunkRow{
		{ID: 1, CatalogID: 100, Vector: testVector(1)},
		{ID: 2, CatalogID: 100, Vector: testVector(2)},
	}
	require.NoError(t, repo.UpsertMany(ctx, rows))
	require.NoError(t, repo.DeleteByCatalogID(ctx, 100))

	got, err := repo.FindBySource(100, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
