package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVector(seed float32) []float32 {
	v := make([]float32, VectorDim)
	for i := range v {
		v[i] = seed
	}
	v[0] += 0.001 * seed
	return v
}

func TestCatalogRepoUpsertAndFindBySource(t *testing.T) {
	repo, err := OpenCatalogRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	row := CatalogRow{ID: 1, SourcePath: "books/alpha.pdf", Summary: "a book about alpha", Vector: testVector(1)}
	require.NoError(t, repo.Upsert(context.Background(), row))

	got, ok, err := repo.FindBySource("books/alpha.pdf")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, row.Summary, got.Summary)
}

func TestCatalogRepoRejectsIDCollision(t *testing.T) {
	repo, err := OpenCatalogRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, CatalogRow{ID: 7, SourcePath: "a.pdf", Vector: testVector(1)}))

	err = repo.Upsert(ctx, CatalogRow{ID: 7, SourcePath: "b.pdf", Vector: testVector(2)})
	assert.ErrorContains(t, err, "VALIDATION_ID_COLLISION")
}

func TestCatalogRepoRejectsDimensionMismatch(t *testing.T) {
	repo, err := OpenCatalogRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	err = repo.Upsert(context.Background(), CatalogRow{ID: 1, SourcePath: "a.pdf", Vector: []float32{1, 2, 3}})
	assert.ErrorContains(t, err, "EMBED_DIMENSION_MISMATCH")
}

func TestCatalogRepoFindByCategory(t *testing.T) {
	repo, err := OpenCatalogRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, CatalogRow{ID: 1, SourcePath: "a.pdf", CategoryIDs: []uint32{10, 20}, Vector: testVector(1)}))
	require.NoError(t, repo.Upsert(ctx, CatalogRow{ID: 2, SourcePath: "b.pdf", CategoryIDs: []uint32{20}, Vector: testVector(2)}))
	require.NoError(t, repo.Upsert(ctx, CatalogRow{ID: 3, SourcePath: "c.pdf", CategoryIDs: []uint32{30}, Vector: testVector(3)}))

	rows, err := repo.FindByCategory(20)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCatalogRepoSearchByVector(t *testing.T) {
	repo, err := OpenCatalogRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, CatalogRow{ID: 1, SourcePath: "a.pdf", Vector: testVector(1)}))
	require.NoError(t, repo.Upsert(ctx, CatalogRow{ID: 2, SourcePath: "b.pdf", Vector: testVector(5)}))

	hits, err := repo.SearchByVector(ctx, testVector(1), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint32(1), hits[0].Row.ID)
}

func TestCatalogRepoDeleteBySource(t *testing.T) {
	repo, err := OpenCatalogRepo(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, CatalogRow{ID: 1, SourcePath: "a.pdf", Vector: testVector(1)}))
	require.NoError(t, repo.DeleteBySource(ctx, "a.pdf"))

	_, ok, err := repo.FindBySource("a.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogRepoPersistAndReload(t *testing.T) {
	dir := t.TempDir()
	repo, err := OpenCatalogRepo(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, CatalogRow{ID: 1, SourcePath: "a.pdf", Summary: "alpha", Vector: testVector(1)}))
	require.NoError(t, repo.Persist())
	require.NoError(t, repo.Close())

	reopened, err := OpenCatalogRepo(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Summary)
}
