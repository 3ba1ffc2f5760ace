package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepoUpsertAndFindByName(t *testing.T) {
	repo, err := OpenCategoryRepo(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(CategoryRow{Name: "Machine Learning", DocumentCount: 3}))

	got, ok, err := repo.FindByName("machine learning")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.DocumentCount)
}

func TestCategoryRepoRejectsCollision(t *testing.T) {
	repo, err := OpenCategoryRepo(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(CategoryRow{Name: "alpha"}))
	alpha, _, err := repo.FindByName("alpha")
	require.NoError(t, err)
	err = repo.Upsert(CategoryRow{ID: alpha.ID, Name: "beta"})
	assert.Error(t, err)
}

func TestCategoryRepoListSortsByDocumentCountDescending(t *testing.T) {
	repo, err := OpenCategoryRepo(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(CategoryRow{Name: "low", DocumentCount: 1}))
	require.NoError(t, repo.Upsert(CategoryRow{Name: "high", DocumentCount: 9}))

	got, err := repo.List(SortByDocumentCount, 0, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].Name)
}

func TestCategoryRepoListRespectsLimit(t *testing.T) {
	repo, err := OpenCategoryRepo(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(CategoryRow{Name: "a"}))
	require.NoError(t, repo.Upsert(CategoryRow{Name: "b"}))
	require.NoError(t, repo.Upsert(CategoryRow{Name: "c"}))

	got, err := repo.List(SortByName, 2, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCategoryRepoListFiltersByPrefix(t *testing.T) {
	repo, err := OpenCategoryRepo(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(CategoryRow{Name: "physics"}))
	require.NoError(t, repo.Upsert(CategoryRow{Name: "philosophy"}))
	require.NoError(t, repo.Upsert(CategoryRow{Name: "biology"}))

	got, err := repo.List(SortByName, 0, "phi")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "philosophy", got[0].Name)
}
