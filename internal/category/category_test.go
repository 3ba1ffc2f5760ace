package category

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m2ux/concept-rag-sub002/internal/store"
)

func vec() []float32 { return make([]float32, store.VectorDim) }

func newTestService(t *testing.T) *Service {
	t.Helper()
	categories, err := store.OpenCategoryRepo(t.TempDir())
	require.NoError(t, err)
	catalog, err := store.OpenCatalogRepo(t.TempDir())
	require.NoError(t, err)
	chunks, err := store.OpenChunkRepo(t.TempDir())
	require.NoError(t, err)
	concepts, err := store.OpenConceptRepo(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = catalog.Close()
		_ = chunks.Close()
		_ = concepts.Close()
	})
	return NewService(categories, catalog, chunks, concepts)
}

func TestFindDocumentsInCategory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.categories.Upsert(store.CategoryRow{Name: "physics"}))
	physics, _, err := svc.categories.FindByName("physics")
	require.NoError(t, err)

	require.NoError(t, svc.catalog.Upsert(ctx, store.CatalogRow{ID: 1, SourcePath: "a.pdf", CategoryIDs: []uint32{physics.ID}, Vector: vec()}))
	require.NoError(t, svc.catalog.Upsert(ctx, store.CatalogRow{ID: 2, SourcePath: "b.pdf", Vector: vec()}))

	docs, err := svc.FindDocumentsInCategory(physics.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, uint32(1), docs[0].ID)
}

func TestListCategoriesSortsAndFilters(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.categories.Upsert(store.CategoryRow{Name: "physics", DocumentCount: 1}))
	require.NoError(t, svc.categories.Upsert(store.CategoryRow{Name: "philosophy", DocumentCount: 9}))

	got, err := svc.ListCategories(store.SortByDocumentCount, 0, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "philosophy", got[0].Name)

	got, err = svc.ListCategories(store.SortByName, 0, "phys")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "physics", got[0].Name)
}

func TestConceptsInCategoryAggregatesAcrossMemberDocuments(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.categories.Upsert(store.CategoryRow{Name: "physics"}))
	physics, _, err := svc.categories.FindByName("physics")
	require.NoError(t, err)

	require.NoError(t, svc.catalog.Upsert(ctx, store.CatalogRow{ID: 1, SourcePath: "a.pdf", CategoryIDs: []uint32{physics.ID}, Vector: vec()}))
	require.NoError(t, svc.catalog.Upsert(ctx, store.CatalogRow{ID: 2, SourcePath: "b.pdf", CategoryIDs: []uint32{physics.ID}, Vector: vec()}))

	require.NoError(t, svc.concepts.UpsertMany(ctx, []store.ConceptRow{{Name: "entropy", Vector: vec()}}))
	entropy, _, err := svc.concepts.FindByName("entropy")
	require.NoError(t, err)

	require.NoError(t, svc.chunks.UpsertMany(ctx, []store.ChunkRow{
		{ID: 10, CatalogID: 1, Text: "x", ConceptIDs: []uint32{entropy.ID}, Vector: vec()},
		{ID: 20, CatalogID: 2, Text: "y", ConceptIDs: []uint32{entropy.ID}, Vector: vec()},
	}))

	got, err := svc.ConceptsInCategory(physics.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "entropy", got[0].Concept.Name)
	require.Equal(t, 2, got[0].ChunkCount)
}
