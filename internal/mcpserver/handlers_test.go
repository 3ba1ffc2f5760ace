package mcpserver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m2ux/concept-rag-sub002/internal/category"
	"github.com/m2ux/concept-rag-sub002/internal/concept"
	"github.com/m2ux/concept-rag-sub002/internal/config"
	"github.com/m2ux/concept-rag-sub002/internal/embed"
	"github.com/m2ux/concept-rag-sub002/internal/errs"
	"github.com/m2ux/concept-rag-sub002/internal/ident"
	"github.com/m2ux/concept-rag-sub002/internal/search"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

type testFixture struct {
	server     *Server
	catalog    *store.CatalogRepo
	chunks     *store.ChunkRepo
	concepts   *store.ConceptRepo
	categories *store.CategoryRepo
	embedder   *embed.StaticEmbedder
}

func newTestServer(t *testing.T) *testFixture {
	t.Helper()
	catalog, err := store.OpenCatalogRepo(t.TempDir())
	require.NoError(t, err)
	chunks, err := store.OpenChunkRepo(t.TempDir())
	require.NoError(t, err)
	concepts, err := store.OpenConceptRepo(t.TempDir())
	require.NoError(t, err)
	categories, err := store.OpenCategoryRepo(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = catalog.Close()
		_ = chunks.Close()
		_ = concepts.Close()
	})

	embedder := embed.NewStaticEmbedder()
	expander := concept.NewExpander(concepts, nil)
	weights := config.DefaultWeights()

	srv := NewServer(ServerConfig{
		CatalogSearch: search.NewCatalogService(catalog, chunks, embedder, expander, weights, nil),
		ChunkSearch:   search.NewChunkService(catalog, chunks, embedder, expander, weights, nil),
		ConceptSearch: search.NewConceptService(concepts, chunks, catalog, embedder, expander, weights, nil),
		Categories:    category.NewService(categories, catalog, chunks, concepts),
		Catalog:       catalog,
		Chunks:        chunks,
		Concepts:      concepts,
	})
	return &testFixture{
		server:     srv,
		catalog:    catalog,
		chunks:     chunks,
		concepts:   concepts,
		categories: categories,
		embedder:   embedder,
	}
}

func (f *testFixture) seedDocument(t *testing.T, source, summary string, conceptNames ...string) store.CatalogRow {
	t.Helper()
	ctx := context.Background()
	vec, err := f.embedder.Embed(ctx, summary)
	require.NoError(t, err)

	row := store.CatalogRow{
		ID: ident.SourceID(source), SourcePath: source, Summary: summary, Vector: vec,
	}
	require.NoError(t, f.catalog.Upsert(ctx, row))

	var conceptIDs []uint32
	for _, name := range conceptNames {
		canonical := ident.CanonicalConcept(name)
		cid := ident.HashID(canonical)
		conceptIDs = append(conceptIDs, cid)
		cvec, err := f.embedder.Embed(ctx, canonical)
		require.NoError(t, err)
		require.NoError(t, f.concepts.UpsertMany(ctx, []store.ConceptRow{{
			ID: cid, Name: canonical, CatalogIDs: []uint32{row.ID}, Vector: cvec,
		}}))
	}

	cvec, err := f.embedder.Embed(ctx, summary)
	require.NoError(t, err)
	require.NoError(t, f.chunks.UpsertMany(ctx, []store.ChunkRow{{
		ID: ident.HashID(source + "#0"), CatalogID: row.ID, Text: summary,
		ChunkIndex: 0, ConceptIDs: conceptIDs, Vector: cvec,
	}}))
	return row
}

func TestCatalogSearchRejectsEmptyText(t *testing.T) {
	f := newTestServer(t)
	_, _, err := f.server.handleCatalogSearch(context.Background(), nil, CatalogSearchInput{})
	requireToolErrorCode(t, err, errs.CodeValidationRequired)
}

func TestCatalogSearchRejectsOverlongText(t *testing.T) {
	f := newTestServer(t)
	in := CatalogSearchInput{Text: strings.Repeat("x", maxQueryLength+1)}
	_, _, err := f.server.handleCatalogSearch(context.Background(), nil, in)
	requireToolErrorCode(t, err, errs.CodeValidationTooLong)
}

func TestCatalogSearchReturnsSeededDocument(t *testing.T) {
	f := newTestServer(t)
	f.seedDocument(t, "raft-paper.pdf", "raft consensus protocol for replicated logs")

	_, out, err := f.server.handleCatalogSearch(context.Background(), nil, CatalogSearchInput{
		Text: "raft consensus protocol for replicated logs",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	require.Equal(t, "raft-paper.pdf", out.Results[0].Source)
	require.NotEmpty(t, out.Results[0].Summary)
}

func TestChunksSearchRequiresSource(t *testing.T) {
	f := newTestServer(t)
	_, _, err := f.server.handleChunksSearch(context.Background(), nil, ChunksSearchInput{Text: "anything"})
	requireToolErrorCode(t, err, errs.CodeValidationRequired)
}

func TestBroadChunksSearchResolvesSourcePath(t *testing.T) {
	f := newTestServer(t)
	f.seedDocument(t, "ddia.epub", "consistency models in distributed databases")

	_, out, err := f.server.handleBroadChunksSearch(context.Background(), nil, BroadChunksSearchInput{
		Text: "consistency models in distributed databases",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	require.Equal(t, "ddia.epub", out.Results[0].Source)
}

func TestSourceConceptsUnknownSource(t *testing.T) {
	f := newTestServer(t)
	_, _, err := f.server.handleSourceConcepts(context.Background(), nil, SourceConceptsInput{Source: "nope.pdf"})
	requireToolErrorCode(t, err, errs.CodeDBNotFound)
}

func TestSourceConceptsListsConceptNames(t *testing.T) {
	f := newTestServer(t)
	f.seedDocument(t, "ddia.epub", "a tour of replication and partitioning", "replication", "partitioning")

	_, out, err := f.server.handleSourceConcepts(context.Background(), nil, SourceConceptsInput{Source: "ddia.epub"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"replication", "partitioning"}, out.Concepts)
}

func TestConceptSourcesListsDocuments(t *testing.T) {
	f := newTestServer(t)
	f.seedDocument(t, "ddia.epub", "a tour of replication", "replication")

	_, out, err := f.server.handleConceptSources(context.Background(), nil, ConceptSourcesInput{Concept: "replication"})
	require.NoError(t, err)
	require.Equal(t, []string{"ddia.epub"}, out.Sources)
}

func TestConceptSourcesUnknownConcept(t *testing.T) {
	f := newTestServer(t)
	_, _, err := f.server.handleConceptSources(context.Background(), nil, ConceptSourcesInput{Concept: "phlogiston"})
	requireToolErrorCode(t, err, errs.CodeDBNotFound)
}

func TestListCategoriesSortsAndFilters(t *testing.T) {
	f := newTestServer(t)
	require.NoError(t, f.categories.Upsert(store.CategoryRow{Name: "databases", DocumentCount: 3}))
	require.NoError(t, f.categories.Upsert(store.CategoryRow{Name: "distributed systems", DocumentCount: 7}))
	require.NoError(t, f.categories.Upsert(store.CategoryRow{Name: "economics", DocumentCount: 1}))

	_, out, err := f.server.handleListCategories(context.Background(), nil, ListCategoriesInput{Sort: "count"})
	require.NoError(t, err)
	require.Len(t, out.Categories, 3)
	require.Equal(t, "distributed systems", out.Categories[0].Name)

	_, out, err = f.server.handleListCategories(context.Background(), nil, ListCategoriesInput{Prefix: "d"})
	require.NoError(t, err)
	require.Len(t, out.Categories, 2)
}

func TestCategorySearchUnknownCategory(t *testing.T) {
	f := newTestServer(t)
	_, _, err := f.server.handleCategorySearch(context.Background(), nil, CategorySearchInput{Category: "alchemy"})
	requireToolErrorCode(t, err, errs.CodeDBNotFound)
}

func TestMapErrorHidesRawErrors(t *testing.T) {
	toolErr := mapError(errors.New("pq: connection reset by peer"))
	require.Equal(t, "INTERNAL_ERROR", toolErr.Code)
	require.NotContains(t, toolErr.Message, "pq:")
}

func requireToolErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, code, toolErr.Code)
}
