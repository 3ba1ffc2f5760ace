package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m2ux/concept-rag-sub002/internal/concept"
	"github.com/m2ux/concept-rag-sub002/internal/config"
	"github.com/m2ux/concept-rag-sub002/internal/embed"
	"github.com/m2ux/concept-rag-sub002/internal/resilience"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

type fakeLoader struct{ ext string }

func (l *fakeLoader) SupportedExtensions() []string { return []string{l.ext} }
func (l *fakeLoader) LoaderFor(path string) (DocumentLoader, bool) {
	if filepath.Ext(path) == l.ext {
		return l, true
	}
	return nil, false
}
func (l *fakeLoader) Load(ctx context.Context, path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []Document{{Text: string(data)}}, nil
}

type fakeExtractor struct{ calls int }

func (e *fakeExtractor) ExtractConcepts(ctx context.Context, chunkText string) (ConceptExtraction, error) {
	e.calls++
	return ConceptExtraction{Primary: []string{"entropy"}, Categories: []string{"physics"}}, nil
}
func (e *fakeExtractor) Summarize(ctx context.Context, documentText string) (string, error) {
	return "a generated summary", nil
}

func testEnvelope() *resilience.Envelope {
	return resilience.NewEnvelope("test", config.ResilienceProfile{
		BulkheadMaxConcurrent: 4, BulkheadQueueSize: 4,
		BreakerFailureThreshold: 5, BreakerCooldown: time.Second, BreakerSuccessThreshold: 1,
		Timeout: time.Second, RetryMaxAttempts: 1, RetryBaseDelay: time.Millisecond,
	}, nil)
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, OrchestratorConfig) {
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

	stageCache, err := NewStageCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	cfg := OrchestratorConfig{
		Loader:        &fakeLoader{ext: ".txt"},
		Extractor:     &fakeExtractor{},
		Embedder:      embed.NewStaticEmbedder(),
		StageCache:    stageCache,
		Catalog:       catalog,
		Chunks:        chunks,
		Concepts:      concepts,
		Categories:    categories,
		ConceptIndex:  concept.NewIndex(concepts, nil),
		LLMEnvelope:   testEnvelope(),
		EmbedEnvelope: testEnvelope(),
	}
	return NewOrchestrator(cfg), cfg
}

func writeDoc(t *testing.T, dir, name string, words int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(paragraph(words)), 0o644))
	return path
}

func TestOrchestratorProcessesNewDocument(t *testing.T) {
	orch, cfg := newTestOrchestrator(t)
	dir := t.TempDir()
	writeDoc(t, dir, "book.txt", 150)

	report, err := orch.Run(context.Background(), dir, RunOptions{UseCache: true})
	require.NoError(t, err)
	require.Equal(t, 1, report.FullyProcessed)
	require.Empty(t, report.Failed)

	row, found, err := cfg.Catalog.FindBySource(filepath.Join(dir, "book.txt"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a generated summary", row.Summary)

	chunks, err := cfg.Chunks.FindBySource(row.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	cats, err := cfg.Categories.List(store.SortByName, 0, "")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, "physics", cats[0].Name)
	require.Equal(t, 1, cats[0].DocumentCount)
}

func TestOrchestratorSkipsUnchangedDocumentOnRerun(t *testing.T) {
	orch, cfg := newTestOrchestrator(t)
	_ = cfg
	dir := t.TempDir()
	writeDoc(t, dir, "book.txt", 150)

	_, err := orch.Run(context.Background(), dir, RunOptions{UseCache: true})
	require.NoError(t, err)

	report, err := orch.Run(context.Background(), dir, RunOptions{UseCache: true})
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, report.FullyProcessed)
}

func TestOrchestratorSkipsUnsupportedExtension(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.bin"), []byte("data"), 0o644))

	report, err := orch.Run(context.Background(), dir, RunOptions{UseCache: true})
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
}

func TestOrchestratorReusesStageCacheWithoutReextraction(t *testing.T) {
	orch, cfg := newTestOrchestrator(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "book.txt", 150)

	_, err := orch.Run(context.Background(), dir, RunOptions{UseCache: true})
	require.NoError(t, err)

	// force reprocessing by clearing the catalog row but keep the stage cache
	require.NoError(t, cfg.Catalog.DeleteBySource(context.Background(), path))

	extractor := cfg.Extractor.(*fakeExtractor)
	callsBefore := extractor.calls

	_, err = orch.Run(context.Background(), dir, RunOptions{UseCache: true})
	require.NoError(t, err)
	require.Equal(t, callsBefore, extractor.calls, "cached stage entry must not re-invoke the LLM")
}
