// Package app is the composition root: it opens the four store
// repositories under a data root, wires the cache layer, the concept
// index and query expander, the hybrid scorer's search services, the
// category service, the resilience envelope, and the ingestion
// orchestrator, then hands the finished graph to cmd/conceptrag's
// subcommands. Everything is constructed in one place and owned by App;
// no package-level singletons.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/m2ux/concept-rag-sub002/internal/cache"
	"github.com/m2ux/concept-rag-sub002/internal/category"
	"github.com/m2ux/concept-rag-sub002/internal/concept"
	"github.com/m2ux/concept-rag-sub002/internal/config"
	"github.com/m2ux/concept-rag-sub002/internal/embed"
	"github.com/m2ux/concept-rag-sub002/internal/ingest"
	"github.com/m2ux/concept-rag-sub002/internal/lexical"
	"github.com/m2ux/concept-rag-sub002/internal/llm"
	"github.com/m2ux/concept-rag-sub002/internal/loader"
	"github.com/m2ux/concept-rag-sub002/internal/mcpserver"
	"github.com/m2ux/concept-rag-sub002/internal/resilience"
	"github.com/m2ux/concept-rag-sub002/internal/search"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

// App owns every long-lived collaborator for one data root. Close persists
// the repositories and then releases them and the embedder.
type App struct {
	Config *config.Config
	Log    *slog.Logger

	Catalog    *store.CatalogRepo
	Chunks     *store.ChunkRepo
	Concepts   *store.ConceptRepo
	Categories *store.CategoryRepo

	Embedder embed.Embedder
	Expander *concept.Expander
	Index    *concept.Index

	CatalogSearch *search.CatalogService
	ChunkSearch   *search.ChunkService
	ConceptSearch *search.ConceptService
	CategoryService *category.Service

	Orchestrator *ingest.Orchestrator

	MCP *mcpserver.Server
}

// Options customizes Open beyond what Config carries: flags that vary per
// invocation rather than per data root.
type Options struct {
	// UseCache disables the search-result cache entirely when false (the
	// CLI's --use-cache flag). The embedding cache does not depend on this
	// setting, since embeddings are immutable for a fixed model; only the
	// EMBED_CACHE environment variable turns it off.
	UseCache bool
	// StageCacheDir overrides the stage cache directory (--cache-dir);
	// empty means "<DataRoot>/stage_cache".
	StageCacheDir string
}

// Open constructs every collaborator rooted at cfg.DataRoot.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	catalog, err := store.OpenCatalogRepo(filepath.Join(cfg.DataRoot, "catalog.lance"))
	if err != nil {
		return nil, fmt.Errorf("open catalog repo: %w", err)
	}
	chunks, err := store.OpenChunkRepo(filepath.Join(cfg.DataRoot, "chunks.lance"))
	if err != nil {
		return nil, fmt.Errorf("open chunk repo: %w", err)
	}
	concepts, err := store.OpenConceptRepo(filepath.Join(cfg.DataRoot, "concepts.lance"))
	if err != nil {
		return nil, fmt.Errorf("open concept repo: %w", err)
	}
	categories, err := store.OpenCategoryRepo(filepath.Join(cfg.DataRoot, "categories.lance"))
	if err != nil {
		return nil, fmt.Errorf("open category repo: %w", err)
	}

	embedder, err := embed.NewEmbedder(ctx, embed.ProviderType(cfg.Embeddings.Provider), embed.OllamaConfig{
		Host:  cfg.Embeddings.OllamaHost,
		Model: cfg.Embeddings.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("construct embedder: %w", err)
	}

	lexnet := lexical.NewCachedNetwork(lexical.NewStaticNetwork(), cache.New[string, lexical.Entry](5000))

	expander := concept.NewExpander(concepts, lexnet)
	index := concept.NewIndex(concepts, lexnet)

	var catalogCache *cache.SearchCache[[]search.CatalogResult]
	var chunkCache *cache.SearchCache[[]search.ChunkResult]
	var conceptCache *cache.SearchCache[search.ConceptSearchResult]
	if opts.UseCache {
		catalogCache = cache.NewSearchCache[[]search.CatalogResult]()
		chunkCache = cache.NewSearchCache[[]search.ChunkResult]()
		conceptCache = cache.NewSearchCache[search.ConceptSearchResult]()
	}

	catalogSearch := search.NewCatalogService(catalog, chunks, embedder, expander, cfg.Weights, catalogCache)
	// One ChunkService backs both broad_chunks_search and chunks_search: its
	// Search and SearchInSource methods share one result cache whose
	// fingerprint includes the tool name and the source path, so broad and
	// per-source results never collide.
	chunkSearch := search.NewChunkService(catalog, chunks, embedder, expander, cfg.Weights, chunkCache)
	conceptSearch := search.NewConceptService(concepts, chunks, catalog, embedder, expander, cfg.Weights, conceptCache)

	categoryService := category.NewService(categories, catalog, chunks, concepts)

	llmEnvelope := resilience.NewEnvelope("llm", cfg.Resilience.LLM, log)

	stageCacheDir := opts.StageCacheDir
	if stageCacheDir == "" {
		stageCacheDir = filepath.Join(cfg.DataRoot, "stage_cache")
	}
	stageCache, err := ingest.NewStageCache(stageCacheDir, cfg.Ingest.StageCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("open stage cache: %w", err)
	}

	var extractor ingest.LLMExtractor
	if cfg.Embeddings.Provider == string(embed.ProviderOllama) {
		extractor = llm.NewOllamaExtractor(llm.OllamaConfig{Host: cfg.Embeddings.OllamaHost})
	} else {
		extractor = llm.NewHeuristicExtractor()
	}

	orchestrator := ingest.NewOrchestrator(ingest.OrchestratorConfig{
		Loader:     loader.NewChainFactory(loader.NewTextLoaderFactory()),
		Extractor:  extractor,
		Embedder:   embedder,
		StageCache: stageCache,
		Catalog:    catalog,
		Chunks:     chunks,
		Concepts:   concepts,
		Categories: categories,
		ConceptIndex: index,
		LLMEnvelope:   llmEnvelope,
		EmbedEnvelope: resilience.NewEnvelope("embedding", cfg.Resilience.Embedding, log),
		Log:           log,
	})

	mcp := mcpserver.NewServer(mcpserver.ServerConfig{
		CatalogSearch: catalogSearch,
		ChunkSearch:   chunkSearch,
		ConceptSearch: conceptSearch,
		Categories:    categoryService,
		Catalog:       catalog,
		Chunks:        chunks,
		Concepts:      concepts,
		Log:           log,
	})

	return &App{
		Config:          cfg,
		Log:             log,
		Catalog:         catalog,
		Chunks:          chunks,
		Concepts:        concepts,
		Categories:      categories,
		Embedder:        embedder,
		Expander:        expander,
		Index:           index,
		CatalogSearch:   catalogSearch,
		ChunkSearch:     chunkSearch,
		ConceptSearch:   conceptSearch,
		CategoryService: categoryService,
		Orchestrator:    orchestrator,
		MCP:             mcp,
	}, nil
}

// Close persists and releases every repository and the embedder.
func (a *App) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(a.Catalog.Persist())
	record(a.Chunks.Persist())
	record(a.Concepts.Persist())
	record(a.Categories.Persist())
	record(a.Catalog.Close())
	record(a.Chunks.Close())
	record(a.Concepts.Close())
	record(a.Embedder.Close())
	return firstErr
}
