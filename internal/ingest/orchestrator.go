package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/m2ux/concept-rag-sub002/internal/concept"
	"github.com/m2ux/concept-rag-sub002/internal/embed"
	"github.com/m2ux/concept-rag-sub002/internal/errs"
	"github.com/m2ux/concept-rag-sub002/internal/ident"
	"github.com/m2ux/concept-rag-sub002/internal/resilience"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

// completeness classifies where a document's state machine currently sits
// against the store.
type completeness int

const (
	completenessMissing completeness = iota
	completenessChunksOnly
	completenessConceptsOnly
	completenessComplete
)

// OrchestratorConfig wires an Orchestrator's collaborators.
type OrchestratorConfig struct {
	Loader     Loader
	Extractor  LLMExtractor
	Embedder   embed.Embedder
	StageCache *StageCache

	Catalog    *store.CatalogRepo
	Chunks     *store.ChunkRepo
	Concepts   *store.ConceptRepo
	Categories *store.CategoryRepo

	ConceptIndex *concept.Index

	LLMEnvelope   *resilience.Envelope
	EmbedEnvelope *resilience.Envelope

	Log *slog.Logger
}

// RunOptions controls one seeding pass, mapped directly from the CLI's
// seed flags.
type RunOptions struct {
	// Overwrite forces every document through the full pipeline
	// regardless of recorded completeness (--overwrite).
	Overwrite bool
	// UseCache controls whether the stage cache is consulted before
	// calling the LLM extractor (--use-cache, default true).
	UseCache bool
	// CacheOnly makes a stage cache miss a hard failure instead of
	// falling through to the LLM extractor (--cache-only).
	CacheOnly bool
}

// Orchestrator runs a seeding pass over a directory of documents: delete-
// before-reinsert per document, graceful per-document degradation across
// a batch (one failure doesn't abort the run), a durable stage-cache
// checkpoint written before any store mutation.
type Orchestrator struct {
	cfg OrchestratorConfig
}

// NewOrchestrator constructs an Orchestrator from cfg.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Orchestrator{cfg: cfg}
}

// StageCache returns the orchestrator's stage cache, for CLI flows like
// --clear-cache that operate on it outside of a Run.
func (o *Orchestrator) StageCache() *StageCache { return o.cfg.StageCache }

// LLMBreakerState reports the extraction circuit breaker's current state,
// for CLI status reporting.
func (o *Orchestrator) LLMBreakerState() resilience.State { return o.cfg.LLMEnvelope.State() }

// EmbedBreakerState reports the embedding circuit breaker's current state,
// for CLI status reporting.
func (o *Orchestrator) EmbedBreakerState() resilience.State { return o.cfg.EmbedEnvelope.State() }

// DocumentOutcome is what happened to one discovered document.
type DocumentOutcome struct {
	SourcePath string
	Status     string // "skipped" | "chunks_only" | "concepts_only" | "processed" | "failed"
	ErrorCode  string
}

// IngestionReport summarizes one orchestrator run: counts per outcome
// plus the failures, giving the CLI's exit-code policy concrete data to
// decide from.
type IngestionReport struct {
	Skipped        int
	ChunksOnly     int
	ConceptsOnly   int
	FullyProcessed int
	Failed         []DocumentOutcome
	Duration       time.Duration
}

// Run discovers every regular file under root (files no loader claims are
// reported as skipped), processes each independently, and rebuilds the concept index and category counts once
// at the end. opts.Overwrite forces every document through the full
// pipeline regardless of its recorded completeness; the default,
// incremental mode relies on classify's gap detection instead.
func (o *Orchestrator) Run(ctx context.Context, root string, opts RunOptions) (IngestionReport, error) {
	start := time.Now()
	report := IngestionReport{}

	if removed, err := o.cfg.StageCache.Sweep(time.Now()); err == nil && removed > 0 {
		o.cfg.Log.Info("stage cache sweep removed expired entries", slog.Int("removed", removed))
	}

	paths, err := discoverFiles(root)
	if err != nil {
		return report, errs.Document(errs.CodeDocParse, "discover documents", err)
	}

	for _, path := range paths {
		outcome := o.processOne(ctx, path, opts)
		switch outcome.Status {
		case "skipped":
			report.Skipped++
		case "chunks_only":
			report.ChunksOnly++
		case "concepts_only":
			report.ConceptsOnly++
		case "processed":
			report.FullyProcessed++
		case "failed":
			report.Failed = append(report.Failed, outcome)
			o.cfg.Log.Warn("document ingestion failed",
				slog.String("source", outcome.SourcePath),
				slog.String("code", outcome.ErrorCode))
		}
	}

	if err := o.rebuildConceptIndex(ctx); err != nil {
		return report, err
	}
	if err := o.recomputeCategoryCounts(); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	return report, nil
}

// processOne carries one document through the state machine. Errors are
// captured into the returned outcome rather than propagated, so one bad
// document never aborts the batch.
func (o *Orchestrator) processOne(ctx context.Context, path string, opts RunOptions) DocumentOutcome {
	loader, ok := o.cfg.Loader.LoaderFor(path)
	if !ok {
		return DocumentOutcome{SourcePath: path, Status: "skipped", ErrorCode: errs.CodeDocUnsupportedFormat}
	}

	docs, err := loader.Load(ctx, path)
	if err != nil {
		return o.fail(path, errs.CodeDocParse)
	}
	if len(docs) == 0 {
		return DocumentOutcome{SourcePath: path, Status: "skipped"}
	}

	var text string
	for _, d := range docs {
		text += d.Text + "\n\n"
	}
	contentHash := ident.ContentHash([]byte(text))

	existing, found, err := o.cfg.Catalog.FindBySource(path)
	if err != nil {
		return o.fail(path, errs.CodeDBQuery)
	}

	state := o.classify(found, existing, contentHash)
	if opts.Overwrite {
		state = completenessMissing
	} else if state == completenessComplete {
		return DocumentOutcome{SourcePath: path, Status: "skipped"}
	}

	var entry StageEntry
	var cached bool
	if opts.UseCache {
		entry, cached, err = o.cfg.StageCache.Get(contentHash)
		if err != nil {
			return o.fail(path, errs.CodeDocParse)
		}
	}
	if !cached {
		if opts.CacheOnly {
			return o.fail(path, errs.CodeDocParse)
		}
		entry, err = o.runLLMStage(ctx, path, contentHash, text)
		if err != nil {
			return o.fail(path, errorCode(err))
		}
		if opts.UseCache {
			if err := o.cfg.StageCache.Put(entry); err != nil {
				return o.fail(path, errs.CodeDocParse)
			}
		}
	}

	if err := o.persist(ctx, path, contentHash, entry); err != nil {
		return o.fail(path, errs.CodeDBQuery)
	}

	switch state {
	case completenessChunksOnly:
		return DocumentOutcome{SourcePath: path, Status: "chunks_only"}
	case completenessConceptsOnly:
		return DocumentOutcome{SourcePath: path, Status: "concepts_only"}
	default:
		return DocumentOutcome{SourcePath: path, Status: "processed"}
	}
}

func (o *Orchestrator) fail(path, code string) DocumentOutcome {
	return DocumentOutcome{SourcePath: path, Status: "failed", ErrorCode: code}
}

// errorCode extracts the domain error code from err when present, falling
// back to the resilience timeout code since most wrapped LLM/embedding
// failures reach here after exhausting the resilience envelope's retries.
func errorCode(err error) string {
	var domainErr *errs.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return errs.CodeResTimeout
}

// classify runs the four-way completeness check for one document.
func (o *Orchestrator) classify(found bool, row store.CatalogRow, contentHash string) completeness {
	if !found || row.ContentHash != contentHash {
		return completenessMissing
	}
	if row.Summary == "" {
		return completenessConceptsOnly
	}
	chunks, err := o.cfg.Chunks.FindBySource(row.ID, 1)
	if err != nil || len(chunks) == 0 {
		return completenessChunksOnly
	}
	return completenessComplete
}

// runLLMStage chunks text and resiliently extracts concepts per chunk and
// a document-level summary, returning the durable stage entry. The
// resilience envelope wraps every individual LLM call so a single flaky
// chunk call doesn't abort the whole document.
func (o *Orchestrator) runLLMStage(ctx context.Context, path, contentHash, text string) (StageEntry, error) {
	chunks := ChunkText(text)

	entry := StageEntry{
		ContentHash: contentHash,
		SourcePath:  path,
		Chunks:      make([]string, len(chunks)),
		Concepts:    make([]ConceptExtraction, len(chunks)),
	}

	for i, c := range chunks {
		entry.Chunks[i] = c.Text
		var extraction ConceptExtraction
		err := o.cfg.LLMEnvelope.Execute(ctx, func(ctx context.Context) error {
			var innerErr error
			extraction, innerErr = o.cfg.Extractor.ExtractConcepts(ctx, c.Text)
			return innerErr
		})
		if err != nil {
			return StageEntry{}, err
		}
		entry.Concepts[i] = extraction
	}

	var summary string
	err := o.cfg.LLMEnvelope.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		summary, innerErr = o.cfg.Extractor.Summarize(ctx, text)
		return innerErr
	})
	if err != nil {
		return StageEntry{}, err
	}
	entry.Summary = summary

	return entry, nil
}

// persist deletes any prior rows for this document then inserts the fresh
// ones, in that order. Within the insert side, referenced rows are
// always made visible before the rows that reference them: concepts and
// the catalog row land before chunks, since chunks carry both a catalog_id
// and concept_ids foreign-key-style references.
func (o *Orchestrator) persist(ctx context.Context, path, contentHash string, entry StageEntry) error {
	catalogID := ident.SourceID(path)

	if err := o.cfg.Chunks.DeleteByCatalogID(ctx, catalogID); err != nil {
		return err
	}
	if err := o.cfg.Catalog.DeleteBySource(ctx, path); err != nil {
		return err
	}

	catVec, err := o.embed(ctx, entry.Summary)
	if err != nil {
		return err
	}

	categoryIDs, err := upsertCategories(o.cfg.Categories, collectCategoryNames(entry.Concepts))
	if err != nil {
		return err
	}

	chunkRows := make([]store.ChunkRow, len(entry.Chunks))
	conceptRows := make(map[uint32]store.ConceptRow)

	for i, text := range entry.Chunks {
		vec, err := o.embed(ctx, text)
		if err != nil {
			return err
		}
		extraction := entry.Concepts[i]
		conceptIDs := upsertConcepts(o.cfg.Concepts, extraction, vec, conceptRows)

		chunkRows[i] = store.ChunkRow{
			ID:          ident.HashID(fmt.Sprintf("%s#%d", path, i)),
			CatalogID:   catalogID,
			Text:        text,
			ContentHash: ident.ContentHash([]byte(text)),
			ChunkIndex:  i,
			ConceptIDs:  conceptIDs,
			CategoryIDs: categoryIDs,
			Vector:      vec,
		}
	}

	// Concepts and the catalog row must both be visible before the chunk
	// rows that reference them (chunk.catalog_id, chunk.concept_ids) are
	// written, or a concurrent search could observe a chunk whose
	// catalog_id/concept_ids resolve to nothing.
	if len(conceptRows) > 0 {
		rows := make([]store.ConceptRow, 0, len(conceptRows))
		for _, row := range conceptRows {
			rows = append(rows, row)
		}
		if err := o.cfg.Concepts.UpsertMany(ctx, rows); err != nil {
			return err
		}
	}

	if err := o.cfg.Catalog.Upsert(ctx, store.CatalogRow{
		ID:          catalogID,
		SourcePath:  path,
		Summary:     entry.Summary,
		ContentHash: contentHash,
		CategoryIDs: categoryIDs,
		Vector:      catVec,
		UpdatedAt:   time.Now(),
	}); err != nil {
		return err
	}

	return o.cfg.Chunks.UpsertMany(ctx, chunkRows)
}

func (o *Orchestrator) embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := o.cfg.EmbedEnvelope.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		vec, innerErr = o.cfg.Embedder.Embed(ctx, text)
		return innerErr
	})
	return vec, err
}

// rebuildConceptIndex scans every chunk in the store and reconciles
// concept aggregates in one logical pass.
func (o *Orchestrator) rebuildConceptIndex(ctx context.Context) error {
	if o.cfg.ConceptIndex == nil {
		return nil
	}
	all, err := o.cfg.Chunks.GetAll()
	if err != nil {
		return err
	}
	return o.cfg.ConceptIndex.Rebuild(ctx, all)
}

// recomputeCategoryCounts refreshes each category's document/chunk/concept
// counts from the current store state.
func (o *Orchestrator) recomputeCategoryCounts() error {
	cats, err := o.cfg.Categories.List(store.SortByName, 0, "")
	if err != nil {
		return err
	}
	for _, cat := range cats {
		docs, err := o.cfg.Catalog.FindByCategory(cat.ID)
		if err != nil {
			return err
		}
		chunkCount := 0
		conceptSet := make(map[uint32]struct{})
		for _, doc := range docs {
			chunks, err := o.cfg.Chunks.FindBySource(doc.ID, 0)
			if err != nil {
				return err
			}
			chunkCount += len(chunks)
			for _, c := range chunks {
				for _, cid := range c.ConceptIDs {
					conceptSet[cid] = struct{}{}
				}
			}
		}
		cat.DocumentCount = len(docs)
		cat.ChunkCount = chunkCount
		cat.ConceptCount = len(conceptSet)
		if err := o.cfg.Categories.Upsert(cat); err != nil {
			return err
		}
	}
	return nil
}

// discoverFiles walks root collecting every regular file. Files no loader
// claims are reported as skipped by processOne rather than silently
// dropped here, so the run report accounts for everything found.
func discoverFiles(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func collectCategoryNames(extractions []ConceptExtraction) []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range extractions {
		for _, c := range e.Categories {
			canon := ident.CanonicalConcept(c)
			if canon == "" || seen[canon] {
				continue
			}
			seen[canon] = true
			names = append(names, canon)
		}
	}
	return names
}

func upsertCategories(repo *store.CategoryRepo, names []string) ([]uint32, error) {
	ids := make([]uint32, 0, len(names))
	for _, name := range names {
		id := ident.ConceptID(name)
		// First mention creates the category; later mentions keep the
		// existing row (counts are recomputed at the end of the batch).
		if _, found, err := repo.FindByID(id); err != nil {
			return nil, err
		} else if !found {
			if err := repo.Upsert(store.CategoryRow{Name: name}); err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func upsertConcepts(repo *store.ConceptRepo, extraction ConceptExtraction, vec []float32, out map[uint32]store.ConceptRow) []uint32 {
	var ids []uint32
	seen := make(map[uint32]bool)
	all := append(append(append([]string{}, extraction.Primary...), extraction.Technical...), extraction.Related...)
	for _, name := range all {
		canon := ident.CanonicalConcept(name)
		if canon == "" {
			continue
		}
		id := ident.ConceptID(canon)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if _, ok := out[id]; !ok {
			existing, found, _ := repo.FindByID(id)
			row := existing
			if !found {
				row = store.ConceptRow{ID: id, Name: canon, Vector: vec}
			}
			out[id] = row
		}
	}
	return ids
}
