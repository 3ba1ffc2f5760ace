package search

import (
	"context"

	"github.com/m2ux/concept-rag-sub002/internal/cache"
	"github.com/m2ux/concept-rag-sub002/internal/concept"
	"github.com/m2ux/concept-rag-sub002/internal/config"
	"github.com/m2ux/concept-rag-sub002/internal/embed"
	"github.com/m2ux/concept-rag-sub002/internal/errs"
	"github.com/m2ux/concept-rag-sub002/internal/scorer"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

// CatalogResult is one ranked catalog search hit.
type CatalogResult struct {
	Row   store.CatalogRow
	Score scorer.Scored
}

// CatalogService answers "which documents are about X?":
// hybrid search over document summaries, with the catalog weight profile
// (stronger Title, lighter Lexical) rather than the chunk-search default.
type CatalogService struct {
	catalog  *store.CatalogRepo
	chunks   *store.ChunkRepo
	embedder embed.Embedder
	expander *concept.Expander
	weights  config.WeightsConfig
	cache    *cache.SearchCache[[]CatalogResult]
}

// NewCatalogService constructs a CatalogService. cache may be nil to
// disable result caching.
func NewCatalogService(
	catalog *store.CatalogRepo,
	chunks *store.ChunkRepo,
	embedder embed.Embedder,
	expander *concept.Expander,
	weights config.WeightsConfig,
	resultCache *cache.SearchCache[[]CatalogResult],
) *CatalogService {
	return &CatalogService{catalog: catalog, chunks: chunks, embedder: embedder, expander: expander, weights: weights, cache: resultCache}
}

// Search returns documents ranked by hybrid score against query.
func (s *CatalogService) Search(ctx context.Context, query string, opts Options) ([]CatalogResult, error) {
	limit := limitOrDefault(opts.Limit)
	k := kOrDefault(opts.K)
	weights := resolveWeights(s.weights.Catalog, opts.Weights)

	fp, useCache := s.fingerprint(query, opts, weights)
	if useCache {
		if hit, ok := s.cache.Get(fp); ok {
			return hit, nil
		}
	}

	expanded, err := s.expander.Expand(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.CodeSearchInvalidQuery, errs.CategorySearch, errs.SeverityError, false, "query expansion failed", err)
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errs.Embedding(errs.CodeEmbedProvider, "query embedding failed", err)
	}

	bm25Query := joinTerms(expanded.Terms)
	vecHits, err := s.catalog.SearchByVector(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	bm25Hits, err := s.catalog.SearchText(ctx, bm25Query, k)
	if err != nil {
		return nil, errs.Database(errs.CodeDBQuery, "catalog bm25 search failed", err)
	}

	vecByID := vectorScoresByID(vecHits, func(r store.CatalogRow) uint32 { return r.ID })
	bm25ByID := bm25ScoresByID(bm25Hits)

	union := make(map[uint32]struct{}, len(vecByID)+len(bm25ByID))
	for id := range vecByID {
		union[id] = struct{}{}
	}
	for id := range bm25ByID {
		union[id] = struct{}{}
	}

	rowsByID := make(map[uint32]store.CatalogRow, len(union))
	candidates := make([]scorer.Candidate, 0, len(union))
	for id := range union {
		row, ok, err := s.catalog.Get(id)
		if err != nil || !ok {
			continue
		}
		rowsByID[id] = row
		candidates = append(candidates, scorer.Candidate{
			ID:      id,
			Vector:  vecByID[id],
			BM25:    bm25ByID[id],
			Title:   titleScore(row.SourcePath, termTexts(expanded.Terms)),
			Concept: s.conceptSignal(row, expanded.ConceptIDs),
			Lexical: lexicalScore(row.Summary, expanded.LexicalTerms),
		})
	}

	scored := scorer.Score(candidates, weights, limit)
	out := make([]CatalogResult, 0, len(scored))
	for _, sc := range scored {
		out = append(out, CatalogResult{Row: rowsByID[sc.ID], Score: sc})
	}

	if useCache {
		s.cache.Set(fp, out)
	}
	return out, nil
}

// conceptSignal approximates the catalog-level concept overlap by
// checking the document's chunks (catalog rows don't carry concept_ids
// directly; concepts are a chunk-level relation).
func (s *CatalogService) conceptSignal(row store.CatalogRow, expandedConceptIDs []uint32) float64 {
	if s.chunks == nil || len(expandedConceptIDs) == 0 {
		return 0
	}
	chunks, err := s.chunks.FindBySource(row.ID, 0)
	if err != nil || len(chunks) == 0 {
		return 0
	}
	var total float64
	for _, c := range chunks {
		total += conceptOverlap(c.ConceptIDs, expandedConceptIDs)
	}
	return total / float64(len(chunks))
}

func (s *CatalogService) fingerprint(query string, opts Options, weights config.WeightProfile) (string, bool) {
	if s.cache == nil || opts.Debug {
		return "", false
	}
	fp, err := cache.Fingerprint(query, struct {
		Service string
		Limit   int
		K       int
		Weights config.WeightProfile
	}{Service: "catalog_search", Limit: limitOrDefault(opts.Limit), K: kOrDefault(opts.K), Weights: weights})
	if err != nil {
		return "", false
	}
	return fp, true
}

func termTexts(terms []concept.ExpandedTerm) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Text
	}
	return out
}

func joinTerms(terms []concept.ExpandedTerm) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " "
		}
		out += t.Text
	}
	return out
}
