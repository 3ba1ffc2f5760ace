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

// ConceptSearchResult is the outcome of a concept search: the concept the
// query resolved to, and the chunks ranked within it.
type ConceptSearchResult struct {
	Concept store.ConceptRow
	Related []store.ConceptRow
	Chunks  []ChunkResult
}

// ConceptService implements concept-anchored search: expand the
// query, pick the single best-matching concept by name or vector
// similarity, retrieve chunks carrying that concept id, and rank them by
// per-signal score with no lexical expansion (the signal that would
// otherwise come from a component this service deliberately skips).
type ConceptService struct {
	concepts *store.ConceptRepo
	chunks   *store.ChunkRepo
	catalog  *store.CatalogRepo
	embedder embed.Embedder
	expander *concept.Expander
	weights  config.WeightsConfig
	cache    *cache.SearchCache[ConceptSearchResult]
}

// NewConceptService constructs a ConceptService. resultCache may be nil to
// disable caching.
func NewConceptService(
	concepts *store.ConceptRepo,
	chunks *store.ChunkRepo,
	catalog *store.CatalogRepo,
	embedder embed.Embedder,
	expander *concept.Expander,
	weights config.WeightsConfig,
	resultCache *cache.SearchCache[ConceptSearchResult],
) *ConceptService {
	return &ConceptService{concepts: concepts, chunks: chunks, catalog: catalog, embedder: embedder, expander: expander, weights: weights, cache: resultCache}
}

// Search resolves query to its best-matching concept and returns the
// chunks that carry it, ranked.
func (s *ConceptService) Search(ctx context.Context, query string, opts Options) (ConceptSearchResult, error) {
	limit := limitOrDefault(opts.Limit)
	k := kOrDefault(opts.K)
	weights := resolveWeights(s.weights.Default, opts.Weights)
	weights.Lexical = 0 // concept search ranks without lexical expansion

	fp, useCache := s.fingerprint(query, opts, weights)
	if useCache {
		if hit, ok := s.cache.Get(fp); ok {
			return hit, nil
		}
	}

	expanded, err := s.expander.Expand(ctx, query)
	if err != nil {
		return ConceptSearchResult{}, errs.Wrap(errs.CodeSearchInvalidQuery, errs.CategorySearch, errs.SeverityError, false, "query expansion failed", err)
	}

	target, err := s.resolveConcept(ctx, query, expanded)
	if err != nil {
		return ConceptSearchResult{}, err
	}
	if target == nil {
		return ConceptSearchResult{}, errs.Search(errs.CodeSearchNoResults, "no matching concept found")
	}

	related := make([]store.ConceptRow, 0, len(target.RelatedConceptIDs))
	for _, rid := range target.RelatedConceptIDs {
		if row, ok, err := s.concepts.FindByID(rid); err == nil && ok {
			related = append(related, row)
		}
	}

	candidateChunks, err := s.chunks.FindByConcept(target.ID, k)
	if err != nil {
		return ConceptSearchResult{}, errs.Database(errs.CodeDBQuery, "chunk lookup by concept failed", err)
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return ConceptSearchResult{}, errs.Embedding(errs.CodeEmbedProvider, "query embedding failed", err)
	}
	vecHits, err := s.chunks.SearchByVector(ctx, vec, k)
	if err != nil {
		return ConceptSearchResult{}, err
	}
	vecByID := vectorScoresByID(vecHits, func(r store.ChunkRow) uint32 { return r.ID })

	bm25Hits, err := s.chunks.SearchText(ctx, joinTerms(expanded.Terms), k)
	if err != nil {
		return ConceptSearchResult{}, errs.Database(errs.CodeDBQuery, "chunk bm25 search failed", err)
	}
	bm25ByID := bm25ScoresByID(bm25Hits)

	terms := termTexts(expanded.Terms)
	candidates := make([]scorer.Candidate, 0, len(candidateChunks))
	rowsByID := make(map[uint32]store.ChunkRow, len(candidateChunks))
	for _, row := range candidateChunks {
		rowsByID[row.ID] = row
		candidates = append(candidates, scorer.Candidate{
			ID:      row.ID,
			Vector:  vecByID[row.ID],
			BM25:    bm25ByID[row.ID],
			Title:   titleScore(s.sourceTitle(row.CatalogID), terms),
			Concept: conceptOverlap(row.ConceptIDs, []uint32{target.ID}),
			Lexical: 0,
		})
	}

	scored := scorer.Score(candidates, weights, limit)
	chunkResults := make([]ChunkResult, 0, len(scored))
	for _, sc := range scored {
		chunkResults = append(chunkResults, ChunkResult{Row: rowsByID[sc.ID], Score: sc})
	}

	result := ConceptSearchResult{Concept: *target, Related: related, Chunks: chunkResults}
	if useCache {
		s.cache.Set(fp, result)
	}
	return result, nil
}

// resolveConcept picks the single best-matching concept: an exact
// canonical-name match first, then the first query-expanded concept id
// that has a row, falling back to the nearest concept by vector
// similarity to the query embedding.
func (s *ConceptService) resolveConcept(ctx context.Context, query string, expanded concept.ExpandedQuery) (*store.ConceptRow, error) {
	if row, ok, err := s.concepts.FindByName(query); err == nil && ok {
		return &row, nil
	}
	for _, id := range expanded.ConceptIDs {
		if row, ok, err := s.concepts.FindByID(id); err == nil && ok {
			return &row, nil
		}
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errs.Embedding(errs.CodeEmbedProvider, "query embedding failed", err)
	}
	hits, err := s.concepts.SearchSimilar(ctx, vec, 1)
	if err != nil {
		return nil, errs.Database(errs.CodeDBQuery, "concept vector search failed", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0].Row, nil
}

func (s *ConceptService) sourceTitle(catalogID uint32) string {
	row, ok, err := s.catalog.Get(catalogID)
	if err != nil || !ok {
		return ""
	}
	return row.SourcePath
}

func (s *ConceptService) fingerprint(query string, opts Options, weights config.WeightProfile) (string, bool) {
	if s.cache == nil || opts.Debug {
		return "", false
	}
	fp, err := cache.Fingerprint(query, struct {
		Service string
		Limit   int
		K       int
		Weights config.WeightProfile
	}{Service: "concept_search", Limit: limitOrDefault(opts.Limit), K: kOrDefault(opts.K), Weights: weights})
	if err != nil {
		return "", false
	}
	return fp, true
}
