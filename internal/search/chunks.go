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

// ChunkResult is one ranked chunk search hit.
type ChunkResult struct {
	Row   store.ChunkRow
	Score scorer.Scored
}

// ChunkService implements both broad chunk search (corpus-wide) and
// chunk-in-source search (pre-filtered to one document). The two differ
// only by whether SourcePath is set on the call; the source-path filter
// runs before scoring rather than after.
type ChunkService struct {
	catalog  *store.CatalogRepo
	chunks   *store.ChunkRepo
	embedder embed.Embedder
	expander *concept.Expander
	weights  config.WeightsConfig
	cache    *cache.SearchCache[[]ChunkResult]
}

// NewChunkService constructs a ChunkService. resultCache may be nil to
// disable caching.
func NewChunkService(
	catalog *store.CatalogRepo,
	chunks *store.ChunkRepo,
	embedder embed.Embedder,
	expander *concept.Expander,
	weights config.WeightsConfig,
	resultCache *cache.SearchCache[[]ChunkResult],
) *ChunkService {
	return &ChunkService{catalog: catalog, chunks: chunks, embedder: embedder, expander: expander, weights: weights, cache: resultCache}
}

// Search runs broad chunk search: hybrid scoring over every chunk in the
// corpus.
func (s *ChunkService) Search(ctx context.Context, query string, opts Options) ([]ChunkResult, error) {
	return s.search(ctx, query, "", opts)
}

// SearchInSource runs chunk-in-source search: hybrid scoring restricted to
// chunks belonging to the document at sourcePath.
func (s *ChunkService) SearchInSource(ctx context.Context, query, sourcePath string, opts Options) ([]ChunkResult, error) {
	return s.search(ctx, query, sourcePath, opts)
}

func (s *ChunkService) search(ctx context.Context, query, sourcePath string, opts Options) ([]ChunkResult, error) {
	limit := limitOrDefault(opts.Limit)
	k := kOrDefault(opts.K)
	weights := resolveWeights(s.weights.Default, opts.Weights)

	fp, useCache := s.fingerprint(query, sourcePath, opts, weights)
	if useCache {
		if hit, ok := s.cache.Get(fp); ok {
			return hit, nil
		}
	}

	var catalogID uint32
	var inSource bool
	if sourcePath != "" {
		row, ok, err := s.catalog.FindBySource(sourcePath)
		if err != nil {
			return nil, errs.Database(errs.CodeDBQuery, "catalog lookup for source filter failed", err)
		}
		if !ok {
			return []ChunkResult{}, nil
		}
		catalogID = row.ID
		inSource = true
	}

	expanded, err := s.expander.Expand(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.CodeSearchInvalidQuery, errs.CategorySearch, errs.SeverityError, false, "query expansion failed", err)
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errs.Embedding(errs.CodeEmbedProvider, "query embedding failed", err)
	}

	var vecHits []store.Scored[store.ChunkRow]
	var bm25Hits []*store.BM25Result
	if inSource {
		// Chunk-in-source search applies the source-path filter before the
		// top-k cut, not after a corpus-wide retrieval: a document whose
		// chunks don't make the global top-K would otherwise come back
		// empty even though in-source candidates exist.
		vecHits, err = s.chunks.SearchByVectorInSource(ctx, vec, catalogID, k)
		if err != nil {
			return nil, err
		}
		bm25Hits, err = s.chunks.SearchTextInSource(ctx, joinTerms(expanded.Terms), catalogID, k)
		if err != nil {
			return nil, errs.Database(errs.CodeDBQuery, "chunk bm25 search failed", err)
		}
	} else {
		vecHits, err = s.chunks.SearchByVector(ctx, vec, k)
		if err != nil {
			return nil, err
		}
		bm25Hits, err = s.chunks.SearchText(ctx, joinTerms(expanded.Terms), k)
		if err != nil {
			return nil, errs.Database(errs.CodeDBQuery, "chunk bm25 search failed", err)
		}
	}

	vecByID := vectorScoresByID(vecHits, func(r store.ChunkRow) uint32 { return r.ID })
	bm25ByID := bm25ScoresByID(bm25Hits)

	union := make(map[uint32]struct{}, len(vecByID)+len(bm25ByID))
	for id := range vecByID {
		union[id] = struct{}{}
	}
	for id := range bm25ByID {
		union[id] = struct{}{}
	}

	terms := termTexts(expanded.Terms)
	rowsByID := make(map[uint32]store.ChunkRow, len(union))
	candidates := make([]scorer.Candidate, 0, len(union))
	for id := range union {
		row, ok, err := s.chunks.Get(id)
		if err != nil || !ok {
			continue
		}
		rowsByID[id] = row
		candidates = append(candidates, scorer.Candidate{
			ID:      id,
			Vector:  vecByID[id],
			BM25:    bm25ByID[id],
			Title:   titleScore(s.sourceTitle(row.CatalogID), terms),
			Concept: conceptOverlap(row.ConceptIDs, expanded.ConceptIDs),
			Lexical: lexicalScore(row.Text, expanded.LexicalTerms),
		})
	}

	scored := scorer.Score(candidates, weights, limit)
	out := make([]ChunkResult, 0, len(scored))
	for _, sc := range scored {
		out = append(out, ChunkResult{Row: rowsByID[sc.ID], Score: sc})
	}

	if useCache {
		s.cache.Set(fp, out)
	}
	return out, nil
}

func (s *ChunkService) sourceTitle(catalogID uint32) string {
	row, ok, err := s.catalog.Get(catalogID)
	if err != nil || !ok {
		return ""
	}
	return row.SourcePath
}

func (s *ChunkService) fingerprint(query, sourcePath string, opts Options, weights config.WeightProfile) (string, bool) {
	if s.cache == nil || opts.Debug {
		return "", false
	}
	service := "broad_chunks_search"
	if sourcePath != "" {
		service = "chunks_search"
	}
	fp, err := cache.Fingerprint(query, struct {
		Service    string
		SourcePath string
		Limit      int
		K          int
		Weights    config.WeightProfile
	}{Service: service, SourcePath: sourcePath, Limit: limitOrDefault(opts.Limit), K: kOrDefault(opts.K), Weights: weights})
	if err != nil {
		return "", false
	}
	return fp, true
}
