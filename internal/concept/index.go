// Package concept implements the concept index (corpus-derived concept
// statistics, reconciled at rebuild time) and the query expander that
// couples it with the static lexical network to enrich a raw query with
// weighted related terms.
package concept

import (
	"context"
	"sort"

	"github.com/m2ux/concept-rag-sub002/internal/lexical"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

// Index owns the corpus-wide concept statistics: per-concept chunk count,
// the set of documents mentioning it, corpus co-occurrence, and a weight
// normalized by corpus frequency. It is rebuilt after every batch of
// ingestion by scanning every chunk in the store, not just the latest
// batch, so counts stay exact.
type Index struct {
	concepts *store.ConceptRepo
	lexnet   lexical.Network
}

// NewIndex constructs an Index over concepts, enriching from lexnet at
// rebuild time. lexnet may be nil to skip lexical enrichment (tests).
func NewIndex(concepts *store.ConceptRepo, lexnet lexical.Network) *Index {
	return &Index{concepts: concepts, lexnet: lexnet}
}

// Rebuild recomputes every concept's aggregate fields from allChunks (the
// full corpus) and writes them back via ReconcileAggregates in a single
// logical pass: the aggregates are computed entirely
// in memory before any row is mutated, so concurrent readers never see a
// partially-rebuilt concept.
func (idx *Index) Rebuild(ctx context.Context, allChunks []store.ChunkRow) error {
	chunkCounts := make(map[uint32]int)
	catalogSets := make(map[uint32]map[uint32]struct{})
	coOccurrence := make(map[uint32]map[uint32]struct{})

	for _, c := range allChunks {
		for _, cid := range c.ConceptIDs {
			chunkCounts[cid]++
			if catalogSets[cid] == nil {
				catalogSets[cid] = make(map[uint32]struct{})
			}
			catalogSets[cid][c.CatalogID] = struct{}{}
			for _, other := range c.ConceptIDs {
				if other == cid {
					continue
				}
				if coOccurrence[cid] == nil {
					coOccurrence[cid] = make(map[uint32]struct{})
				}
				coOccurrence[cid][other] = struct{}{}
			}
		}
	}

	maxCount := 0
	for _, n := range chunkCounts {
		if n > maxCount {
			maxCount = n
		}
	}

	aggregates := make(map[uint32]store.ConceptAggregate, len(chunkCounts))
	for cid, count := range chunkCounts {
		weight := 0.0
		if maxCount > 0 {
			weight = float64(count) / float64(maxCount)
		}

		var synonyms, broader, narrower []string
		if idx.lexnet != nil {
			if row, ok, err := idx.concepts.FindByID(cid); err == nil && ok {
				if entry, lerr := idx.lexnet.Lookup(ctx, row.Name); lerr == nil {
					synonyms, broader, narrower = entry.Synonyms, entry.Hypernyms, entry.Hyponyms
				}
			}
		}

		aggregates[cid] = store.ConceptAggregate{
			CatalogIDs:        sortedKeys(catalogSets[cid]),
			RelatedConceptIDs: sortedKeys(coOccurrence[cid]),
			ChunkCount:        count,
			Weight:            weight,
			Synonyms:          synonyms,
			BroaderTerms:      broader,
			NarrowerTerms:     narrower,
		}
	}

	return idx.concepts.ReconcileAggregates(aggregates)
}

func sortedKeys(m map[uint32]struct{}) []uint32 {
	out := make([]uint32, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
