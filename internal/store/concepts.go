package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
	"github.com/m2ux/concept-rag-sub002/internal/ident"
)

// ConceptRepo is the deduplicated concept index: one row per distinct
// canonical concept name, shared across every document that mentions it.
type ConceptRepo struct {
	mu      sync.RWMutex
	rows    map[uint32]ConceptRow
	byName  map[string]uint32
	dir     string
	vectors *HNSWStore
	text    BM25Index
}

func OpenConceptRepo(dir string) (*ConceptRepo, error) {
	rows, err := loadRows[ConceptRow](dir)
	if err != nil {
		return nil, fmt.Errorf("load concept rows: %w", err)
	}
	vecStore, err := NewHNSWStore(DefaultVectorStoreConfig(VectorDim))
	if err != nil {
		return nil, err
	}
	if err := vecStore.Load(filepath.Join(dir, "vectors.hnsw")); err != nil {
		return nil, fmt.Errorf("load concept vectors: %w", err)
	}
	bleveIdx, err := NewBleveBM25Index(filepath.Join(dir, "bm25"), "content", DefaultBM25Config())
	if err != nil {
		return nil, err
	}

	byName := make(map[string]uint32, len(rows))
	for id, row := range rows {
		byName[row.Name] = id
	}

	return &ConceptRepo{rows: rows, byName: byName, dir: dir, vectors: vecStore, text: bleveIdx}, nil
}

func (r *ConceptRepo) FindByID(id uint32) (ConceptRow, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	return row, ok, nil
}

// FindByName looks up a concept by its canonical name. Callers are
// expected to have already passed the raw term through
// ident.CanonicalConcept.
func (r *ConceptRepo) FindByName(name string) (ConceptRow, bool, error) {
	canon := ident.CanonicalConcept(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[canon]
	if !ok {
		return ConceptRow{}, false, nil
	}
	return r.rows[id], true, nil
}

func (r *ConceptRepo) GetAll() ([]ConceptRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConceptRow, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *ConceptRepo) SearchSimilar(ctx context.Context, v []float32, k int) ([]Scored[ConceptRow], error) {
	hits, err := r.vectors.Search(ctx, v, k)
	if err != nil {
		return nil, errs.Database(errs.CodeDBQuery, "concept vector search failed", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scored[ConceptRow], 0, len(hits))
	for _, h := range hits {
		if row, ok := r.rows[h.ID]; ok {
			out = append(out, Scored[ConceptRow]{Row: row, Score: h.Score})
		}
	}
	return out, nil
}

// UpsertMany inserts new concept rows and merges into existing ones:
// a name that already exists is not replaced wholesale, its CatalogIDs
// and ChunkCount accumulate, since the same concept recurs across many
// documents and each ingestion only sees one of them at a time.
func (r *ConceptRepo) UpsertMany(ctx context.Context, rows []ConceptRow) error {
	ids := make([]uint32, 0, len(rows))
	vectors := make([][]float32, 0, len(rows))
	docs := make([]*Document, 0, len(rows))

	r.mu.Lock()
	for _, row := range rows {
		if len(row.Vector) != VectorDim {
			r.mu.Unlock()
			return errs.Embedding(errs.CodeEmbedDimensionMismatch, "concept row vector must be 384-dim", nil)
		}
		canon := ident.CanonicalConcept(row.Name)
		wantID := ident.ConceptID(canon)
		if row.ID != 0 && row.ID != wantID {
			r.mu.Unlock()
			return errs.Validation(errs.CodeValidationCollision, "concept id does not match canonical name hash").
				WithDetail("name", canon)
		}
		row.ID = wantID
		row.Name = canon

		if existing, ok := r.rows[row.ID]; ok {
			row.CatalogIDs = mergeUint32(existing.CatalogIDs, row.CatalogIDs)
			row.RelatedConceptIDs = mergeUint32(existing.RelatedConceptIDs, row.RelatedConceptIDs)
			row.ChunkCount = existing.ChunkCount + row.ChunkCount
		}

		r.rows[row.ID] = row
		r.byName[row.Name] = row.ID
		ids = append(ids, row.ID)
		vectors = append(vectors, row.Vector)
		docs = append(docs, &Document{ID: fmt.Sprintf("%d", row.ID), Content: row.Name + " " + row.Summary})
	}
	r.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := r.vectors.Add(ctx, ids, vectors); err != nil {
		return errs.Database(errs.CodeDBQuery, "concept vector upsert failed", err)
	}
	if err := r.text.Index(ctx, docs); err != nil {
		return errs.Database(errs.CodeDBQuery, "concept bm25 upsert failed", err)
	}
	return nil
}

// ConceptAggregate is the exact, corpus-wide aggregate computed by a full
// concept-index rebuild: every chunk in the store is
// scanned, not just the ones from the latest batch, so these counts are
// exact rather than accumulated across incremental upserts.
type ConceptAggregate struct {
	CatalogIDs        []uint32
	RelatedConceptIDs []uint32
	ChunkCount        int
	Weight            float64
	Synonyms          []string
	BroaderTerms      []string
	NarrowerTerms     []string
}

// ReconcileAggregates replaces (not merges) the aggregate fields of
// existing concept rows with exact corpus-wide values. Concepts not
// present in aggregates keep their prior aggregate values untouched;
// concept rows are never deleted here (they are only created, never
// destroyed, in normal operation).
func (r *ConceptRepo) ReconcileAggregates(aggregates map[uint32]ConceptAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, agg := range aggregates {
		row, ok := r.rows[id]
		if !ok {
			continue
		}
		row.CatalogIDs = agg.CatalogIDs
		row.RelatedConceptIDs = agg.RelatedConceptIDs
		row.ChunkCount = agg.ChunkCount
		row.Weight = agg.Weight
		if agg.Synonyms != nil {
			row.Synonyms = agg.Synonyms
		}
		if agg.BroaderTerms != nil {
			row.BroaderTerms = agg.BroaderTerms
		}
		if agg.NarrowerTerms != nil {
			row.NarrowerTerms = agg.NarrowerTerms
		}
		r.rows[id] = row
	}
	return nil
}

// Count returns the number of concept rows currently held.
func (r *ConceptRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func (r *ConceptRepo) Persist() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := saveRows(r.dir, r.rows); err != nil {
		return err
	}
	if err := r.vectors.Save(filepath.Join(r.dir, "vectors.hnsw")); err != nil {
		return err
	}
	return r.text.Save(filepath.Join(r.dir, "bm25"))
}

func (r *ConceptRepo) Close() error {
	if err := r.text.Close(); err != nil {
		return err
	}
	return r.vectors.Close()
}

func mergeUint32(a, b []uint32) []uint32 {
	out := make([]uint32, len(a), len(a)+len(b))
	copy(out, a)
	for _, v := range b {
		if !containsUint32(out, v) {
			out = append(out, v)
		}
	}
	return out
}
