package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
)

// ChunkRepo is the per-passage table: many rows per document, each
// carrying its own embedding, concept set, and inherited category set.
type ChunkRepo struct {
	mu        sync.RWMutex
	rows      map[uint32]ChunkRow
	byCatalog map[uint32][]uint32 // catalog_id -> chunk ids, insertion order
	dir       string
	vectors   *HNSWStore
	text      BM25Index
}

func OpenChunkRepo(dir string) (*ChunkRepo, error) {
	rows, err := loadRows[ChunkRow](dir)
	if err != nil {
		return nil, fmt.Errorf("load chunk rows: %w", err)
	}
	vecStore, err := NewHNSWStore(DefaultVectorStoreConfig(VectorDim))
	if err != nil {
		return nil, err
	}
	if err := vecStore.Load(filepath.Join(dir, "vectors.hnsw")); err != nil {
		return nil, fmt.Errorf("load chunk vectors: %w", err)
	}
	bleveIdx, err := NewBleveBM25Index(filepath.Join(dir, "bm25"), "content", DefaultBM25Config())
	if err != nil {
		return nil, err
	}

	byCatalog := make(map[uint32][]uint32)
	for id, row := range rows {
		byCatalog[row.CatalogID] = append(byCatalog[row.CatalogID], id)
	}

	return &ChunkRepo{rows: rows, byCatalog: byCatalog, dir: dir, vectors: vecStore, text: bleveIdx}, nil
}

func (r *ChunkRepo) Get(id uint32) (ChunkRow, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	return row, ok, nil
}

// FindBySource returns the chunks belonging to catalogID, ordered by
// ChunkIndex, truncated to limit when limit > 0.
func (r *ChunkRepo) FindBySource(catalogID uint32, limit int) ([]ChunkRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byCatalog[catalogID]
	out := make([]ChunkRow, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.rows[id])
	}
	sortByChunkIndex(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetAll returns every chunk row in the table, used by the concept index
// rebuild which needs an exact corpus-wide scan rather than a per-document
// or per-concept slice.
func (r *ChunkRepo) GetAll() ([]ChunkRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ChunkRow, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

// FindByConcept returns up to k chunks whose ConceptIDs contains cid.
func (r *ChunkRepo) FindByConcept(cid uint32, k int) ([]ChunkRow, error) {
	return r.FindByConceptSet([]uint32{cid}, k)
}

// FindByConceptSet returns up to k chunks whose ConceptIDs intersects cids.
func (r *ChunkRepo) FindByConceptSet(cids []uint32, k int) ([]ChunkRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ChunkRow
	for _, row := range r.rows {
		for _, cid := range cids {
			if containsUint32(row.ConceptIDs, cid) {
				out = append(out, row)
				break
			}
		}
		if k > 0 && len(out) >= k {
			break
		}
	}
	return out, nil
}

// SearchText runs a BM25 keyword search over chunk text.
func (r *ChunkRepo) SearchText(ctx context.Context, query string, k int) ([]*BM25Result, error) {
	return r.text.Search(ctx, query, k)
}

func (r *ChunkRepo) SearchByVector(ctx context.Context, v []float32, k int) ([]Scored[ChunkRow], error) {
	hits, err := r.vectors.Search(ctx, v, k)
	if err != nil {
		return nil, errs.Database(errs.CodeDBQuery, "chunk vector search failed", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scored[ChunkRow], 0, len(hits))
	for _, h := range hits {
		if row, ok := r.rows[h.ID]; ok {
			out = append(out, Scored[ChunkRow]{Row: row, Score: h.Score})
		}
	}
	return out, nil
}

// SearchByVectorInSource ranks catalogID's own chunks by cosine similarity
// to v, applying the source filter before the top-k cut rather than after
// a corpus-wide ANN search. A document's
// chunk count is small enough that exact brute-force ranking over its own
// rows' already-resident vectors beats standing up a second ANN index.
func (r *ChunkRepo) SearchByVectorInSource(ctx context.Context, v []float32, catalogID uint32, k int) ([]Scored[ChunkRow], error) {
	r.mu.RLock()
	ids := r.byCatalog[catalogID]
	rows := make([]ChunkRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, r.rows[id])
	}
	r.mu.RUnlock()

	out := make([]Scored[ChunkRow], 0, len(rows))
	for _, row := range rows {
		if len(row.Vector) != len(v) {
			continue
		}
		out = append(out, Scored[ChunkRow]{Row: row, Score: distanceToScore(cosineDistance(v, row.Vector), "cos")})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// SearchTextInSource runs BM25 search restricted to catalogID's chunks via
// the underlying index's SearchFiltered, same source-filter-before-scoring
// rationale as SearchByVectorInSource.
func (r *ChunkRepo) SearchTextInSource(ctx context.Context, query string, catalogID uint32, k int) ([]*BM25Result, error) {
	r.mu.RLock()
	ids := r.byCatalog[catalogID]
	r.mu.RUnlock()
	return r.text.SearchFiltered(ctx, query, uint32ToStrings(ids), k)
}

// cosineDistance returns 1 minus the cosine similarity of a and b, mirroring
// hnsw.CosineDistance's convention (0 identical, 2 opposite) so
// distanceToScore converts it the same way as corpus-wide vector search.
func cosineDistance(a, b []float32) float32 {
	qa := make([]float32, len(a))
	copy(qa, a)
	normalizeVectorInPlace(qa)
	qb := make([]float32, len(b))
	copy(qb, b)
	normalizeVectorInPlace(qb)
	var dot float32
	for i := range qa {
		dot += qa[i] * qb[i]
	}
	return 1 - dot
}

// UpsertMany inserts or replaces chunk rows in one batch. Collisions (an
// existing id bound to a different catalog_id) are rejected per-row; the
// rest of the batch still applies, matching the ingestion orchestrator's
// own per-document rather than per-batch failure granularity.
func (r *ChunkRepo) UpsertMany(ctx context.Context, rows []ChunkRow) error {
	ids := make([]uint32, 0, len(rows))
	vectors := make([][]float32, 0, len(rows))
	docs := make([]*Document, 0, len(rows))
	var collisionErr error

	r.mu.Lock()
	for _, row := range rows {
		if len(row.Vector) != VectorDim {
			r.mu.Unlock()
			return errs.Embedding(errs.CodeEmbedDimensionMismatch, "chunk row vector must be 384-dim", nil)
		}
		if existing, ok := r.rows[row.ID]; ok && existing.CatalogID != row.CatalogID {
			if collisionErr == nil {
				collisionErr = errs.Validation(errs.CodeValidationCollision, "chunk id collision").
					WithDetail("id", fmt.Sprintf("%d", row.ID))
			}
			continue
		}
		r.rows[row.ID] = row
		r.byCatalog[row.CatalogID] = appendUnique(r.byCatalog[row.CatalogID], row.ID)
		ids = append(ids, row.ID)
		vectors = append(vectors, row.Vector)
		docs = append(docs, &Document{ID: fmt.Sprintf("%d", row.ID), Content: row.Text})
	}
	r.mu.Unlock()

	if len(ids) == 0 {
		return collisionErr
	}
	if err := r.vectors.Add(ctx, ids, vectors); err != nil {
		return errs.Database(errs.CodeDBQuery, "chunk vector upsert failed", err)
	}
	if err := r.text.Index(ctx, docs); err != nil {
		return errs.Database(errs.CodeDBQuery, "chunk bm25 upsert failed", err)
	}
	return collisionErr
}

// DeleteByCatalogID removes every chunk belonging to catalogID. Ingestion
// calls this before UpsertMany when re-processing a document, so there is
// never an intermediate state with both old and new chunks visible.
func (r *ChunkRepo) DeleteByCatalogID(ctx context.Context, catalogID uint32) error {
	r.mu.Lock()
	ids := r.byCatalog[catalogID]
	for _, id := range ids {
		delete(r.rows, id)
	}
	delete(r.byCatalog, catalogID)
	r.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := r.vectors.Delete(ctx, ids); err != nil {
		return errs.Database(errs.CodeDBQuery, "chunk vector delete failed", err)
	}
	if err := r.text.Delete(ctx, uint32ToStrings(ids)); err != nil {
		return errs.Database(errs.CodeDBQuery, "chunk bm25 delete failed", err)
	}
	return nil
}

// Count returns the number of chunk rows currently held.
func (r *ChunkRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func (r *ChunkRepo) Persist() error {
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

func (r *ChunkRepo) Close() error {
	if err := r.text.Close(); err != nil {
		return err
	}
	return r.vectors.Close()
}

func sortByChunkIndex(rows []ChunkRow) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j-1].ChunkIndex > rows[j].ChunkIndex; j-- {
			rows[j-1], rows[j] = rows[j], rows[j-1]
		}
	}
}

func appendUnique(ids []uint32, id uint32) []uint32 {
	if containsUint32(ids, id) {
		return ids
	}
	return append(ids, id)
}
