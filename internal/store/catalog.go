package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
)

// CatalogRepo is the per-document table: one row per source, its summary,
// content hash, and category membership.
type CatalogRepo struct {
	mu      sync.RWMutex
	rows    map[uint32]CatalogRow
	bySrc   map[string]uint32
	dir     string
	vectors *HNSWStore
	text    BM25Index
}

// OpenCatalogRepo loads (or creates) the catalog table rooted at dir
// (typically "<dataRoot>/catalog.lance").
func OpenCatalogRepo(dir string) (*CatalogRepo, error) {
	rows, err := loadRows[CatalogRow](dir)
	if err != nil {
		return nil, fmt.Errorf("load catalog rows: %w", err)
	}

	vecStore, err := NewHNSWStore(DefaultVectorStoreConfig(VectorDim))
	if err != nil {
		return nil, err
	}
	if err := vecStore.Load(filepath.Join(dir, "vectors.hnsw")); err != nil {
		return nil, fmt.Errorf("load catalog vectors: %w", err)
	}

	bleveIdx, err := NewBleveBM25Index(filepath.Join(dir, "bm25"), "content", DefaultBM25Config())
	if err != nil {
		return nil, err
	}

	bySrc := make(map[string]uint32, len(rows))
	for id, row := range rows {
		bySrc[row.SourcePath] = id
	}

	return &CatalogRepo{rows: rows, bySrc: bySrc, dir: dir, vectors: vecStore, text: bleveIdx}, nil
}

func (r *CatalogRepo) Get(id uint32) (CatalogRow, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	return row, ok, nil
}

func (r *CatalogRepo) FindBySource(path string) (CatalogRow, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySrc[path]
	if !ok {
		return CatalogRow{}, false, nil
	}
	return r.rows[id], true, nil
}

// FindByCategory returns every catalog row whose CategoryIDs contains cat,
// a native array-membership filter rather than a string-encoded scan.
func (r *CatalogRepo) FindByCategory(cat uint32) ([]CatalogRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []CatalogRow
	for _, row := range r.rows {
		if containsUint32(row.CategoryIDs, cat) {
			out = append(out, row)
		}
	}
	return out, nil
}

// SearchText runs a BM25 keyword search over catalog summaries.
func (r *CatalogRepo) SearchText(ctx context.Context, query string, k int) ([]*BM25Result, error) {
	return r.text.Search(ctx, query, k)
}

func (r *CatalogRepo) SearchByVector(ctx context.Context, v []float32, k int) ([]Scored[CatalogRow], error) {
	hits, err := r.vectors.Search(ctx, v, k)
	if err != nil {
		return nil, errs.Database(errs.CodeDBQuery, "catalog vector search failed", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scored[CatalogRow], 0, len(hits))
	for _, h := range hits {
		if row, ok := r.rows[h.ID]; ok {
			out = append(out, Scored[CatalogRow]{Row: row, Score: h.Score})
		}
	}
	return out, nil
}

// Upsert inserts or replaces a catalog row, rejecting a collision: an
// existing id bound to a different canonical source path.
func (r *CatalogRepo) Upsert(ctx context.Context, row CatalogRow) error {
	if len(row.Vector) != VectorDim {
		return errs.Embedding(errs.CodeEmbedDimensionMismatch, "catalog row vector must be 384-dim", nil)
	}

	r.mu.Lock()
	if existing, ok := r.rows[row.ID]; ok && existing.SourcePath != row.SourcePath {
		r.mu.Unlock()
		return errs.Validation(errs.CodeValidationCollision, "catalog id collision").
			WithDetail("id", fmt.Sprintf("%d", row.ID)).
			WithDetail("existing_source", existing.SourcePath).
			WithDetail("new_source", row.SourcePath)
	}
	r.rows[row.ID] = row
	r.bySrc[row.SourcePath] = row.ID
	r.mu.Unlock()

	if err := r.vectors.Add(ctx, []uint32{row.ID}, [][]float32{row.Vector}); err != nil {
		return errs.Database(errs.CodeDBQuery, "catalog vector upsert failed", err)
	}
	idStr := uint32ToStrings([]uint32{row.ID})[0]
	if err := r.text.Index(ctx, []*Document{{ID: idStr, Content: row.Summary}}); err != nil {
		return errs.Database(errs.CodeDBQuery, "catalog bm25 upsert failed", err)
	}
	return nil
}

func (r *CatalogRepo) DeleteBySource(ctx context.Context, path string) error {
	r.mu.Lock()
	id, ok := r.bySrc[path]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.rows, id)
	delete(r.bySrc, path)
	r.mu.Unlock()

	if err := r.vectors.Delete(ctx, []uint32{id}); err != nil {
		return errs.Database(errs.CodeDBQuery, "catalog vector delete failed", err)
	}
	if err := r.text.Delete(ctx, uint32ToStrings([]uint32{id})); err != nil {
		return errs.Database(errs.CodeDBQuery, "catalog bm25 delete failed", err)
	}
	return nil
}

// Count returns the number of catalog rows currently held.
func (r *CatalogRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

// Persist flushes all three components (rows, vector index, bm25 index) to
// disk. The bm25 index persists itself incrementally; Save is a no-op for
// it but kept in the call chain for symmetry and future backends.
func (r *CatalogRepo) Persist() error {
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

func (r *CatalogRepo) Close() error {
	if err := r.text.Close(); err != nil {
		return err
	}
	return r.vectors.Close()
}
