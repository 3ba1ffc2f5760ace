package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
	"github.com/m2ux/concept-rag-sub002/internal/ident"
)

// CategoryRepo is the taxonomy table. Categories have no vector or text
// index of their own: they are looked up by id, name, or listed and
// sorted, never searched by similarity.
type CategoryRepo struct {
	mu     sync.RWMutex
	rows   map[uint32]CategoryRow
	byName map[string]uint32
	dir    string
}

func OpenCategoryRepo(dir string) (*CategoryRepo, error) {
	rows, err := loadRows[CategoryRow](dir)
	if err != nil {
		return nil, fmt.Errorf("load category rows: %w", err)
	}
	byName := make(map[string]uint32, len(rows))
	for id, row := range rows {
		byName[row.Name] = id
	}
	return &CategoryRepo{rows: rows, byName: byName, dir: dir}, nil
}

func (r *CategoryRepo) FindByID(id uint32) (CategoryRow, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	return row, ok, nil
}

func (r *CategoryRepo) FindByName(name string) (CategoryRow, bool, error) {
	canon := ident.CanonicalConcept(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[canon]
	if !ok {
		return CategoryRow{}, false, nil
	}
	return r.rows[id], true, nil
}

// CategorySort selects the ordering used by List.
type CategorySort int

const (
	SortByName CategorySort = iota
	SortByDocumentCount
	SortByChunkCount
)

// List returns every category whose name has prefix (empty prefix matches
// all), ordered by sort, truncated to limit when limit > 0.
func (r *CategoryRepo) List(sortBy CategorySort, limit int, prefix string) ([]CategoryRow, error) {
	prefix = ident.CanonicalConcept(prefix)
	r.mu.RLock()
	out := make([]CategoryRow, 0, len(r.rows))
	for _, row := range r.rows {
		if prefix != "" && !strings.HasPrefix(row.Name, prefix) {
			continue
		}
		out = append(out, row)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		switch sortBy {
		case SortByDocumentCount:
			if out[i].DocumentCount != out[j].DocumentCount {
				return out[i].DocumentCount > out[j].DocumentCount
			}
		case SortByChunkCount:
			if out[i].ChunkCount != out[j].ChunkCount {
				return out[i].ChunkCount > out[j].ChunkCount
			}
		}
		return out[i].Name < out[j].Name
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upsert inserts or replaces a category row, rejecting a collision: an
// existing id bound to a different canonical name.
func (r *CategoryRepo) Upsert(row CategoryRow) error {
	canon := ident.CanonicalConcept(row.Name)
	wantID := ident.ConceptID(canon)
	if row.ID != 0 && row.ID != wantID {
		return errs.Validation(errs.CodeValidationCollision, "category id does not match canonical name hash").
			WithDetail("name", canon)
	}
	row.ID = wantID
	row.Name = canon

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rows[row.ID]; ok && existing.Name != row.Name {
		return errs.Validation(errs.CodeValidationCollision, "category id collision").
			WithDetail("id", fmt.Sprintf("%d", row.ID))
	}
	r.rows[row.ID] = row
	r.byName[row.Name] = row.ID
	return nil
}

// Count returns the number of category rows currently held.
func (r *CategoryRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func (r *CategoryRepo) Persist() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return saveRows(r.dir, r.rows)
}
