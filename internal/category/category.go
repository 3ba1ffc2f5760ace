// Package category implements the category service: membership lookup,
// taxonomy browsing, and on-demand concept aggregation over a category's
// member documents. Array-membership filters resolve directly against
// in-memory row maps; the relation is low-cardinality enough that no
// separate index is kept.
package category

import (
	"sort"

	"github.com/m2ux/concept-rag-sub002/internal/store"
)

// Service composes the catalog, chunk, and concept repositories to answer
// the three category operations.
type Service struct {
	categories *store.CategoryRepo
	catalog    *store.CatalogRepo
	chunks     *store.ChunkRepo
	concepts   *store.ConceptRepo
}

// NewService constructs a category Service.
func NewService(categories *store.CategoryRepo, catalog *store.CatalogRepo, chunks *store.ChunkRepo, concepts *store.ConceptRepo) *Service {
	return &Service{categories: categories, catalog: catalog, chunks: chunks, concepts: concepts}
}

// FindByName resolves a category name to its row, letting callers that
// only have a human-entered name reach the id-keyed operations below.
func (s *Service) FindByName(name string) (store.CategoryRow, bool, error) {
	return s.categories.FindByName(name)
}

// FindDocumentsInCategory returns every catalog row carrying catID in its
// CategoryIDs, a native array-contains filter.
func (s *Service) FindDocumentsInCategory(catID uint32) ([]store.CatalogRow, error) {
	return s.catalog.FindByCategory(catID)
}

// ListCategories browses the taxonomy, optionally filtered to names
// starting with prefix, sorted by sortBy, truncated to limit.
func (s *Service) ListCategories(sortBy store.CategorySort, limit int, prefix string) ([]store.CategoryRow, error) {
	return s.categories.List(sortBy, limit, prefix)
}

// ConceptInCategory is one concept surfaced by ConceptsInCategory, with the
// number of member chunks it was found in.
type ConceptInCategory struct {
	Concept    store.ConceptRow
	ChunkCount int
}

// ConceptsInCategory aggregates concept_ids over every chunk belonging to
// catID's member documents, resolving names via the concept repository.
// Computed on demand; callers wanting to avoid repeat cost should front
// this with a cache.
func (s *Service) ConceptsInCategory(catID uint32) ([]ConceptInCategory, error) {
	docs, err := s.catalog.FindByCategory(catID)
	if err != nil {
		return nil, err
	}

	counts := make(map[uint32]int)
	for _, doc := range docs {
		memberChunks, err := s.chunks.FindBySource(doc.ID, 0)
		if err != nil {
			return nil, err
		}
		for _, c := range memberChunks {
			for _, cid := range c.ConceptIDs {
				counts[cid]++
			}
		}
	}

	out := make([]ConceptInCategory, 0, len(counts))
	for cid, n := range counts {
		row, ok, err := s.concepts.FindByID(cid)
		if err != nil || !ok {
			continue
		}
		out = append(out, ConceptInCategory{Concept: row, ChunkCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChunkCount != out[j].ChunkCount {
			return out[i].ChunkCount > out[j].ChunkCount
		}
		return out[i].Concept.Name < out[j].Concept.Name
	})
	return out, nil
}
