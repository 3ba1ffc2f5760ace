package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
)

// BleveBM25Index wraps bleve for BM25 keyword search over one table's text
// column. The field name is configurable so the same implementation backs
// chunk text, catalog summaries, and concept names/summaries.
type BleveBM25Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	field  string
	config BM25Config
	closed bool
}

// validateIndexIntegrity checks whether an on-disk bleve index is healthy
// before opening it, so a crash mid-write during a prior seeding run is
// detected and recovered from rather than surfacing as an obscure open
// error on the next run.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected end of JSON") ||
		strings.Contains(s, "error parsing mapping JSON") ||
		strings.Contains(s, "failed to load segment") ||
		strings.Contains(s, "error opening bolt") ||
		strings.Contains(s, "no such file or directory") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// NewBleveBM25Index creates a BM25 index over field, backed by path (an
// in-memory index if path is empty). An index found corrupted on disk is
// removed and recreated rather than surfaced as a fatal open error, so a
// process killed mid-write during a previous seeding run self-heals on the
// next invocation.
func NewBleveBM25Index(path, field string, config BM25Config) (*BleveBM25Index, error) {
	indexMapping, err := createIndexMapping(field)
	if err != nil {
		return nil, fmt.Errorf("create index mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create directory %s: %w", filepath.Dir(path), mkErr)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("bm25 index corrupted, recreating", slog.String("path", path), slog.String("error", validErr.Error()))
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, fmt.Errorf("bm25 index corrupted, cannot remove: %w (original: %v)", rmErr, validErr)
			}
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("bm25 index open failed, recreating", slog.String("path", path), slog.String("error", err.Error()))
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, fmt.Errorf("bm25 index corrupted, cannot clear: %w (original: %v)", rmErr, err)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create/open bm25 index: %w", err)
	}

	return &BleveBM25Index{index: idx, path: path, field: field, config: config}, nil
}

// createIndexMapping builds a mapping using bleve's English analyzer;
// the corpus is prose, so no identifier-aware tokenization is needed.
func createIndexMapping(field string) (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()
	fieldMapping := bleve.NewTextFieldMapping()
	fieldMapping.Analyzer = en.AnalyzerName
	fieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(field, fieldMapping)
	indexMapping.DefaultMapping = docMapping

	return indexMapping, nil
}

func (b *BleveBM25Index) Index(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, map[string]string{b.field: doc.Content}); err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("execute batch: %w", err)
	}
	return nil
}

func (b *BleveBM25Index) Search(ctx context.Context, queryStr string, limit int) ([]*BM25Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if strings.TrimSpace(queryStr) == "" {
		return []*BM25Result{}, nil
	}

	matchQuery := bleve.NewMatchQuery(queryStr)
	matchQuery.SetField(b.field)

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.IncludeLocations = true

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]*BM25Result, 0, len(result.Hits))
	for _, hit := range result.Hits {
		results = append(results, &BM25Result{DocID: hit.ID, Score: hit.Score, MatchedTerms: extractMatchedTerms(hit, b.field)})
	}
	return results, nil
}

// SearchFiltered runs the same BM25 match query as Search but restricted
// to docIDs via a conjunction with a DocIDQuery, so the source-path filter
// for chunk-in-source search is applied before bleve's internal top-limit
// cut rather than discarding out-of-source hits afterward.
func (b *BleveBM25Index) SearchFiltered(ctx context.Context, queryStr string, docIDs []string, limit int) ([]*BM25Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if strings.TrimSpace(queryStr) == "" || len(docIDs) == 0 {
		return []*BM25Result{}, nil
	}

	matchQuery := bleve.NewMatchQuery(queryStr)
	matchQuery.SetField(b.field)
	idQuery := bleve.NewDocIDQuery(docIDs)

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(matchQuery, idQuery))
	req.Size = limit
	req.IncludeLocations = true

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("filtered search failed: %w", err)
	}

	results := make([]*BM25Result, 0, len(result.Hits))
	for _, hit := range result.Hits {
		results = append(results, &BM25Result{DocID: hit.ID, Score: hit.Score, MatchedTerms: extractMatchedTerms(hit, b.field)})
	}
	return results, nil
}

func (b *BleveBM25Index) Delete(ctx context.Context, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("index is closed")
	}
	batch := b.index.NewBatch()
	for _, id := range docIDs {
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

func (b *BleveBM25Index) AllIDs() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	docCount, _ := b.index.DocCount()
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(docCount)
	req.Fields = []string{}

	result, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search for all ids: %w", err)
	}
	ids := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

func (b *BleveBM25Index) Stats() *IndexStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return &IndexStats{}
	}
	docCount, _ := b.index.DocCount()
	return &IndexStats{DocumentCount: int(docCount)}
}

// Save is a no-op: bleve persists to path automatically as documents are
// indexed.
func (b *BleveBM25Index) Save(path string) error { return nil }

func (b *BleveBM25Index) Load(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index != nil && !b.closed {
		_ = b.index.Close()
	}
	idx, err := bleve.Open(path)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	b.index = idx
	b.path = path
	b.closed = false
	return nil
}

func (b *BleveBM25Index) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

func extractMatchedTerms(hit *search.DocumentMatch, field string) []string {
	terms := make(map[string]struct{})
	for f, locations := range hit.Locations {
		if f == field {
			for term := range locations {
				terms[term] = struct{}{}
			}
		}
	}
	result := make([]string, 0, len(terms))
	for term := range terms {
		result = append(result, term)
	}
	return result
}

var _ BM25Index = (*BleveBM25Index)(nil)
