// Package store provides the column-oriented, vector-capable persistence
// layer: BM25 full-text indexing and HNSW vector search, composed per
// table into the four repositories (Catalog, Chunks, Concepts, Categories).
package store

import (
	"context"
	"fmt"
)

// Document is a single unit handed to a BM25 index: an opaque ID plus the
// text to tokenize and score.
type Document struct {
	ID      string
	Content string
}

// BM25Result is a single BM25 search hit.
type BM25Result struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// IndexStats describes a BM25 index's current size.
type IndexStats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// BM25Index provides keyword search scored by BM25.
type BM25Index interface {
	Index(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, query string, limit int) ([]*BM25Result, error)
	// SearchFiltered restricts the search to docIDs, applying the filter
	// before the top-limit cut rather than after (used by chunk-in-source
	// search).
	SearchFiltered(ctx context.Context, query string, docIDs []string, limit int) ([]*BM25Result, error)
	Delete(ctx context.Context, docIDs []string) error
	AllIDs() ([]string, error)
	Stats() *IndexStats
	Save(path string) error
	Load(path string) error
	Close() error
}

// BM25Config carries BM25 tokenizer settings. BleveBM25Index keeps the
// value but tokenizes with bleve's English analyzer and its own stop list;
// it does not read these fields.
type BM25Config struct {
	K1             float64
	B              float64
	StopWords      []string
	MinTokenLength int
}

// DefaultBM25Config returns defaults suited to general prose rather than
// source code.
func DefaultBM25Config() BM25Config {
	return BM25Config{
		K1:             1.2,
		B:              0.75,
		StopWords:      DefaultProseStopWords,
		MinTokenLength: 2,
	}
}

// DefaultProseStopWords are common English function words, listed for an
// engine that indexes books/papers/articles. BleveBM25Index does not apply
// this list (see BM25Config).
var DefaultProseStopWords = []string{
	"a", "an", "the", "and", "or", "but", "of", "to", "in", "on", "for",
	"is", "are", "was", "were", "be", "been", "being", "it", "its", "this",
	"that", "these", "those", "as", "at", "by", "with", "from", "into",
}

// VectorResult is a single HNSW search hit.
type VectorResult struct {
	ID       uint32
	Distance float32
	Score    float32
}

// VectorStoreConfig configures the HNSW vector index.
type VectorStoreConfig struct {
	Dimensions     int
	Metric         string // "cos" or "l2"
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultVectorStoreConfig returns sensible defaults for the fixed
// 384-dim vectors every table carries.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              16,
		EfConstruction: 128,
		EfSearch:       20,
	}
}

// VectorStore provides semantic nearest-neighbor search over rows keyed by
// their content-addressed uint32 id.
type VectorStore interface {
	Add(ctx context.Context, ids []uint32, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []uint32) error
	AllIDs() []uint32
	Contains(id uint32) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates a vector column was handed a vector whose
// length doesn't match the table's fixed dimension. Fatal for the
// offending row, never silently coerced.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
