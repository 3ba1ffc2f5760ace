// Package store implements the four-table data model: Catalog, Chunks,
// Concepts, Categories. Each table is a column-oriented in-memory engine
// (persisted to a "<name>.lance/" directory of its own). Catalog, Chunks
// and Concepts also pair it with a coder/hnsw vector index over the
// 384-dim `vector` column and a bleve BM25 index over the text column;
// Categories has neither.
package store

import "time"

// VectorDim is the fixed dense vector width carried by every row.
const VectorDim = 384

// Location records where a chunk's text came from within its source
// document.
type Location struct {
	Page       int `json:"page"`
	ByteOffset int `json:"byte_offset"`
	ByteLength int `json:"byte_length"`
}

// CatalogRow is one row of the per-document table.
type CatalogRow struct {
	ID          uint32    `json:"id"`
	SourcePath  string    `json:"source_path"`
	Summary     string    `json:"summary"`
	ContentHash string    `json:"content_hash"`
	CategoryIDs []uint32  `json:"category_ids"`
	Vector      []float32 `json:"vector"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChunkRow is one row of the per-passage table.
type ChunkRow struct {
	ID         uint32    `json:"id"`
	CatalogID  uint32    `json:"catalog_id"`
	Text       string    `json:"text"`
	ContentHash string   `json:"content_hash"`
	Location   Location  `json:"location"`
	ChunkIndex int       `json:"chunk_index"`
	ConceptIDs []uint32  `json:"concept_ids"`
	CategoryIDs []uint32 `json:"category_ids"`
	Vector     []float32 `json:"vector"`
}

// ConceptRow is one row of the deduplicated concept index.
type ConceptRow struct {
	ID                uint32    `json:"id"`
	Name              string    `json:"name"` // canonical: lowercase, trimmed
	Summary           string    `json:"summary"`
	CatalogIDs        []uint32  `json:"catalog_ids"`
	RelatedConceptIDs []uint32  `json:"related_concept_ids"`
	Synonyms          []string  `json:"synonyms"`
	BroaderTerms      []string  `json:"broader_terms"`
	NarrowerTerms     []string  `json:"narrower_terms"`
	Weight            float64   `json:"weight"`
	ChunkCount        int       `json:"chunk_count"`
	Vector            []float32 `json:"vector"`
}

// CategoryRow is one row of the taxonomy table.
type CategoryRow struct {
	ID               uint32    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	ParentCategoryID *uint32   `json:"parent_category_id,omitempty"`
	Aliases          []string  `json:"aliases"`
	RelatedCategories []string `json:"related_categories"`
	DocumentCount    int       `json:"document_count"`
	ChunkCount       int       `json:"chunk_count"`
	ConceptCount     int       `json:"concept_count"`
	Vector           []float32 `json:"vector"`
}
