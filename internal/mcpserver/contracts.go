// Package mcpserver implements the MCP tool surface: JSON-in/JSON-out
// tools wrapped in a uniform {content, isError, _meta} envelope
// (mcp.NewServer, mcp.AddTool per tool, request-id
// generation, structured slog logging around each call, stdio-only
// Serve), generalized from code-search tools to the retrieval engine's
// catalog/chunk/concept/category operations.
package mcpserver

// catalog_search
type CatalogSearchInput struct {
	Text  string `json:"text" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

type CatalogSearchOutput struct {
	Results []CatalogHit `json:"results"`
}

type CatalogHit struct {
	Source  string  `json:"source"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score"`
}

// broad_chunks_search
type BroadChunksSearchInput struct {
	Text  string `json:"text" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

type BroadChunksSearchOutput struct {
	Results []ChunkHit `json:"results"`
}

type ChunkHit struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// chunks_search
type ChunksSearchInput struct {
	Text   string `json:"text" jsonschema:"the search query"`
	Source string `json:"source" jsonschema:"source document path to restrict the search to"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

type ChunksSearchOutput struct {
	Results []ChunkInSourceHit `json:"results"`
}

type ChunkInSourceHit struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// concept_search
type ConceptSearchInput struct {
	Text  string `json:"text" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

type ConceptSearchOutput struct {
	Concept string     `json:"concept"`
	Related []string   `json:"related"`
	Chunks  []ChunkHit `json:"chunks"`
}

// extract_concepts / source_concepts share this contract: both map a
// source to a list of concept names with no other distinguishing field.
type SourceConceptsInput struct {
	Source string `json:"source" jsonschema:"source document path"`
}

type SourceConceptsOutput struct {
	Concepts []string `json:"concepts"`
}

// concept_sources
type ConceptSourcesInput struct {
	Concept string `json:"concept" jsonschema:"concept name"`
}

type ConceptSourcesOutput struct {
	Sources []string `json:"sources"`
}

// category_search
type CategorySearchInput struct {
	Category string `json:"category" jsonschema:"category name"`
}

type CategorySearchOutput struct {
	Documents []CategoryDocument `json:"documents"`
}

type CategoryDocument struct {
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

// list_categories
type ListCategoriesInput struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"optional name prefix filter"`
	Sort   string `json:"sort,omitempty" jsonschema:"name or count, default name"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of categories, 0 for unbounded"`
}

type ListCategoriesOutput struct {
	Categories []CategorySummary `json:"categories"`
}

type CategorySummary struct {
	Name          string `json:"name"`
	DocumentCount int    `json:"document_count"`
	ChunkCount    int    `json:"chunk_count"`
	ConceptCount  int    `json:"concept_count"`
}

// list_concepts_in_category
type ListConceptsInCategoryInput struct {
	Category string `json:"category" jsonschema:"category name"`
}

type ListConceptsInCategoryOutput struct {
	Concepts []string `json:"concepts"`
}
