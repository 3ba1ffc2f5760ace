package mcpserver

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/m2ux/concept-rag-sub002/internal/errs"
	"github.com/m2ux/concept-rag-sub002/internal/search"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

// maxQueryLength bounds incoming query text; anything longer is a
// validation error.
const maxQueryLength = 10000

func validateQueryText(text string) error {
	if text == "" {
		return errs.Validation(errs.CodeValidationRequired, "text is required")
	}
	if len(text) > maxQueryLength {
		return errs.Validation(errs.CodeValidationTooLong, "text exceeds 10000 characters")
	}
	return nil
}

func (s *Server) handleCatalogSearch(ctx context.Context, _ *mcp.CallToolRequest, in CatalogSearchInput) (
	*mcp.CallToolResult, CatalogSearchOutput, error,
) {
	start := time.Now()
	id := generateRequestID()
	if err := validateQueryText(in.Text); err != nil {
		logCall(s.log, "catalog_search", id, start, err)
		return nil, CatalogSearchOutput{}, mapError(err)
	}

	results, err := s.catalogSearch.Search(ctx, in.Text, search.Options{Limit: in.Limit})
	logCall(s.log, "catalog_search", id, start, err)
	if err != nil {
		return nil, CatalogSearchOutput{}, mapError(err)
	}

	out := CatalogSearchOutput{Results: make([]CatalogHit, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, CatalogHit{
			Source:  r.Row.SourcePath,
			Summary: r.Row.Summary,
			Score:   r.Score.Score,
		})
	}
	return nil, out, nil
}

func (s *Server) handleBroadChunksSearch(ctx context.Context, _ *mcp.CallToolRequest, in BroadChunksSearchInput) (
	*mcp.CallToolResult, BroadChunksSearchOutput, error,
) {
	start := time.Now()
	id := generateRequestID()
	if err := validateQueryText(in.Text); err != nil {
		logCall(s.log, "broad_chunks_search", id, start, err)
		return nil, BroadChunksSearchOutput{}, mapError(err)
	}

	results, err := s.chunkSearch.Search(ctx, in.Text, search.Options{Limit: in.Limit})
	logCall(s.log, "broad_chunks_search", id, start, err)
	if err != nil {
		return nil, BroadChunksSearchOutput{}, mapError(err)
	}

	out := BroadChunksSearchOutput{Results: make([]ChunkHit, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, ChunkHit{
			Source: s.sourceForCatalogID(r.Row.CatalogID),
			Text:   r.Row.Text,
			Score:  r.Score.Score,
		})
	}
	return nil, out, nil
}

func (s *Server) handleChunksSearch(ctx context.Context, _ *mcp.CallToolRequest, in ChunksSearchInput) (
	*mcp.CallToolResult, ChunksSearchOutput, error,
) {
	start := time.Now()
	id := generateRequestID()
	if err := validateQueryText(in.Text); err != nil {
		logCall(s.log, "chunks_search", id, start, err)
		return nil, ChunksSearchOutput{}, mapError(err)
	}
	if in.Source == "" {
		err := errs.Validation(errs.CodeValidationRequired, "source is required")
		logCall(s.log, "chunks_search", id, start, err)
		return nil, ChunksSearchOutput{}, mapError(err)
	}

	results, err := s.chunkSearch.SearchInSource(ctx, in.Text, in.Source, search.Options{Limit: in.Limit})
	logCall(s.log, "chunks_search", id, start, err)
	if err != nil {
		return nil, ChunksSearchOutput{}, mapError(err)
	}

	out := ChunksSearchOutput{Results: make([]ChunkInSourceHit, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, ChunkInSourceHit{Text: r.Row.Text, Score: r.Score.Score})
	}
	return nil, out, nil
}

func (s *Server) handleConceptSearch(ctx context.Context, _ *mcp.CallToolRequest, in ConceptSearchInput) (
	*mcp.CallToolResult, ConceptSearchOutput, error,
) {
	start := time.Now()
	id := generateRequestID()
	if err := validateQueryText(in.Text); err != nil {
		logCall(s.log, "concept_search", id, start, err)
		return nil, ConceptSearchOutput{}, mapError(err)
	}

	result, err := s.conceptSearch.Search(ctx, in.Text, search.Options{Limit: in.Limit})
	logCall(s.log, "concept_search", id, start, err)
	if err != nil {
		return nil, ConceptSearchOutput{}, mapError(err)
	}

	related := make([]string, 0, len(result.Related))
	for _, c := range result.Related {
		related = append(related, c.Name)
	}
	chunks := make([]ChunkHit, 0, len(result.Chunks))
	for _, r := range result.Chunks {
		chunks = append(chunks, ChunkHit{
			Source: s.sourceForCatalogID(r.Row.CatalogID),
			Text:   r.Row.Text,
			Score:  r.Score.Score,
		})
	}
	return nil, ConceptSearchOutput{Concept: result.Concept.Name, Related: related, Chunks: chunks}, nil
}

// handleSourceConcepts backs both extract_concepts and source_concepts;
// the two tools share one contract (a document's concept names).
func (s *Server) handleSourceConcepts(ctx context.Context, _ *mcp.CallToolRequest, in SourceConceptsInput) (
	*mcp.CallToolResult, SourceConceptsOutput, error,
) {
	start := time.Now()
	id := generateRequestID()
	if in.Source == "" {
		err := errs.Validation(errs.CodeValidationRequired, "source is required")
		logCall(s.log, "source_concepts", id, start, err)
		return nil, SourceConceptsOutput{}, mapError(err)
	}

	row, ok, err := s.catalog.FindBySource(in.Source)
	if err == nil && !ok {
		err = errs.Database(errs.CodeDBNotFound, "no document at that source path", nil)
	}
	if err != nil {
		logCall(s.log, "source_concepts", id, start, err)
		return nil, SourceConceptsOutput{}, mapError(err)
	}

	chunkRows, err := s.chunks.FindBySource(row.ID, 0)
	logCall(s.log, "source_concepts", id, start, err)
	if err != nil {
		return nil, SourceConceptsOutput{}, mapError(err)
	}

	seen := make(map[uint32]bool)
	var names []string
	for _, c := range chunkRows {
		for _, cid := range c.ConceptIDs {
			if seen[cid] {
				continue
			}
			seen[cid] = true
			if concept, ok, err := s.concepts.FindByID(cid); err == nil && ok {
				names = append(names, concept.Name)
			}
		}
	}
	return nil, SourceConceptsOutput{Concepts: names}, nil
}

func (s *Server) handleConceptSources(ctx context.Context, _ *mcp.CallToolRequest, in ConceptSourcesInput) (
	*mcp.CallToolResult, ConceptSourcesOutput, error,
) {
	start := time.Now()
	id := generateRequestID()
	if in.Concept == "" {
		err := errs.Validation(errs.CodeValidationRequired, "concept is required")
		logCall(s.log, "concept_sources", id, start, err)
		return nil, ConceptSourcesOutput{}, mapError(err)
	}

	concept, ok, err := s.concepts.FindByName(in.Concept)
	if err == nil && !ok {
		err = errs.Database(errs.CodeDBNotFound, "no concept with that name", nil)
	}
	logCall(s.log, "concept_sources", id, start, err)
	if err != nil {
		return nil, ConceptSourcesOutput{}, mapError(err)
	}

	sources := make([]string, 0, len(concept.CatalogIDs))
	for _, catalogID := range concept.CatalogIDs {
		if row, ok, err := s.catalog.Get(catalogID); err == nil && ok {
			sources = append(sources, row.SourcePath)
		}
	}
	return nil, ConceptSourcesOutput{Sources: sources}, nil
}

func (s *Server) handleCategorySearch(ctx context.Context, _ *mcp.CallToolRequest, in CategorySearchInput) (
	*mcp.CallToolResult, CategorySearchOutput, error,
) {
	start := time.Now()
	id := generateRequestID()
	if in.Category == "" {
		err := errs.Validation(errs.CodeValidationRequired, "category is required")
		logCall(s.log, "category_search", id, start, err)
		return nil, CategorySearchOutput{}, mapError(err)
	}

	cat, ok, err := s.categories.FindByName(in.Category)
	if err == nil && !ok {
		err = errs.Database(errs.CodeDBNotFound, "no category with that name", nil)
	}
	if err != nil {
		logCall(s.log, "category_search", id, start, err)
		return nil, CategorySearchOutput{}, mapError(err)
	}

	docs, err := s.categories.FindDocumentsInCategory(cat.ID)
	logCall(s.log, "category_search", id, start, err)
	if err != nil {
		return nil, CategorySearchOutput{}, mapError(err)
	}

	out := CategorySearchOutput{Documents: make([]CategoryDocument, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, CategoryDocument{Source: d.SourcePath, Summary: d.Summary})
	}
	return nil, out, nil
}

func (s *Server) handleListCategories(ctx context.Context, _ *mcp.CallToolRequest, in ListCategoriesInput) (
	*mcp.CallToolResult, ListCategoriesOutput, error,
) {
	start := time.Now()
	id := generateRequestID()

	sortBy := categorySortFromString(in.Sort)
	cats, err := s.categories.ListCategories(sortBy, in.Limit, in.Prefix)
	logCall(s.log, "list_categories", id, start, err)
	if err != nil {
		return nil, ListCategoriesOutput{}, mapError(err)
	}

	out := ListCategoriesOutput{Categories: make([]CategorySummary, 0, len(cats))}
	for _, c := range cats {
		out.Categories = append(out.Categories, CategorySummary{
			Name:          c.Name,
			DocumentCount: c.DocumentCount,
			ChunkCount:    c.ChunkCount,
			ConceptCount:  c.ConceptCount,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListConceptsInCategory(ctx context.Context, _ *mcp.CallToolRequest, in ListConceptsInCategoryInput) (
	*mcp.CallToolResult, ListConceptsInCategoryOutput, error,
) {
	start := time.Now()
	id := generateRequestID()
	if in.Category == "" {
		err := errs.Validation(errs.CodeValidationRequired, "category is required")
		logCall(s.log, "list_concepts_in_category", id, start, err)
		return nil, ListConceptsInCategoryOutput{}, mapError(err)
	}

	cat, ok, err := s.categories.FindByName(in.Category)
	if err == nil && !ok {
		err = errs.Database(errs.CodeDBNotFound, "no category with that name", nil)
	}
	if err != nil {
		logCall(s.log, "list_concepts_in_category", id, start, err)
		return nil, ListConceptsInCategoryOutput{}, mapError(err)
	}

	concepts, err := s.categories.ConceptsInCategory(cat.ID)
	logCall(s.log, "list_concepts_in_category", id, start, err)
	if err != nil {
		return nil, ListConceptsInCategoryOutput{}, mapError(err)
	}

	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		names = append(names, c.Concept.Name)
	}
	return nil, ListConceptsInCategoryOutput{Concepts: names}, nil
}

// categorySortFromString maps the tool's "name"/"count" sort parameter to
// the repository's CategorySort enum, defaulting to name order.
func categorySortFromString(sort string) store.CategorySort {
	switch strings.ToLower(sort) {
	case "count", "document_count":
		return store.SortByDocumentCount
	case "chunk_count":
		return store.SortByChunkCount
	default:
		return store.SortByName
	}
}

func (s *Server) sourceForCatalogID(id uint32) string {
	row, ok, err := s.catalog.Get(id)
	if err != nil || !ok {
		return ""
	}
	return row.SourcePath
}
