package mcpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/m2ux/concept-rag-sub002/internal/category"
	"github.com/m2ux/concept-rag-sub002/internal/search"
	"github.com/m2ux/concept-rag-sub002/internal/store"
	"github.com/m2ux/concept-rag-sub002/pkg/version"
)

// Server is the MCP server for the retrieval engine. It owns no business
// logic of its own: each tool handler is a thin adapter over an already
// constructed search/category service.
type Server struct {
	mcp *mcp.Server

	catalogSearch *search.CatalogService
	chunkSearch   *search.ChunkService
	conceptSearch *search.ConceptService
	categories    *category.Service

	catalog  *store.CatalogRepo
	chunks   *store.ChunkRepo
	concepts *store.ConceptRepo

	log *slog.Logger
}

// ServerConfig wires a Server's collaborators. All fields are required.
type ServerConfig struct {
	CatalogSearch *search.CatalogService
	ChunkSearch   *search.ChunkService
	ConceptSearch *search.ConceptService
	Categories    *category.Service

	Catalog  *store.CatalogRepo
	Chunks   *store.ChunkRepo
	Concepts *store.ConceptRepo

	Log *slog.Logger
}

// NewServer constructs a Server and registers every tool.
func NewServer(cfg ServerConfig) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		catalogSearch: cfg.CatalogSearch,
		chunkSearch:   cfg.ChunkSearch,
		conceptSearch: cfg.ConceptSearch,
		categories:    cfg.Categories,
		catalog:       cfg.Catalog,
		chunks:        cfg.Chunks,
		concepts:      cfg.Concepts,
		log:           log,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: "conceptrag", Version: version.Version},
		nil,
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// Serve runs the server over transport; "stdio" is the only one wired.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.log.Info("starting MCP server", slog.String("transport", transport))
	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.log.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.log.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "catalog_search",
		Description: "Find documents whose summaries match a query. Use when you want to know which books or papers in the corpus are about a topic.",
	}, s.handleCatalogSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "broad_chunks_search",
		Description: "Search passages across the entire corpus. Use for finding specific statements or explanations wherever they occur.",
	}, s.handleBroadChunksSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunks_search",
		Description: "Search passages within one already-identified document.",
	}, s.handleChunksSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "concept_search",
		Description: "Resolve a query to its best-matching concept and return the passages that carry it, plus related concepts.",
	}, s.handleConceptSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "extract_concepts",
		Description: "Export a document's concepts as a flat list of names.",
	}, s.handleSourceConcepts)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "source_concepts",
		Description: "List the concepts found in a document.",
	}, s.handleSourceConcepts)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "concept_sources",
		Description: "List the documents that mention a concept.",
	}, s.handleConceptSources)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "category_search",
		Description: "List the documents belonging to a category.",
	}, s.handleCategorySearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_categories",
		Description: "Browse the category taxonomy, optionally filtered by name prefix and sorted by name or document count.",
	}, s.handleListCategories)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_concepts_in_category",
		Description: "List the concepts found across a category's member documents.",
	}, s.handleListConceptsInCategory)

	s.log.Info("MCP tools registered", slog.Int("count", 10))
}

func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func logCall(log *slog.Logger, tool, requestID string, start time.Time, err error) {
	duration := time.Since(start)
	if err != nil {
		log.Error("tool call failed",
			slog.String("tool", tool),
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return
	}
	log.Info("tool call completed",
		slog.String("tool", tool),
		slog.String("request_id", requestID),
		slog.Duration("duration", duration))
}
