// Package ingest implements the seeding pipeline: discover documents under
// a root directory, chunk them, extract concepts and summaries through an
// LLM (wrapped by the resilience envelope), and persist catalog/chunk/
// concept/category rows before rebuilding the corpus-wide concept index.
//
// Persistence follows delete-before-reinsert ordering, with graceful
// degradation across a batch; file sizes are not checked. A gofrs/flock
// file lock guards the stage cache directory against concurrent runs.
package ingest

import "context"

// Document is one loaded document ready for chunking: full text plus
// whatever metadata the loader could recover.
type Document struct {
	Text     string
	Metadata map[string]string
}

// Loader discovers and reads documents from the filesystem. Production
// wiring picks a concrete implementation per file extension; this package
// only depends on the contract.
type Loader interface {
	SupportedExtensions() []string
	LoaderFor(path string) (DocumentLoader, bool)
}

// DocumentLoader reads one file into zero or more logical documents (an
// EPUB or PDF with multiple top-level sections may yield more than one).
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]Document, error)
}

// ConceptExtraction is the LLM's structured response to a chunk of text.
type ConceptExtraction struct {
	Primary    []string
	Technical  []string
	Related    []string
	Categories []string
}

// LLMExtractor is the external LLM contract, wrapped by the
// resilience envelope at the call site rather than inside an
// implementation, so every provider gets the same bulkhead/breaker/
// timeout/retry behavior for free.
type LLMExtractor interface {
	ExtractConcepts(ctx context.Context, chunkText string) (ConceptExtraction, error)
	Summarize(ctx context.Context, documentText string) (string, error)
}
