// Package loader implements the default document loader factory.
// PDF/EPUB/OCR parsing lives in external adapters; this package supplies
// the one concrete loader the engine needs to be runnable end to end:
// plain text and Markdown files, read verbatim. A real deployment
// registers additional loaders (PDF, EPUB) behind the same ingest.Loader
// contract, with TextLoaderFactory as the fallback.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/m2ux/concept-rag-sub002/internal/ingest"
)

// TextLoaderFactory claims .txt and .md files, reading them whole as a
// single logical document. It is the fallback placed last in a
// deployment's loader factory chain, after any more specific factories.
type TextLoaderFactory struct{}

var _ ingest.Loader = TextLoaderFactory{}

func NewTextLoaderFactory() TextLoaderFactory { return TextLoaderFactory{} }

func (TextLoaderFactory) SupportedExtensions() []string {
	return []string{".txt", ".md"}
}

func (f TextLoaderFactory) LoaderFor(path string) (ingest.DocumentLoader, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" || ext == ".md" {
		return textLoader{}, true
	}
	return nil, false
}

type textLoader struct{}

func (textLoader) Load(ctx context.Context, path string) ([]ingest.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []ingest.Document{{
		Text: string(data),
		Metadata: map[string]string{
			"source": path,
		},
	}}, nil
}

// ChainFactory composes multiple Loader implementations, claiming an
// extension via the first factory in order that supports it, so PDF/EPUB
// adapters go ahead of TextLoaderFactory. internal/app registers
// TextLoaderFactory alone.
type ChainFactory struct {
	factories []ingest.Loader
}

var _ ingest.Loader = (*ChainFactory)(nil)

func NewChainFactory(factories ...ingest.Loader) *ChainFactory {
	return &ChainFactory{factories: factories}
}

func (c *ChainFactory) SupportedExtensions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range c.factories {
		for _, ext := range f.SupportedExtensions() {
			if !seen[ext] {
				seen[ext] = true
				out = append(out, ext)
			}
		}
	}
	return out
}

func (c *ChainFactory) LoaderFor(path string) (ingest.DocumentLoader, bool) {
	for _, f := range c.factories {
		if l, ok := f.LoaderFor(path); ok {
			return l, true
		}
	}
	return nil, false
}
