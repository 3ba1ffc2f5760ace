package embed

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProviderType names a selectable embedding provider.
type ProviderType string

const (
	ProviderStatic ProviderType = "static"
	ProviderOllama ProviderType = "ollama"
)

// NewEmbedder constructs an Embedder for provider, defaulting to the
// deterministic static provider when provider is empty; an unrecognized
// provider is an error.
// The EMBEDDING_PROVIDER environment variable overrides provider when set,
// letting a deployment switch providers without touching config files.
// Caching is enabled by default; set EMBED_CACHE=false to disable it.
func NewEmbedder(ctx context.Context, provider ProviderType, cfg OllamaConfig) (Embedder, error) {
	if env := os.Getenv("EMBEDDING_PROVIDER"); env != "" {
		provider = ProviderType(strings.ToLower(env))
	}

	var embedder Embedder
	var err error
	switch provider {
	case ProviderOllama:
		embedder, err = NewOllamaEmbedder(ctx, cfg)
		if err != nil {
			// External provider unavailable: degrade to the deterministic
			// local embedder rather than fail the whole process.
			embedder, err = NewStaticEmbedder(), nil
		}
	case ProviderStatic, "":
		embedder, err = NewStaticEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
	if err != nil {
		return nil, err
	}

	if cacheEnabled() {
		return NewCachedEmbedder(embedder), nil
	}
	return embedder, nil
}

func cacheEnabled() bool {
	v := os.Getenv("EMBED_CACHE")
	if v == "" {
		return true
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return enabled
}
