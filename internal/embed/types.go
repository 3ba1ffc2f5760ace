// Package embed implements the embedding service: text in, a fixed 384-dim
// dense vector out, with a swappable provider behind the cache decorator.
package embed

import (
	"context"
	"math"
)

// Dimensions is the fixed embedding width every provider must emit.
// Adapters that natively produce a different width project down to this
// one before returning (see projectDimensions).
const Dimensions = 384

const (
	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// DefaultMaxRetries is the retry count providers advertise as their own
	// default. The resilience envelope in internal/resilience does not read
	// it; its retry bound comes from the configured resilience profile.
	DefaultMaxRetries = 3
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Available(ctx context.Context) bool
	Close() error
}

// normalizeVector scales v to unit length, used so every provider's output
// is cosine-comparable regardless of its internal magnitude.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

// projectDimensions maps a vector of any width down to Dimensions by
// folding each output bucket from the mean of the input positions that
// hash to it (output[i] = mean of v[j] for all j where j % Dimensions == i).
// This is stable and documented rather than a silent truncation: every
// source dimension still contributes, just to a fixed bucket. A vector
// narrower than Dimensions is zero-padded up to it instead.
func projectDimensions(v []float32) []float32 {
	if len(v) == Dimensions {
		return v
	}
	if len(v) < Dimensions {
		out := make([]float32, Dimensions)
		copy(out, v)
		return normalizeVector(out)
	}
	sums := make([]float64, Dimensions)
	counts := make([]int, Dimensions)
	for i, val := range v {
		bucket := i % Dimensions
		sums[bucket] += float64(val)
		counts[bucket]++
	}
	out := make([]float32, Dimensions)
	for i := range out {
		if counts[i] > 0 {
			out[i] = float32(sums[i] / float64(counts[i]))
		}
	}
	return normalizeVector(out)
}
