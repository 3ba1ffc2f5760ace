package llm

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/m2ux/concept-rag-sub002/internal/ingest"
)

// HeuristicExtractor is the deterministic, no-network default LLM
// extractor: it substitutes the first distinct capitalized phrases (in
// order of appearance) and frequency-ranked noun-like tokens for an
// actual model's concept extraction, and the
// first sentence of the document for its summary. It exists for the same
// reason internal/embed.StaticEmbedder exists alongside the Ollama
// embedder: tests and offline seeding runs need a working default that
// never calls out to a real LLM.
type HeuristicExtractor struct {
	stopWords map[string]bool
}

var _ ingest.LLMExtractor = (*HeuristicExtractor)(nil)

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{stopWords: defaultStopWords()}
}

var capitalizedPhrase = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})\b`)
var wordPattern = regexp.MustCompile(`[A-Za-z]{4,}`)

func (h *HeuristicExtractor) ExtractConcepts(ctx context.Context, chunkText string) (ingest.ConceptExtraction, error) {
	primary := rankedUnique(capitalizedPhrase.FindAllString(chunkText, -1), 5)

	freq := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(chunkText), -1) {
		if h.stopWords[w] {
			continue
		}
		freq[w]++
	}
	related := topByFrequency(freq, 6)

	return ingest.ConceptExtraction{
		Primary:    primary,
		Technical:  nil,
		Related:    related,
		Categories: nil,
	}, nil
}

func (h *HeuristicExtractor) Summarize(ctx context.Context, documentText string) (string, error) {
	text := strings.TrimSpace(documentText)
	if text == "" {
		return "", nil
	}
	end := strings.IndexAny(text, ".!?")
	if end < 0 || end > 400 {
		if len(text) > 240 {
			return text[:240] + "...", nil
		}
		return text, nil
	}
	return text[:end+1], nil
}

func rankedUnique(items []string, limit int) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func topByFrequency(freq map[string]int, limit int) []string {
	type kv struct {
		word  string
		count int
	}
	ranked := make([]kv, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, kv{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, kv := range ranked {
		out[i] = kv.word
	}
	return out
}

func defaultStopWords() map[string]bool {
	words := []string{
		"this", "that", "these", "those", "with", "from", "have", "has",
		"been", "were", "will", "would", "could", "should", "about",
		"into", "onto", "their", "there", "where", "which", "while",
		"your", "they", "them", "than", "then", "also", "such", "each",
		"some", "more", "most", "other", "only", "same", "very",
	}
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}
