// Package search implements the four search services: catalog search,
// broad chunk search, chunk-in-source search, and concept search. Each is
// a thin composition over the query expander (internal/concept), the
// hybrid scorer (internal/scorer), and the store repositories: expand,
// retrieve per-signal candidates, fuse, cache.
package search

import (
	"strings"

	"github.com/m2ux/concept-rag-sub002/internal/config"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

// resolveWeights applies a per-call override on top of a service's default
// weight profile. A zero-valued override field means "not overridden".
func resolveWeights(base config.WeightProfile, override *WeightOverride) config.WeightProfile {
	if override == nil {
		return base
	}
	out := base
	if override.Vector != 0 {
		out.Vector = override.Vector
	}
	if override.BM25 != 0 {
		out.BM25 = override.BM25
	}
	if override.Title != 0 {
		out.Title = override.Title
	}
	if override.Concept != 0 {
		out.Concept = override.Concept
	}
	if override.Lexical != 0 {
		out.Lexical = override.Lexical
	}
	return out
}

// Options configures a search call. The zero value is valid: Limit and K
// fall back to their defaults, Weights falls back to the service's own
// default profile.
type Options struct {
	Limit   int
	K       int // per-signal candidate pool size, default 50
	Weights *WeightOverride
	Debug   bool // bypass the result cache
}

// WeightOverride lets a caller override one or more of the five signal
// weights for a single call; unset fields keep the service profile.
type WeightOverride struct {
	Vector  float64
	BM25    float64
	Title   float64
	Concept float64
	Lexical float64
}

const (
	defaultLimit = 10
	defaultK     = 50
)

func limitOrDefault(n int) int {
	if n <= 0 {
		return defaultLimit
	}
	return n
}

func kOrDefault(n int) int {
	if n <= 0 {
		return defaultK
	}
	return n
}

// titleScore implements the Title signal: the share of
// query terms that appear as substrings of the canonicalized title,
// scaled to the signal's [0,10] range.
func titleScore(title string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	canon := canonicalizeTitle(title)
	matched := 0
	for _, t := range terms {
		if strings.Contains(canon, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms)) * 10
}

func canonicalizeTitle(title string) string {
	base := title
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	base = strings.ToLower(base)
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return base
}

// lexicalScore implements the Lexical signal: the share of lexical-
// expansion terms found (as substrings) in the candidate's text.
func lexicalScore(text string, lexicalTerms []string) float64 {
	if len(lexicalTerms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, t := range lexicalTerms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(lexicalTerms))
}

// conceptOverlap implements the Concept signal: the share of
// query-expanded concept ids present in a candidate's own concept_ids.
func conceptOverlap(candidateConceptIDs, expandedConceptIDs []uint32) float64 {
	if len(expandedConceptIDs) == 0 {
		return 0
	}
	set := make(map[uint32]struct{}, len(candidateConceptIDs))
	for _, id := range candidateConceptIDs {
		set[id] = struct{}{}
	}
	matched := 0
	for _, id := range expandedConceptIDs {
		if _, ok := set[id]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(expandedConceptIDs))
}

func parseID(s string) (uint32, bool) {
	var n uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	return uint32(n), n > 0 || s == "0"
}

// bm25ScoresByID indexes raw BM25 results by their parsed numeric id.
func bm25ScoresByID(results []*store.BM25Result) map[uint32]float64 {
	out := make(map[uint32]float64, len(results))
	for _, r := range results {
		if id, ok := parseID(r.DocID); ok {
			out[id] = r.Score
		}
	}
	return out
}

// vectorScoresByID indexes vector hits by id.
func vectorScoresByID[T any](hits []store.Scored[T], idOf func(T) uint32) map[uint32]float64 {
	out := make(map[uint32]float64, len(hits))
	for _, h := range hits {
		out[idOf(h.Row)] = float64(h.Score)
	}
	return out
}
