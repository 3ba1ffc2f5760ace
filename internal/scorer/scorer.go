// Package scorer implements the hybrid scoring pipeline: five weighted
// signals fused into a single ranked list. BM25 and title scores are
// min-max normalized over the candidate set so all five signals share a
// [0,1] range before the weighted sum.
package scorer

import (
	"sort"
	"strconv"

	"github.com/m2ux/concept-rag-sub002/internal/config"
)

// Candidate is one scoring candidate with its five raw sub-scores. A
// signal a candidate was not retrieved by contributes 0 for that signal.
type Candidate struct {
	ID      uint32
	Vector  float64 // [0,1], cosine-like
	BM25    float64 // [0, ~10], raw
	Title   float64 // [0,10], raw
	Concept float64 // [0,1], overlap share
	Lexical float64 // [0,1], overlap share
}

// Scored is a candidate with its final hybrid score and the per-signal
// normalized sub-scores, retained for transparency.
type Scored struct {
	ID      uint32
	Score   float64
	Vector  float64
	BM25    float64
	Title   float64
	Concept float64
	Lexical float64
}

// Score fuses candidates into a descending-ranked, deterministically
// tie-broken list of at most topN results, using weights for the signal
// contributions.
func Score(candidates []Candidate, weights config.WeightProfile, topN int) []Scored {
	if len(candidates) == 0 {
		return []Scored{}
	}

	bm25Min, bm25Max := minMax(candidates, func(c Candidate) float64 { return c.BM25 })
	titleMin, titleMax := minMax(candidates, func(c Candidate) float64 { return c.Title })

	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		nBM25 := normalize(c.BM25, bm25Min, bm25Max)
		nTitle := normalize(c.Title, titleMin, titleMax)
		score := weights.Vector*c.Vector +
			weights.BM25*nBM25 +
			weights.Title*nTitle +
			weights.Concept*c.Concept +
			weights.Lexical*c.Lexical
		out = append(out, Scored{
			ID:      c.ID,
			Score:   score,
			Vector:  c.Vector,
			BM25:    nBM25,
			Title:   nTitle,
			Concept: c.Concept,
			Lexical: c.Lexical,
		})
	}

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// less is the deterministic result ordering: higher hybrid
// score first, ties broken by higher vector score, then higher BM25,
// then lexicographic id.
func less(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Vector != b.Vector {
		return a.Vector > b.Vector
	}
	if a.BM25 != b.BM25 {
		return a.BM25 > b.BM25
	}
	return strconv.FormatUint(uint64(a.ID), 10) < strconv.FormatUint(uint64(b.ID), 10)
}

func minMax(candidates []Candidate, get func(Candidate) float64) (float64, float64) {
	min, max := get(candidates[0]), get(candidates[0])
	for _, c := range candidates[1:] {
		v := get(c)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func normalize(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (v - min) / (max - min)
}
