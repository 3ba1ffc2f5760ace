package scorer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m2ux/concept-rag-sub002/internal/config"
)

func defaultWeights() config.WeightProfile {
	return config.DefaultWeights().Default
}

func TestScoreEmptyCandidates(t *testing.T) {
	out := Score(nil, defaultWeights(), 10)
	require.Empty(t, out)
}

func TestScoreRanksHigherVectorFirst(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Vector: 0.9, BM25: 5, Title: 0, Concept: 0, Lexical: 0},
		{ID: 2, Vector: 0.1, BM25: 5, Title: 0, Concept: 0, Lexical: 0},
	}
	out := Score(candidates, defaultWeights(), 10)
	require.Len(t, out, 2)
	require.Equal(t, uint32(1), out[0].ID)
}

func TestScoreNormalizesBM25AndTitleByMinMax(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, BM25: 10, Title: 10},
		{ID: 2, BM25: 0, Title: 0},
	}
	out := Score(candidates, defaultWeights(), 10)
	byID := map[uint32]Scored{}
	for _, s := range out {
		byID[s.ID] = s
	}
	require.Equal(t, 1.0, byID[1].BM25)
	require.Equal(t, 0.0, byID[2].BM25)
	require.Equal(t, 1.0, byID[1].Title)
}

func TestScoreTieBreaksByVectorThenBM25ThenID(t *testing.T) {
	candidates := []Candidate{
		{ID: 5, Vector: 0.5, BM25: 3},
		{ID: 2, Vector: 0.5, BM25: 3},
		{ID: 9, Vector: 0.5, BM25: 3},
	}
	out := Score(candidates, defaultWeights(), 10)
	require.Equal(t, []uint32{2, 5, 9}, []uint32{out[0].ID, out[1].ID, out[2].ID})
}

func TestScoreRespectsTopN(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Vector: 0.9},
		{ID: 2, Vector: 0.5},
		{ID: 3, Vector: 0.1},
	}
	out := Score(candidates, defaultWeights(), 2)
	require.Len(t, out, 2)
}

func TestScoreMissingSignalContributesZero(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Vector: 1.0},
		{ID: 2, Vector: 1.0, Concept: 1.0},
	}
	out := Score(candidates, defaultWeights(), 10)
	byID := map[uint32]Scored{}
	for _, s := range out {
		byID[s.ID] = s
	}
	require.Greater(t, byID[2].Score, byID[1].Score)
}
