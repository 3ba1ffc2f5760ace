package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraph(words int) string {
	w := make([]string, words)
	for i := range w {
		w[i] = "word"
	}
	return strings.Join(w, " ")
}

func TestChunkTextEmptyReturnsNil(t *testing.T) {
	assert.Empty(t, ChunkText(""))
	assert.Empty(t, ChunkText("   \n\n  "))
}

func TestChunkTextSingleShortParagraphIsOneChunk(t *testing.T) {
	chunks := ChunkText(paragraph(50))
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
}

func manyParagraphs(n, wordsEach int) []string {
	paras := make([]string, n)
	for i := range paras {
		paras[i] = paragraph(wordsEach)
	}
	return paras
}

func TestChunkTextSplitsAtMaxWords(t *testing.T) {
	text := strings.Join(manyParagraphs(20, 60), "\n\n")
	chunks := ChunkText(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, countWords(c.Text), MaxChunkWords+OverlapWords+60)
	}
}

func TestChunkTextOverlapsConsecutiveChunks(t *testing.T) {
	paras := manyParagraphs(20, 60)
	text := strings.Join(paras, "\n\n")
	chunks := ChunkText(text)
	require.GreaterOrEqual(t, len(chunks), 2)

	totalSourceWords := countWords(text)
	totalChunkWords := 0
	for _, c := range chunks {
		totalChunkWords += countWords(c.Text)
	}
	assert.Greater(t, totalChunkWords, totalSourceWords,
		"overlap should duplicate some words across chunk boundaries")
}

func TestChunkTextMergesUndersizedTail(t *testing.T) {
	// 51 ten-word paragraphs: the first 50 fill one chunk exactly to the
	// word budget, leaving only the 51st (plus a small overlap carry-over)
	// as a trailing remainder under MinChunkWords, which must fold back in.
	paras := manyParagraphs(51, 10)
	text := strings.Join(paras, "\n\n")
	chunks := ChunkText(text)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, countWords(c.Text), MinChunkWords)
	}
}

func TestChunkTextIndicesAreSequential(t *testing.T) {
	text := strings.Join([]string{paragraph(300), paragraph(300), paragraph(300), paragraph(300)}, "\n\n")
	chunks := ChunkText(text)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}
