package ingest

import "strings"

// MinChunkWords and MaxChunkWords bound a prose chunk's size. The
// chunker accumulates whole paragraphs against a word-count budget
// rather than a token budget since prose chunks are
// measured in words here, not code tokens.
const (
	MinChunkWords = 100
	MaxChunkWords = 500
	OverlapWords  = 50
)

// TextChunk is one chunked passage prior to embedding or concept
// extraction.
type TextChunk struct {
	Text  string
	Index int
}

// ChunkText splits text into paragraph-aligned passages of roughly
// MinChunkWords to MaxChunkWords, each overlapping the previous by
// OverlapWords so a concept or sentence split across a paragraph boundary
// still appears whole in at least one chunk.
func ChunkText(text string) []TextChunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []TextChunk
	var current []string
	wordCount := 0

	flush := func() {
		if wordCount == 0 {
			return
		}
		chunks = append(chunks, TextChunk{Text: strings.Join(current, "\n\n"), Index: len(chunks)})
	}

	for _, para := range paragraphs {
		paraWords := countWords(para)

		if wordCount > 0 && wordCount+paraWords > MaxChunkWords {
			flush()
			current = overlapTail(current, OverlapWords)
			wordCount = countWordsAll(current)
		}

		current = append(current, para)
		wordCount += paraWords
	}
	flush()

	return mergeUndersizedTail(chunks)
}

// mergeUndersizedTail folds a final chunk under MinChunkWords into its
// predecessor rather than shipping a near-empty trailing passage.
func mergeUndersizedTail(chunks []TextChunk) []TextChunk {
	if len(chunks) < 2 {
		return chunks
	}
	last := chunks[len(chunks)-1]
	if countWords(last.Text) >= MinChunkWords {
		return chunks
	}
	merged := chunks[:len(chunks)-1]
	merged[len(merged)-1].Text = merged[len(merged)-1].Text + "\n\n" + last.Text
	return merged
}

func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func countWordsAll(paras []string) int {
	n := 0
	for _, p := range paras {
		n += countWords(p)
	}
	return n
}

// overlapTail returns the trailing paragraphs of paras totalling at least
// targetWords, seeding the next chunk with context from the one just
// flushed.
func overlapTail(paras []string, targetWords int) []string {
	if len(paras) == 0 {
		return nil
	}
	words := 0
	start := len(paras)
	for start > 0 && words < targetWords {
		start--
		words += countWords(paras[start])
	}
	tail := make([]string, len(paras[start:]))
	copy(tail, paras[start:])
	return tail
}
