package concept

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/m2ux/concept-rag-sub002/internal/ident"
	"github.com/m2ux/concept-rag-sub002/internal/lexical"
	"github.com/m2ux/concept-rag-sub002/internal/store"
)

// ambientWeightCeiling is the concept-weight threshold above which a
// corpus-expanded term is considered an ambient/common term rather than a
// distinguishing one, and dropped by the ambient-vocabulary filter:
// concepts that show up in a large fraction of the corpus's chunks carry
// little discriminating power for a specific query.
const ambientWeightCeiling = 0.95

// minLexicalTermLength filters out short lexical-only candidates (stray
// abbreviations, single letters) that the static network occasionally
// surfaces for common words.
const minLexicalTermLength = 3

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

// ExpandedTerm is one term contributed to an expanded query, carrying the
// weight it should be scored with and where it came from.
type ExpandedTerm struct {
	Text   string
	Weight float64
	Source string // "original", "corpus", "lexical"
}

// ExpandedQuery is the result of Expand: terms feed the BM25 signal,
// ConceptIDs feed the Concept signal, and LexicalTerms feed the Lexical
// signal. The Vector signal always embeds Original unexpanded, never
// this structure.
type ExpandedQuery struct {
	Original     string
	Terms        []ExpandedTerm
	ConceptIDs   []uint32
	LexicalTerms []string
}

// Expander expands a raw query into weighted terms, concept ids, and
// lexical terms, drawing on the corpus concept index and the lexical
// network concurrently.
type Expander struct {
	concepts *store.ConceptRepo
	lexnet   lexical.Network
}

// NewExpander constructs an Expander. lexnet may be nil to skip lexical
// expansion.
func NewExpander(concepts *store.ConceptRepo, lexnet lexical.Network) *Expander {
	return &Expander{concepts: concepts, lexnet: lexnet}
}

// Expand tokenizes query into unigrams and bigrams, then runs corpus
// expansion (via the concept index, weight 0.7) concurrently with lexical
// expansion (via the lexical network, weight 0.3), merges the results
// with the original tokens at weight 1.0, dedupes keeping the max weight
// per term, and drops ambient terms via the technical-context filter.
func (e *Expander) Expand(ctx context.Context, query string) (ExpandedQuery, error) {
	tokens := tokenize(query)

	var (
		wg           sync.WaitGroup
		corpusTerms  []ExpandedTerm
		conceptIDs   []uint32
		lexicalTerms []ExpandedTerm
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		corpusTerms, conceptIDs = e.expandCorpus(tokens)
	}()
	go func() {
		defer wg.Done()
		lexicalTerms = e.expandLexical(ctx, tokens)
	}()
	wg.Wait()

	merged := make(map[string]ExpandedTerm, len(tokens)+len(corpusTerms)+len(lexicalTerms))
	for _, t := range tokens {
		merged[t] = ExpandedTerm{Text: t, Weight: 1.0, Source: "original"}
	}
	for _, t := range corpusTerms {
		mergeMax(merged, t)
	}
	for _, t := range lexicalTerms {
		mergeMax(merged, t)
	}

	out := make([]ExpandedTerm, 0, len(merged))
	lexOut := make([]string, 0, len(lexicalTerms))
	for _, t := range merged {
		out = append(out, t)
		if t.Source == "lexical" {
			lexOut = append(lexOut, t.Text)
		}
	}

	return ExpandedQuery{
		Original:     query,
		Terms:        out,
		ConceptIDs:   conceptIDs,
		LexicalTerms: lexOut,
	}, nil
}

// expandCorpus looks up each token (and bigram) in the concept index and
// pulls in its related concepts at weight 0.7, applying the
// technical-context filter against the concept's own corpus-frequency
// weight.
func (e *Expander) expandCorpus(tokens []string) ([]ExpandedTerm, []uint32) {
	if e.concepts == nil {
		return nil, nil
	}
	var terms []ExpandedTerm
	var ids []uint32
	seen := make(map[uint32]struct{})

	for _, tok := range tokens {
		row, ok, err := e.concepts.FindByName(tok)
		if err != nil || !ok {
			continue
		}
		if _, dup := seen[row.ID]; !dup {
			seen[row.ID] = struct{}{}
			ids = append(ids, row.ID)
		}
		// Corpus expansion collects both the matched concept's
		// related_concepts *and* its normalized synonyms.
		for _, syn := range row.Synonyms {
			canon := ident.CanonicalConcept(syn)
			if canon == "" || canon == tok {
				continue
			}
			terms = append(terms, ExpandedTerm{Text: canon, Weight: 0.7, Source: "corpus"})
		}
		for _, relID := range row.RelatedConceptIDs {
			rel, ok, err := e.concepts.FindByID(relID)
			if err != nil || !ok {
				continue
			}
			if rel.Weight > ambientWeightCeiling {
				continue
			}
			terms = append(terms, ExpandedTerm{Text: rel.Name, Weight: 0.7, Source: "corpus"})
			if _, dup := seen[rel.ID]; !dup {
				seen[rel.ID] = struct{}{}
				ids = append(ids, rel.ID)
			}
		}
	}
	return terms, ids
}

// expandLexical looks up each token in the lexical network and pulls in
// its synonyms, hypernyms, and hyponyms at weight 0.3.
func (e *Expander) expandLexical(ctx context.Context, tokens []string) []ExpandedTerm {
	if e.lexnet == nil {
		return nil
	}
	var terms []ExpandedTerm
	for _, tok := range tokens {
		entry, err := e.lexnet.Lookup(ctx, tok)
		if err != nil || entry.Empty() {
			continue
		}
		for _, candidates := range [][]string{entry.Synonyms, entry.Hypernyms, entry.Hyponyms} {
			for _, c := range candidates {
				if len(c) < minLexicalTermLength {
					continue
				}
				terms = append(terms, ExpandedTerm{Text: c, Weight: 0.3, Source: "lexical"})
			}
		}
	}
	return terms
}

func mergeMax(merged map[string]ExpandedTerm, t ExpandedTerm) {
	existing, ok := merged[t.Text]
	if !ok || t.Weight > existing.Weight {
		merged[t.Text] = t
	}
}

// tokenize splits query into lowercase unigrams plus adjacent bigrams.
func tokenize(query string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(query), -1)
	out := make([]string, 0, len(raw)*2)
	seen := make(map[string]struct{})
	add := func(s string) {
		s = ident.CanonicalConcept(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for i, w := range raw {
		add(w)
		if i+1 < len(raw) {
			add(w + " " + raw[i+1])
		}
	}
	return out
}
