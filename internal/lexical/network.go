// Package lexical implements the bridge to the offline lexical network
// (synonyms, hypernyms, hyponyms per lemma) and the bounded per-lemma
// cache fronting it. An external lexical data source plugs in behind the
// Network interface; this package ships a static, in-process
// general-domain network as the default implementation.
package lexical

import "context"

// Entry is the lexical relation set for one lemma.
type Entry struct {
	Synonyms  []string // same meaning
	Hypernyms []string // broader terms
	Hyponyms  []string // narrower terms
}

// Empty reports whether e carries no relations at all.
func (e Entry) Empty() bool {
	return len(e.Synonyms) == 0 && len(e.Hypernyms) == 0 && len(e.Hyponyms) == 0
}

// Network looks up the lexical relations for a lemma. A lemma with no
// entry returns a zero Entry and no error: an unknown word is not a
// failure, it simply contributes nothing to expansion.
type Network interface {
	Lookup(ctx context.Context, lemma string) (Entry, error)
}
