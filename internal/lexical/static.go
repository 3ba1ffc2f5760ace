package lexical

import (
	"context"
	"strings"
)

// staticRelations is the built-in lexical dictionary: lemma -> its
// synonyms, hypernyms (broader terms), and hyponyms (narrower terms). It is
// loaded once at process start (construction of StaticNetwork), and
// covers general-domain vocabulary appropriate to a corpus of books,
// papers, and articles.
var staticRelations = map[string]Entry{
	"consensus": {
		Synonyms:  []string{"agreement", "accord"},
		Hypernyms: []string{"coordination", "protocol"},
		Hyponyms:  []string{"paxos", "raft", "byzantine agreement"},
	},
	"algorithm": {
		Synonyms:  []string{"procedure", "method"},
		Hypernyms: []string{"computation"},
		Hyponyms:  []string{"heuristic", "protocol"},
	},
	"paxos": {
		Synonyms:  []string{},
		Hypernyms: []string{"consensus", "protocol"},
		Hyponyms:  []string{"multi-paxos", "fast paxos"},
	},
	"raft": {
		Synonyms:  []string{},
		Hypernyms: []string{"consensus", "protocol"},
		Hyponyms:  []string{},
	},
	"protocol": {
		Synonyms:  []string{"procedure", "convention"},
		Hypernyms: []string{"specification"},
		Hyponyms:  []string{"consensus", "handshake"},
	},
	"distributed": {
		Synonyms:  []string{"decentralized", "dispersed"},
		Hypernyms: []string{"system"},
		Hyponyms:  []string{"peer-to-peer", "replicated"},
	},
	"network": {
		Synonyms:  []string{"graph", "web"},
		Hypernyms: []string{"structure"},
		Hyponyms:  []string{"internet", "topology"},
	},
	"innovation": {
		Synonyms:  []string{"invention", "novelty", "breakthrough"},
		Hypernyms: []string{"change"},
		Hyponyms:  []string{"disruption", "creativity"},
	},
	"economy": {
		Synonyms:  []string{"economics", "market"},
		Hypernyms: []string{"system"},
		Hyponyms:  []string{"microeconomics", "macroeconomics"},
	},
	"evolution": {
		Synonyms:  []string{"development", "progression"},
		Hypernyms: []string{"change", "process"},
		Hyponyms:  []string{"natural selection", "adaptation"},
	},
	"intelligence": {
		Synonyms:  []string{"cognition", "reasoning"},
		Hypernyms: []string{"capability"},
		Hyponyms:  []string{"artificial intelligence", "machine learning"},
	},
	"learning": {
		Synonyms:  []string{"training", "acquisition"},
		Hypernyms: []string{"cognition"},
		Hyponyms:  []string{"supervised learning", "reinforcement learning"},
	},
	"memory": {
		Synonyms:  []string{"recall", "retention"},
		Hypernyms: []string{"cognition"},
		Hyponyms:  []string{"short-term memory", "long-term memory"},
	},
	"energy": {
		Synonyms:  []string{"power"},
		Hypernyms: []string{"physical quantity"},
		Hyponyms:  []string{"kinetic energy", "potential energy"},
	},
	"structure": {
		Synonyms:  []string{"organization", "architecture"},
		Hypernyms: []string{"form"},
		Hyponyms:  []string{"hierarchy", "network"},
	},
	"democracy": {
		Synonyms:  []string{"self-governance"},
		Hypernyms: []string{"government"},
		Hyponyms:  []string{"representative democracy", "direct democracy"},
	},
	"war": {
		Synonyms:  []string{"conflict", "warfare"},
		Hypernyms: []string{"violence"},
		Hyponyms:  []string{"civil war", "cold war"},
	},
	"philosophy": {
		Synonyms:  []string{"thought", "theory"},
		Hypernyms: []string{"inquiry"},
		Hyponyms:  []string{"ethics", "metaphysics", "epistemology"},
	},
	"language": {
		Synonyms:  []string{"tongue", "speech"},
		Hypernyms: []string{"communication"},
		Hyponyms:  []string{"syntax", "grammar"},
	},
	"climate": {
		Synonyms:  []string{"weather pattern"},
		Hypernyms: []string{"environment"},
		Hyponyms:  []string{"climate change", "microclimate"},
	},
	"security": {
		Synonyms:  []string{"safety", "protection"},
		Hypernyms: []string{"assurance"},
		Hyponyms:  []string{"cryptography", "authentication"},
	},
	"data": {
		Synonyms:  []string{"information", "records"},
		Hypernyms: []string{"content"},
		Hyponyms:  []string{"metadata", "dataset"},
	},
}

// StaticNetwork is the built-in, process-local Network backed by the
// static relation table above.
type StaticNetwork struct {
	relations map[string]Entry
}

// NewStaticNetwork constructs a StaticNetwork over the built-in dictionary.
func NewStaticNetwork() *StaticNetwork {
	return &StaticNetwork{relations: staticRelations}
}

func (n *StaticNetwork) Lookup(_ context.Context, lemma string) (Entry, error) {
	key := strings.ToLower(strings.TrimSpace(lemma))
	if e, ok := n.relations[key]; ok {
		return e, nil
	}
	return Entry{}, nil
}

var _ Network = (*StaticNetwork)(nil)
