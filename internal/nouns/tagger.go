// Package nouns provides lexical retrieval by noun overlap: a part-of-speech
// tagger feeds an inverted index from lowercase noun to document ids.
package nouns

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// Tagger produces (token, POS tag) pairs for a text. Tags follow the Penn
// Treebank set used by the underlying model ("NN", "NNS", "NNP", "NNPS", ...).
type Tagger interface {
	Tag(text string) ([]TaggedToken, error)
}

// TaggedToken is one token with its part-of-speech tag.
type TaggedToken struct {
	Text string
	Tag  string
}

// ProseTagger tags text with the prose NLP library's perceptron tagger.
type ProseTagger struct{}

// NewProseTagger returns the default tagger.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag tokenizes and POS-tags text. Entity extraction is disabled; only
// tokenization and tagging run.
func (t *ProseTagger) Tag(text string) ([]TaggedToken, error) {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil, err
	}
	tokens := doc.Tokens()
	out := make([]TaggedToken, len(tokens))
	for i, tok := range tokens {
		out[i] = TaggedToken{Text: tok.Text, Tag: tok.Tag}
	}
	return out, nil
}

var nounTags = map[string]struct{}{
	"NN": {}, "NNS": {}, "NNP": {}, "NNPS": {},
}

// ExtractNouns tags text (original case, so proper nouns keep their NNP
// signal) and returns the set of nouns longer than one character, lowercased
// so matching is case-insensitive.
func ExtractNouns(tagger Tagger, text string) (map[string]struct{}, error) {
	tokens, err := tagger.Tag(text)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, tok := range tokens {
		if _, ok := nounTags[tok.Tag]; !ok {
			continue
		}
		if len(tok.Text) <= 1 {
			continue
		}
		set[strings.ToLower(tok.Text)] = struct{}{}
	}
	return set, nil
}
