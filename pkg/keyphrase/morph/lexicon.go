package morph

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon stores curated word-form mappings:
// - Lemmas: inflected forms mapped to their dictionary form (сидит → сидеть)
// - Tags: the part of speech of each lemma
//
// Entries in the lexicon take precedence over stemming and suffix heuristics,
// so a small curated list fixes the words the heuristics get wrong.
type Lexicon struct {
	// lemma -> all forms (including the lemma itself)
	forms map[string][]string

	// form -> lemma
	reverseIndex map[string]string

	// lemma -> tag
	tags map[string]Tag
}

// NewLexicon creates an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		forms:        make(map[string][]string),
		reverseIndex: make(map[string]string),
		tags:         make(map[string]Tag),
	}
}

// LoadLexicon loads lemma mappings from a YAML file.
//
// Expected format:
//
//	lemmas:
//	  - lemma: сидеть
//	    tag: VERB
//	    forms: [сижу, сидит, сидят, сидел]
//	  - lemma: кошка
//	    tag: NOUN
//	    forms: [кошки, кошку, кошкой]
//
// Forms are case-insensitive; the lemma is included in its own form list.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		Lemmas []struct {
			Lemma string   `yaml:"lemma"`
			Tag   string   `yaml:"tag"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := NewLexicon()
	for _, entry := range config.Lemmas {
		lex.Add(entry.Lemma, ParseTag(entry.Tag), entry.Forms)
	}

	return lex, nil
}

// Add registers a lemma, its tag and its inflected forms.
// If the lemma already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) Add(lemma string, tag Tag, forms []string) {
	lemma = strings.ToLower(strings.TrimSpace(lemma))
	if lemma == "" {
		return
	}

	for _, old := range l.forms[lemma] {
		if l.reverseIndex[old] == lemma {
			delete(l.reverseIndex, old)
		}
	}

	normalized := []string{lemma}
	seen := map[string]bool{lemma: true}
	for _, f := range forms {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !seen[f] {
			normalized = append(normalized, f)
			seen[f] = true
		}
	}

	l.forms[lemma] = normalized
	for _, f := range normalized {
		l.reverseIndex[f] = lemma
	}
	if tag != TagUnknown {
		l.tags[lemma] = tag
	}
}

// Lemma returns the dictionary form of a word and whether it was known.
func (l *Lexicon) Lemma(word string) (string, bool) {
	lemma, ok := l.reverseIndex[strings.ToLower(word)]
	return lemma, ok
}

// Tag returns the tag recorded for a lemma or any of its forms.
func (l *Lexicon) Tag(word string) (Tag, bool) {
	word = strings.ToLower(word)
	if lemma, ok := l.reverseIndex[word]; ok {
		word = lemma
	}
	tag, ok := l.tags[word]
	return tag, ok
}

// Forms returns all known forms of a word (including the lemma).
// Unknown words return a slice containing only the word itself.
func (l *Lexicon) Forms(word string) []string {
	word = strings.ToLower(word)
	if lemma, ok := l.reverseIndex[word]; ok {
		return l.forms[lemma]
	}
	return []string{word}
}

// Len returns the number of lemmas.
func (l *Lexicon) Len() int {
	return len(l.forms)
}
