package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/keyphrase/pkg/keyphrase/morph"
	"github.com/cognicore/keyphrase/pkg/keyphrase/stoplist"
)

// DefaultMinTokenRunes is the shortest token kept before and after
// lemmatization.
const DefaultMinTokenRunes = 3

// Alphabet reports whether a lowercase rune belongs to the text alphabet.
// Runes outside it are treated as separators.
type Alphabet func(r rune) bool

// RussianAlphabet accepts Russian Cyrillic, basic Latin letters and the hyphen.
func RussianAlphabet(r rune) bool {
	return (r >= 'а' && r <= 'я') || r == 'ё' || (r >= 'a' && r <= 'z') || r == '-'
}

// LetterAlphabet accepts any Unicode letter and the hyphen.
func LetterAlphabet(r rune) bool {
	return unicode.IsLetter(r) || r == '-'
}

// Normalizer cleans raw text into a sequence of normalized word tokens:
// lowercase, alphabet filtering, stopword removal and lemmatization.
type Normalizer struct {
	stopwords *stoplist.Manager
	analyzer  morph.Analyzer
	alphabet  Alphabet
	minRunes  int
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithAlphabet replaces the default Russian alphabet.
func WithAlphabet(a Alphabet) NormalizerOption {
	return func(n *Normalizer) {
		if a != nil {
			n.alphabet = a
		}
	}
}

// WithMinTokenRunes sets the minimum token length in runes.
func WithMinTokenRunes(min int) NormalizerOption {
	return func(n *Normalizer) {
		if min > 0 {
			n.minRunes = min
		}
	}
}

// NewNormalizer creates a normalizer. A nil stoplist means no stopwords and a
// nil analyzer degrades to identity normalization.
func NewNormalizer(stops *stoplist.Manager, analyzer morph.Analyzer, opts ...NormalizerOption) *Normalizer {
	if stops == nil {
		stops = stoplist.NewManager(nil)
	}
	if analyzer == nil {
		analyzer = morph.Identity{}
	}
	n := &Normalizer{
		stopwords: stops,
		analyzer:  analyzer,
		alphabet:  RussianAlphabet,
		minRunes:  DefaultMinTokenRunes,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Analyzer returns the morphological analyzer in use.
func (n *Normalizer) Analyzer() morph.Analyzer {
	return n.analyzer
}

// Token is a normalized word with the part of speech of its surface form.
type Token struct {
	Text string
	Tag  morph.Tag
}

// Normalize splits text into normalized tokens, removing stopwords and
// short words.
func (n *Normalizer) Normalize(text string) []string {
	return Texts(n.Tokens(text))
}

// Tokens is Normalize keeping the tag of every token.
func (n *Normalizer) Tokens(text string) []Token {
	var tokens []Token
	for _, word := range strings.Fields(n.clean(text)) {
		if n.stopwords.IsStop(word) || utf8.RuneCountInString(word) < n.minRunes {
			continue
		}
		norm, tag := n.analyzer.Analyze(stripLeadingHyphens(word))
		if utf8.RuneCountInString(norm) < n.minRunes {
			continue
		}
		tokens = append(tokens, Token{Text: norm, Tag: tag})
	}
	return tokens
}

// Texts returns the text of each token.
func Texts(tokens []Token) []string {
	if tokens == nil {
		return nil
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

// clean lowercases text and replaces every rune outside the alphabet with a
// space.
func (n *Normalizer) clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if n.alphabet(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// stripLeadingHyphens removes leading hyphens; a token made only of hyphens
// becomes a single "-".
func stripLeadingHyphens(word string) string {
	if !strings.HasPrefix(word, "-") {
		return word
	}
	if trimmed := strings.TrimLeft(word, "-"); trimmed != "" {
		return trimmed
	}
	return "-"
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
