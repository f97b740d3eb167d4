package morph

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Snowball is an Analyzer backed by the snowball stemmer.
//
// Normalize consults the lexicon first, then stems the word (when stemming is
// enabled). Part-of-speech tags come from the lexicon when known; otherwise
// they are guessed from the suffix of the surface form, so callers that need
// tags should use Analyze rather than tagging normalized forms.
type Snowball struct {
	language string
	stem     bool
	lexicon  *Lexicon
	logger   *slog.Logger
}

// SnowballOption configures a Snowball analyzer.
type SnowballOption func(*Snowball)

// WithLexicon sets a lemma lexicon consulted before stemming.
func WithLexicon(lex *Lexicon) SnowballOption {
	return func(s *Snowball) {
		s.lexicon = lex
	}
}

// WithStemming enables or disables the stemmer. With stemming disabled,
// words outside the lexicon pass through unchanged.
func WithStemming(enabled bool) SnowballOption {
	return func(s *Snowball) {
		s.stem = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SnowballOption {
	return func(s *Snowball) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSnowball creates an analyzer for the given snowball language
// ("russian", "english", ...).
func NewSnowball(language string, opts ...SnowballOption) (*Snowball, error) {
	s := &Snowball{
		language: language,
		stem:     true,
		lexicon:  NewLexicon(),
		logger:   slog.Default().With("component", "morph"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lexicon == nil {
		s.lexicon = NewLexicon()
	}
	return s, nil
}

// Normalize implements Analyzer.
func (s *Snowball) Normalize(word string) string {
	if lemma, ok := s.lexicon.Lemma(word); ok {
		return lemma
	}

	base := word
	if s.stem {
		stemmed, err := snowball.Stem(word, s.languageFor(word), true)
		if err != nil {
			s.logger.Debug("stem failed, keeping surface form", "word", word, "err", err)
		} else if stemmed != "" {
			base = stemmed
		}
	}
	return base
}

// Analyze implements Analyzer. The tag is taken from the surface form.
func (s *Snowball) Analyze(word string) (string, Tag) {
	return s.Normalize(word), s.PartOfSpeech(word)
}

// PartOfSpeech implements Analyzer.
func (s *Snowball) PartOfSpeech(word string) Tag {
	if tag, ok := s.lexicon.Tag(word); ok {
		return tag
	}
	return guessTag(word)
}

// languageFor routes Latin-script words to the English stemmer when the
// analyzer is configured for Russian, since mixed-script texts are common.
func (s *Snowball) languageFor(word string) string {
	if s.language != "russian" {
		return s.language
	}
	for _, r := range word {
		if unicode.Is(unicode.Cyrillic, r) {
			return s.language
		}
	}
	return "english"
}

// Suffix tables for guessing tags of words outside the lexicon. Order
// matters: the first matching rule wins.
var (
	nounSuffixes = []string{"ние", "ния", "нию", "тие", "ствие", "ство", "ость", "тель", "ция", "изм"}
	infnSuffixes = []string{"ться", "тись", "ть", "ти", "чь"}
	verbSuffixes = []string{
		"ется", "ится", "ются", "ятся", "ался", "ился",
		"ает", "яет", "еет", "ует", "ают", "яют", "уют", "еют",
		"ит", "ят", "ала", "ила", "ило", "али", "или", "ся", "сь",
	}
	adjSuffixes = []string{
		"ого", "его", "ому", "ему", "ыми", "ими",
		"ый", "ий", "ой", "ая", "яя", "ое", "ее", "ые", "ие", "ым", "им", "ых", "их", "ую", "юю",
	}
	englishAdj  = []string{"ous", "ful", "ive", "able", "ible", "less", "ical"}
	englishVerb = []string{"ize", "ise", "ify"}
)

// guessTag assigns a tag from word endings. Short words default to nouns:
// most two- and three-letter words that survive stopword removal are nouns.
func guessTag(word string) Tag {
	runes := []rune(word)
	if len(runes) < 4 {
		return TagNoun
	}

	if !isCyrillic(runes) {
		switch {
		case strings.HasSuffix(word, "ly"):
			return TagAdverb
		case hasAnySuffix(word, englishAdj):
			return TagAdjFull
		case hasAnySuffix(word, englishVerb):
			return TagVerb
		}
		return TagNoun
	}

	switch {
	case hasAnySuffix(word, nounSuffixes):
		return TagNoun
	case hasAnySuffix(word, infnSuffixes):
		return TagInfn
	case hasAnySuffix(word, verbSuffixes):
		return TagVerb
	case hasAnySuffix(word, adjSuffixes):
		return TagAdjFull
	}
	return TagNoun
}

func hasAnySuffix(word string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(word, suf) {
			return true
		}
	}
	return false
}

func isCyrillic(runes []rune) bool {
	for _, r := range runes {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}
