package ingest

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/keyphrase/pkg/keyphrase/morph"
)

// Candidate generation defaults.
const (
	DefaultMaxCandidates      = 120
	DefaultMinFrequency       = 2
	DefaultMinUnigramRunes    = 3
	DefaultMinBigramPartRunes = 4
)

// IsBigram reports whether a candidate is a two-word phrase.
func IsBigram(candidate string) bool {
	return strings.Contains(candidate, " ")
}

// CandidateGenerator builds frequency-ranked keyword candidates from
// normalized tokens.
type CandidateGenerator struct {
	analyzer           morph.Analyzer
	allowed            map[morph.Tag]struct{}
	maxCandidates      int
	minUnigramRunes    int
	minBigramPartRunes int
}

// GeneratorOption configures a CandidateGenerator.
type GeneratorOption func(*CandidateGenerator)

// WithAllowedTags sets the parts of speech a unigram may have.
// The default is nouns only.
func WithAllowedTags(tags ...morph.Tag) GeneratorOption {
	return func(g *CandidateGenerator) {
		if len(tags) == 0 {
			return
		}
		g.allowed = make(map[morph.Tag]struct{}, len(tags))
		for _, t := range tags {
			g.allowed[t] = struct{}{}
		}
	}
}

// WithMaxCandidates caps the number of generated candidates.
func WithMaxCandidates(n int) GeneratorOption {
	return func(g *CandidateGenerator) {
		if n > 0 {
			g.maxCandidates = n
		}
	}
}

// WithMinUnigramRunes sets the minimum unigram length in runes.
func WithMinUnigramRunes(n int) GeneratorOption {
	return func(g *CandidateGenerator) {
		if n > 0 {
			g.minUnigramRunes = n
		}
	}
}

// WithMinBigramPartRunes sets the minimum length of each bigram component.
func WithMinBigramPartRunes(n int) GeneratorOption {
	return func(g *CandidateGenerator) {
		if n > 0 {
			g.minBigramPartRunes = n
		}
	}
}

// NewCandidateGenerator creates a generator. A nil analyzer tags nothing,
// and untagged words are accepted.
func NewCandidateGenerator(analyzer morph.Analyzer, opts ...GeneratorOption) *CandidateGenerator {
	if analyzer == nil {
		analyzer = morph.Identity{}
	}
	g := &CandidateGenerator{
		analyzer:           analyzer,
		allowed:            map[morph.Tag]struct{}{morph.TagNoun: {}},
		maxCandidates:      DefaultMaxCandidates,
		minUnigramRunes:    DefaultMinUnigramRunes,
		minBigramPartRunes: DefaultMinBigramPartRunes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// counter tracks frequencies while remembering first-seen order.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter(capacity int) *counter {
	return &counter{counts: make(map[string]int, capacity)}
}

func (c *counter) add(s string) {
	if _, ok := c.counts[s]; !ok {
		c.order = append(c.order, s)
	}
	c.counts[s]++
}

// Generate returns up to the configured cap of candidates ordered by
// frequency descending. Ties keep first-seen order, unigrams before bigrams.
// Tokens are tagged with the analyzer's PartOfSpeech.
func (g *CandidateGenerator) Generate(tokens []string, useBigrams bool, minFrequency int) []string {
	tagged := make([]Token, len(tokens))
	for i, tok := range tokens {
		tagged[i] = Token{Text: tok, Tag: g.analyzer.PartOfSpeech(tok)}
	}
	return g.GenerateTagged(tagged, useBigrams, minFrequency)
}

// GenerateTagged is Generate for tokens that already carry their tags. Only
// occurrences with an allowed or unknown tag count towards a unigram, so the
// result depends on nothing but the tokens.
func (g *CandidateGenerator) GenerateTagged(tokens []Token, useBigrams bool, minFrequency int) []string {
	unigrams := newCounter(len(tokens))
	for _, tok := range tokens {
		if g.tagAllowed(tok.Tag) {
			unigrams.add(tok.Text)
		}
	}

	type scored struct {
		text string
		freq int
	}
	var out []scored

	for _, w := range unigrams.order {
		freq := unigrams.counts[w]
		if freq < minFrequency || utf8.RuneCountInString(w) < g.minUnigramRunes {
			continue
		}
		out = append(out, scored{text: w, freq: freq})
	}

	if useBigrams && len(tokens) > 1 {
		bigrams := newCounter(len(tokens) - 1)
		for i := 0; i+1 < len(tokens); i++ {
			if tokens[i].Text == "" || tokens[i+1].Text == "" {
				continue
			}
			bigrams.add(tokens[i].Text + " " + tokens[i+1].Text)
		}
		for _, bg := range bigrams.order {
			freq := bigrams.counts[bg]
			if freq < minFrequency {
				continue
			}
			first, second, _ := strings.Cut(bg, " ")
			if utf8.RuneCountInString(first) < g.minBigramPartRunes ||
				utf8.RuneCountInString(second) < g.minBigramPartRunes {
				continue
			}
			out = append(out, scored{text: bg, freq: freq})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].freq > out[j].freq
	})

	if len(out) > g.maxCandidates {
		out = out[:g.maxCandidates]
	}
	result := make([]string, len(out))
	for i, s := range out {
		result[i] = s.text
	}
	return result
}

func (g *CandidateGenerator) tagAllowed(tag morph.Tag) bool {
	if tag == morph.TagUnknown {
		return true
	}
	_, ok := g.allowed[tag]
	return ok
}
