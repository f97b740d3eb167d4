package morph

import "testing"

func newRussian(t *testing.T, opts ...SnowballOption) *Snowball {
	t.Helper()
	s, err := NewSnowball("russian", opts...)
	if err != nil {
		t.Fatalf("NewSnowball: %v", err)
	}
	return s
}

func TestSnowballInflectionsShareBase(t *testing.T) {
	s := newRussian(t)
	base := s.Normalize("кот")
	for _, form := range []string{"кота", "коту", "котом"} {
		if got := s.Normalize(form); got != base {
			t.Errorf("Normalize(%q) = %q, want %q", form, got, base)
		}
	}
}

func TestSnowballTagsFollowSurfaceForm(t *testing.T) {
	s := newRussian(t)
	tests := []struct {
		word string
		want Tag
	}{
		{"кот", TagNoun},
		{"сидит", TagVerb},
		{"бежит", TagVerb},
		{"программирование", TagNoun},
		{"читать", TagInfn},
		{"красивый", TagAdjFull},
		{"вычислительных", TagAdjFull},
		{"больших", TagAdjFull},
		{"новых", TagAdjFull},
		{"котом", TagNoun},
		{"quickly", TagAdverb},
		{"python", TagNoun},
	}
	for _, tt := range tests {
		base, tag := s.Analyze(tt.word)
		if base != s.Normalize(tt.word) {
			t.Errorf("Analyze(%q) base = %q, want %q", tt.word, base, s.Normalize(tt.word))
		}
		if tag != tt.want {
			t.Errorf("Analyze(%q) tag = %q, want %q", tt.word, tag, tt.want)
		}
		if got := s.PartOfSpeech(tt.word); got != tt.want {
			t.Errorf("PartOfSpeech(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestSnowballTagIgnoresEarlierWords(t *testing.T) {
	s := newRussian(t)
	before, beforeTag := s.Analyze("нейрон")
	for _, w := range []string{"нейронная", "нейронной", "нейронные"} {
		if _, tag := s.Analyze(w); tag != TagAdjFull {
			t.Errorf("Analyze(%q) tag = %q, want ADJF", w, tag)
		}
	}
	after, afterTag := s.Analyze("нейрон")
	if before != after || beforeTag != TagNoun || afterTag != TagNoun {
		t.Errorf("Analyze(нейрон) = (%q, %q) then (%q, %q), want NOUN both times", before, beforeTag, after, afterTag)
	}
}

func TestSnowballLexiconWins(t *testing.T) {
	lex := NewLexicon()
	lex.Add("сидеть", TagVerb, []string{"сидит"})
	lex.Add("данные", TagNoun, []string{"данных"})
	s := newRussian(t, WithLexicon(lex))

	if got := s.Normalize("сидит"); got != "сидеть" {
		t.Errorf("Normalize(сидит) = %q, want сидеть", got)
	}
	if got := s.PartOfSpeech("сидеть"); got != TagVerb {
		t.Errorf("PartOfSpeech(сидеть) = %q, want VERB", got)
	}
	// "данные" looks like an adjective by its ending.
	if base, tag := s.Analyze("данных"); base != "данные" || tag != TagNoun {
		t.Errorf("Analyze(данных) = (%q, %q), want (данные, NOUN)", base, tag)
	}
}

func TestSnowballWithoutStemming(t *testing.T) {
	s := newRussian(t, WithStemming(false))
	if got := s.Normalize("котами"); got != "котами" {
		t.Errorf("Normalize without stemming = %q, want котами", got)
	}
}

func TestSnowballUnknownLanguageKeepsWord(t *testing.T) {
	s, err := NewSnowball("klingon")
	if err != nil {
		t.Fatalf("NewSnowball: %v", err)
	}
	if got := s.Normalize("qapla"); got != "qapla" {
		t.Errorf("Normalize = %q, want surface form", got)
	}
}

func TestIdentity(t *testing.T) {
	var a Analyzer = Identity{}
	if a.Normalize("котами") != "котами" {
		t.Error("Identity should not change words")
	}
	if a.PartOfSpeech("котами") != TagUnknown {
		t.Error("Identity should not tag words")
	}
	if base, tag := a.Analyze("котами"); base != "котами" || tag != TagUnknown {
		t.Errorf("Analyze = (%q, %q)", base, tag)
	}
}
