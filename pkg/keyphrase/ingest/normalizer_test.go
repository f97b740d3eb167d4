package ingest

import (
	"reflect"
	"testing"

	"github.com/cognicore/keyphrase/pkg/keyphrase/morph"
	"github.com/cognicore/keyphrase/pkg/keyphrase/stoplist"
)

func TestNormalizerCleansText(t *testing.T) {
	n := NewNormalizer(stoplist.NewManager([]string{"и"}), nil)

	got := n.Normalize("Кот и Пёс, 2024: ёжик!!! GPT4 на-лету")
	want := []string{"кот", "пёс", "ёжик", "gpt", "на-лету"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalizerDropsShortTokens(t *testing.T) {
	n := NewNormalizer(nil, nil)
	got := n.Normalize("я ты он кот")
	if !reflect.DeepEqual(got, []string{"кот"}) {
		t.Errorf("Normalize = %v, want [кот]", got)
	}

	n = NewNormalizer(nil, nil, WithMinTokenRunes(4))
	if got := n.Normalize("кот кошка"); !reflect.DeepEqual(got, []string{"кошка"}) {
		t.Errorf("Normalize with min 4 = %v, want [кошка]", got)
	}
}

func TestNormalizerLeadingHyphens(t *testing.T) {
	n := NewNormalizer(nil, nil)
	got := n.Normalize("--данные -модель ---")
	want := []string{"данные", "модель"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestStripLeadingHyphens(t *testing.T) {
	tests := map[string]string{
		"кот":     "кот",
		"-кот":    "кот",
		"--кот-":  "кот-",
		"---":     "-",
		"на-лету": "на-лету",
	}
	for in, want := range tests {
		if got := stripLeadingHyphens(in); got != want {
			t.Errorf("stripLeadingHyphens(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizerStopwordsCheckedBeforeLemmatizing(t *testing.T) {
	lex := morph.NewLexicon()
	lex.Add("быть", morph.TagVerb, []string{"было"})
	analyzer, err := morph.NewSnowball("russian", morph.WithLexicon(lex), morph.WithStemming(false))
	if err != nil {
		t.Fatal(err)
	}
	n := NewNormalizer(stoplist.NewManager([]string{"было"}), analyzer)
	if got := n.Normalize("было было"); len(got) != 0 {
		t.Errorf("stopwords should be removed before lemmatizing, got %v", got)
	}
}

func TestNormalizerLetterAlphabet(t *testing.T) {
	n := NewNormalizer(nil, nil, WithAlphabet(LetterAlphabet))
	got := n.Normalize("Straße café")
	want := []string{"straße", "café"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}

	n = NewNormalizer(nil, nil)
	if got := n.Normalize("Straße"); !reflect.DeepEqual(got, []string{"stra"}) {
		t.Errorf("Russian alphabet should split on ß, got %v", got)
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  один два\tтри\n"); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount(\"\") = %d, want 0", got)
	}
}
