package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/keyphrase/pkg/keyphrase/embed"
	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
	"github.com/cognicore/keyphrase/pkg/keyphrase/similarity"
)

func TestLoaderDefaults(t *testing.T) {
	comp, err := (&Loader{}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Close()

	if comp.Provider == nil || comp.Ranker == nil {
		t.Fatal("default config should build an embedding provider and ranker")
	}
	if _, ok := comp.Provider.(*embed.Cached); !ok {
		t.Errorf("provider should be wrapped in the cache, got %T", comp.Provider)
	}
	if _, ok := comp.Scorer.(*similarity.Semantic); !ok {
		t.Errorf("scorer = %T, want semantic", comp.Scorer)
	}
	if comp.Store != nil {
		t.Error("store should not be opened by Load")
	}

	got := comp.Pipeline.Process("кот сидит кот сидит кот бежит", false).Candidates
	if len(got) != 1 || got[0] != "кот" {
		t.Errorf("candidates = %v, want [кот]", got)
	}
}

func TestLoaderWithoutEmbeddings(t *testing.T) {
	cfg := Default()
	cfg.Embedder.Type = "none"
	comp, err := (&Loader{Config: cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Provider != nil || comp.Ranker != nil {
		t.Error("no provider or ranker expected")
	}
	if _, ok := comp.Scorer.(similarity.Classical); !ok {
		t.Errorf("scorer = %T, want classical", comp.Scorer)
	}
}

func TestLoaderLexiconAndStoplist(t *testing.T) {
	dir := t.TempDir()
	lexPath := filepath.Join(dir, "lexicon.yaml")
	stopPath := filepath.Join(dir, "stop.yaml")
	if err := os.WriteFile(lexPath, []byte("lemmas:\n  - lemma: данные\n    tag: NOUN\n    forms: [данных]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stopPath, []byte("terms: [модель]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Morphology.Lexicon = lexPath
	cfg.Morphology.Stoplist = stopPath
	comp, err := (&Loader{Config: cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Close()

	if !comp.Stoplist.IsStop("модель") || !comp.Stoplist.IsStop("и") {
		t.Error("custom stopwords should be merged into the bundled list")
	}
	got := comp.Pipeline.Process("данных модель данных модель", false).Candidates
	if len(got) != 1 || got[0] != "данные" {
		t.Errorf("candidates = %v, want [данные]", got)
	}
}

func TestLoaderAllowedTags(t *testing.T) {
	const text = "новых моделей новых моделей"

	comp, err := (&Loader{}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Close()
	nouns := comp.Pipeline.Process(text, false).Candidates
	if len(nouns) != 1 || nouns[0] != comp.Analyzer.Normalize("моделей") {
		t.Errorf("candidates = %v, want only the noun", nouns)
	}

	cfg := Default()
	cfg.Extraction.AllowedTags = []string{"NOUN", "ADJF"}
	comp, err = (&Loader{Config: cfg}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Close()
	got := comp.Pipeline.Process(text, false).Candidates
	want := []string{comp.Analyzer.Normalize("новых"), comp.Analyzer.Normalize("моделей")}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("candidates = %v, want %v", got, want)
	}
}

func TestLoaderBadLexicon(t *testing.T) {
	cfg := Default()
	cfg.Morphology.Lexicon = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := (&Loader{Config: cfg}).Load(); err == nil {
		t.Error("expected error for missing lexicon")
	}
}

func TestLoaderInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "postgres"
	if _, err := (&Loader{Config: cfg}).Load(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadStoreBackends(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{"memory", "sqlite", "badger"} {
		t.Run(backend, func(t *testing.T) {
			cfg := Default()
			cfg.Store.Backend = backend
			cfg.Store.Path = filepath.Join(t.TempDir(), "docs")
			l := &Loader{Config: cfg}
			comp, err := l.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			st, err := l.LoadStore(ctx, comp)
			if err != nil {
				t.Fatalf("LoadStore: %v", err)
			}
			defer comp.Close()

			if comp.Store != st {
				t.Error("LoadStore should record the store")
			}
			id, err := st.Add(ctx, []string{"a", "b", "c"}, "doc")
			if err != nil || id <= 0 {
				t.Errorf("Add = %d, %v", id, err)
			}
		})
	}
}
