package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cognicore/keyphrase/pkg/keyphrase/embed"
	"github.com/cognicore/keyphrase/pkg/keyphrase/embed/openai"
	"github.com/cognicore/keyphrase/pkg/keyphrase/ingest"
	"github.com/cognicore/keyphrase/pkg/keyphrase/morph"
	"github.com/cognicore/keyphrase/pkg/keyphrase/rank"
	"github.com/cognicore/keyphrase/pkg/keyphrase/similarity"
	"github.com/cognicore/keyphrase/pkg/keyphrase/source"
	"github.com/cognicore/keyphrase/pkg/keyphrase/stoplist"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store/badgerstore"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store/memstore"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store/sqlite"
)

// Loader builds components from a configuration.
type Loader struct {
	Config *Config
	Logger *slog.Logger
}

// Components holds everything built from a configuration.
type Components struct {
	Analyzer morph.Analyzer
	Stoplist *stoplist.Manager
	Pipeline *ingest.Pipeline
	Chunker  ingest.Chunker
	Provider embed.Provider // nil when embeddings are disabled
	Ranker   *rank.Ranker   // nil when embeddings are disabled
	Scorer   similarity.Scorer
	Store    store.Store // nil until LoadStore
	Sources  *source.Registry
}

// Close releases the ranker pool and the store.
func (c *Components) Close() error {
	if c.Ranker != nil {
		c.Ranker.Release()
	}
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Load validates the configuration and builds the text processing and
// embedding components. The store is opened separately with LoadStore.
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := &Components{Sources: source.Default()}

	// Load lexicon
	lex := morph.NewLexicon()
	if cfg.Morphology.Lexicon != "" {
		var err error
		lex, err = morph.LoadLexicon(cfg.Morphology.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
	}
	analyzer, err := morph.NewSnowball(cfg.Language,
		morph.WithLexicon(lex),
		morph.WithStemming(cfg.Morphology.StemmingEnabled()),
		morph.WithLogger(l.logger().With("component", "morph")),
	)
	if err != nil {
		return nil, fmt.Errorf("morphology: %w", err)
	}
	comp.Analyzer = analyzer

	// Load stoplist
	comp.Stoplist = stoplist.Russian()
	if cfg.Morphology.Stoplist != "" {
		extra, err := stoplist.Load(cfg.Morphology.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist.Merge(extra)
	}

	alphabet := ingest.RussianAlphabet
	if cfg.Morphology.Alphabet == "letters" {
		alphabet = ingest.LetterAlphabet
	}
	normalizer := ingest.NewNormalizer(comp.Stoplist, analyzer,
		ingest.WithAlphabet(alphabet),
		ingest.WithMinTokenRunes(cfg.Morphology.MinTokenRunes),
	)
	ex := cfg.Extraction
	generator := ingest.NewCandidateGenerator(analyzer,
		ingest.WithAllowedTags(ex.Tags()...),
		ingest.WithMaxCandidates(ex.MaxCandidates),
		ingest.WithMinUnigramRunes(ex.MinUnigramRunes),
		ingest.WithMinBigramPartRunes(ex.MinBigramPartRunes),
	)
	comp.Pipeline = ingest.NewPipeline(normalizer, generator)
	comp.Pipeline.SetMinFrequency(ex.MinFrequency)
	comp.Chunker = ingest.Chunker{
		ChunkWords:   ex.ChunkWords,
		OverlapWords: ex.OverlapWords,
		MaxChunks:    ex.MaxChunks,
	}

	provider, err := l.buildProvider(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	comp.Provider = provider

	if provider != nil {
		comp.Ranker, err = rank.New(comp.Pipeline, provider,
			rank.WithChunker(comp.Chunker),
			rank.WithMaxCandidates(ex.MaxEmbedCandidates),
			rank.WithPoolSize(ex.Workers),
			rank.WithLogger(l.logger().With("component", "ranker")),
		)
		if err != nil {
			return nil, fmt.Errorf("ranker: %w", err)
		}
	}

	sim := cfg.Similarity
	if sim.Mode == "classical" || provider == nil {
		comp.Scorer = similarity.Classical{}
	} else {
		comp.Scorer = similarity.New(provider,
			similarity.WithShortCircuit(sim.ShortCircuit),
			similarity.WithFloor(sim.Floor),
			similarity.WithWeight(sim.Weight),
			similarity.WithLogger(l.logger().With("component", "similarity")),
		)
	}

	return comp, nil
}

// buildProvider creates the configured provider wrapped in the retry, rate
// limit and cache decorators. Type "none" yields a nil provider.
func (l *Loader) buildProvider(cfg EmbedderConfig) (embed.Provider, error) {
	var p embed.Provider
	switch cfg.Type {
	case "none":
		return nil, nil
	case "hashing":
		return embed.NewHashing(cfg.Dim), nil
	case "openai":
		op, err := openai.New(openai.Config{
			Host:      cfg.Host,
			Model:     cfg.Model,
			Token:     cfg.Token(),
			BatchSize: cfg.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		p = op
	default:
		return nil, fmt.Errorf("unknown embedder %q", cfg.Type)
	}

	if cfg.MaxAttempts > 1 {
		p = embed.NewRetrying(p, cfg.MaxAttempts, cfg.RetryDelay)
	}
	if cfg.RateLimit > 0 {
		p = embed.NewRateLimited(p, cfg.RateLimit, cfg.Burst)
	}
	if cfg.CacheSize > 0 {
		cached, err := embed.NewCached(p, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		p = cached
	}
	return p, nil
}

// LoadStore opens the configured store and records it in comp.
func (l *Loader) LoadStore(ctx context.Context, comp *Components) (store.Store, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	logger := l.logger().With("component", "store", "backend", cfg.Store.Backend)

	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Backend {
	case "sqlite":
		st, err = sqlite.OpenSQLite(ctx, cfg.Store.Path, sqlite.WithLogger(logger))
	case "badger":
		st, err = badgerstore.Open(cfg.Store.Path, badgerstore.WithLogger(logger))
	case "memory":
		st = memstore.New()
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}
	if comp != nil {
		comp.Store = st
	}
	return st, nil
}
