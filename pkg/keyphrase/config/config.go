package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
	"github.com/cognicore/keyphrase/pkg/keyphrase/morph"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KEYPHRASE_"

// Config is the root configuration.
type Config struct {
	Language   string           `yaml:"language"`
	Morphology MorphologyConfig `yaml:"morphology"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Store      StoreConfig      `yaml:"store"`
}

// MorphologyConfig configures normalization and tagging.
type MorphologyConfig struct {
	// Stemming can be switched off to keep surface forms.
	Stemming *bool `yaml:"stemming,omitempty"`
	// Lexicon is an optional YAML lemma list consulted before stemming.
	Lexicon string `yaml:"lexicon"`
	// Stoplist is an optional YAML stopword list merged into the bundled one.
	Stoplist string `yaml:"stoplist"`
	// Alphabet is "russian" (Cyrillic and Latin) or "letters" (any letter).
	Alphabet      string `yaml:"alphabet"`
	MinTokenRunes int    `yaml:"min_token_runes"`
}

// StemmingEnabled reports whether the stemmer is on; it defaults to true.
func (m MorphologyConfig) StemmingEnabled() bool {
	return m.Stemming == nil || *m.Stemming
}

// Keyword similarity thresholds per embedder. Hashing vectors only reflect
// surface overlap, so single words score far lower against a document than
// with a trained model.
const (
	HashingThreshold = 0.1
	ModelThreshold   = 0.475
)

// ExtractionConfig holds keyword extraction parameters.
type ExtractionConfig struct {
	UseBigrams bool `yaml:"use_bigrams"`
	// Threshold is the minimum keyword-to-document similarity. Zero selects
	// the embedder's default, see Config.KeywordThreshold.
	Threshold float64 `yaml:"threshold"`
	// AllowedTags are the parts of speech a unigram candidate may have
	// (NOUN, ADJF, ADJS, VERB, INFN, ADVB).
	AllowedTags        []string `yaml:"allowed_tags"`
	MinFrequency       int      `yaml:"min_frequency"`
	MaxCandidates      int      `yaml:"max_candidates"`
	MaxEmbedCandidates int      `yaml:"max_embed_candidates"`
	MinUnigramRunes    int      `yaml:"min_unigram_runes"`
	MinBigramPartRunes int      `yaml:"min_bigram_part_runes"`
	ChunkWords         int      `yaml:"chunk_words"`
	OverlapWords       int      `yaml:"overlap_words"`
	MaxChunks          int      `yaml:"max_chunks"`
	Workers            int      `yaml:"workers"`
	MinKeywords        int      `yaml:"min_keywords"`
}

// SimilarityConfig configures document comparison.
type SimilarityConfig struct {
	// Mode is "semantic" or "classical".
	Mode              string  `yaml:"mode"`
	ShortCircuit      float64 `yaml:"short_circuit"`
	Floor             float64 `yaml:"floor"`
	Weight            float64 `yaml:"weight"`
	RelevantThreshold float64 `yaml:"relevant_threshold"`
	MaxResults        int     `yaml:"max_results"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	// Type is "hashing", "openai" or "none".
	Type string `yaml:"type"`
	// Dim is the hashing embedder's dimension.
	Dim       int    `yaml:"dim"`
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	TokenEnv  string `yaml:"token_env"`
	BatchSize int    `yaml:"batch_size"`

	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	RateLimit   float64       `yaml:"rate_limit"`
	Burst       int           `yaml:"burst"`
	CacheSize   int           `yaml:"cache_size"`
}

// KeywordThreshold returns the extraction threshold, falling back to the
// default of the configured embedder.
func (c *Config) KeywordThreshold() float64 {
	if c.Extraction.Threshold != 0 {
		return c.Extraction.Threshold
	}
	if c.Embedder.Type == "hashing" {
		return HashingThreshold
	}
	return ModelThreshold
}

// Tags parses AllowedTags. Unknown names are skipped.
func (e ExtractionConfig) Tags() []morph.Tag {
	tags := make([]morph.Tag, 0, len(e.AllowedTags))
	for _, name := range e.AllowedTags {
		if tag := morph.ParseTag(strings.ToUpper(strings.TrimSpace(name))); tag != morph.TagUnknown {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Token returns the API token from the configured environment variable.
func (e EmbedderConfig) Token() string {
	if e.TokenEnv == "" {
		return ""
	}
	return os.Getenv(e.TokenEnv)
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	// Backend is "sqlite", "badger" or "memory".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Language: "russian",
		Morphology: MorphologyConfig{
			Alphabet:      "russian",
			MinTokenRunes: 3,
		},
		Extraction: ExtractionConfig{
			UseBigrams:         false,
			AllowedTags:        []string{"NOUN"},
			MinFrequency:       2,
			MaxCandidates:      120,
			MaxEmbedCandidates: 100,
			MinUnigramRunes:    3,
			MinBigramPartRunes: 4,
			ChunkWords:         300,
			OverlapWords:       50,
			MaxChunks:          5,
			Workers:            4,
			MinKeywords:        3,
		},
		Similarity: SimilarityConfig{
			Mode:              "semantic",
			ShortCircuit:      0.4,
			Floor:             0.25,
			Weight:            0.8,
			RelevantThreshold: 0.6,
			MaxResults:        10,
		},
		Embedder: EmbedderConfig{
			Type:        "hashing",
			Dim:         384,
			TokenEnv:    "OPENAI_API_KEY",
			MaxAttempts: 3,
			RetryDelay:  500 * time.Millisecond,
			CacheSize:   4096,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "documents.db",
		},
	}
}

// Load reads a YAML config over the defaults. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from KEYPHRASE_* environment variables.
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("LANGUAGE", &c.Language)
	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_PATH", &c.Store.Path)
	str("EMBEDDER", &c.Embedder.Type)
	str("EMBEDDER_HOST", &c.Embedder.Host)
	str("EMBEDDER_MODEL", &c.Embedder.Model)
	str("EMBEDDER_TOKEN_ENV", &c.Embedder.TokenEnv)
	str("SIMILARITY_MODE", &c.Similarity.Mode)
	str("LEXICON", &c.Morphology.Lexicon)
	str("STOPLIST", &c.Morphology.Stoplist)

	var errs []error
	if v, ok := os.LookupEnv(EnvPrefix + "THRESHOLD"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTHRESHOLD: %w", EnvPrefix, err))
		} else {
			c.Extraction.Threshold = f
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "USE_BIGRAMS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sUSE_BIGRAMS: %w", EnvPrefix, err))
		} else {
			c.Extraction.UseBigrams = b
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{internalerr.ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Validate checks the configuration for values the components cannot use.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Language != "", "language is required")
	check(oneOf(c.Morphology.Alphabet, "", "russian", "letters"), "morphology.alphabet %q: want russian or letters", c.Morphology.Alphabet)

	e := c.Extraction
	check(e.Threshold >= -1 && e.Threshold <= 1, "extraction.threshold %v outside [-1, 1]", e.Threshold)
	for _, name := range e.AllowedTags {
		check(morph.ParseTag(strings.ToUpper(strings.TrimSpace(name))) != morph.TagUnknown,
			"extraction.allowed_tags: unknown tag %q", name)
	}
	check(e.MinFrequency >= 1, "extraction.min_frequency must be at least 1")
	check(e.MaxCandidates >= 1, "extraction.max_candidates must be at least 1")
	check(e.ChunkWords >= 1, "extraction.chunk_words must be at least 1")
	check(e.OverlapWords >= 0 && e.OverlapWords < e.ChunkWords, "extraction.overlap_words must be in [0, chunk_words)")
	check(e.Workers >= 1, "extraction.workers must be at least 1")

	s := c.Similarity
	check(oneOf(s.Mode, "semantic", "classical"), "similarity.mode %q: want semantic or classical", s.Mode)
	check(s.RelevantThreshold >= 0 && s.RelevantThreshold <= 1, "similarity.relevant_threshold outside [0, 1]")
	check(s.Weight >= 0, "similarity.weight must not be negative")

	switch c.Embedder.Type {
	case "hashing":
		check(c.Embedder.Dim > 0, "embedder.dim must be positive")
	case "openai":
		check(c.Embedder.Host != "", "embedder.host is required for openai")
		check(c.Embedder.Model != "", "embedder.model is required for openai")
	case "none":
	default:
		errs = append(errs, fmt.Errorf("embedder.type %q: want hashing, openai or none", c.Embedder.Type))
	}

	switch c.Store.Backend {
	case "sqlite", "badger":
		check(c.Store.Path != "", "store.path is required for %s", c.Store.Backend)
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("store.backend %q: want sqlite, badger or memory", c.Store.Backend))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{internalerr.ErrInvalidConfig}, errs...)...)
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
