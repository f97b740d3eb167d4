// Package keyphrase extracts keyword sets from documents and finds stored
// documents whose keyword sets resemble a query text.
package keyphrase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/keyphrase/pkg/keyphrase/config"
	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
	"github.com/cognicore/keyphrase/pkg/keyphrase/rank"
	"github.com/cognicore/keyphrase/pkg/keyphrase/similarity"
	"github.com/cognicore/keyphrase/pkg/keyphrase/source"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store"
)

// Engine defaults.
const (
	DefaultThreshold         = 0.475
	DefaultMinKeywords       = 3
	DefaultRelevantThreshold = 0.6
	DefaultMaxResults        = 10

	previewKeywords = 5
	maxLabelRunes   = 80
)

// Engine is the main facade: it extracts keywords and files them in a store.
type Engine struct {
	ranker  *rank.Ranker
	scorer  similarity.Scorer
	store   store.Store
	sources *source.Registry
	logger  *slog.Logger

	useBigrams        bool
	threshold         float64
	minKeywords       int
	relevantThreshold float64
	maxResults        int

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Ranker  *rank.Ranker
	Scorer  similarity.Scorer
	Store   store.Store
	Sources *source.Registry
	Logger  *slog.Logger

	UseBigrams        bool
	Threshold         float64
	MinKeywords       int
	RelevantThreshold float64
	MaxResults        int
}

// OptionsFrom fills Options from loaded components and their configuration.
func OptionsFrom(comp *config.Components, cfg *config.Config) Options {
	return Options{
		Ranker:            comp.Ranker,
		Scorer:            comp.Scorer,
		Store:             comp.Store,
		Sources:           comp.Sources,
		UseBigrams:        cfg.Extraction.UseBigrams,
		Threshold:         cfg.KeywordThreshold(),
		MinKeywords:       cfg.Extraction.MinKeywords,
		RelevantThreshold: cfg.Similarity.RelevantThreshold,
		MaxResults:        cfg.Similarity.MaxResults,
	}
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	e := &Engine{
		ranker:            opts.Ranker,
		scorer:            opts.Scorer,
		store:             opts.Store,
		sources:           opts.Sources,
		logger:            opts.Logger,
		useBigrams:        opts.UseBigrams,
		threshold:         opts.Threshold,
		minKeywords:       opts.MinKeywords,
		relevantThreshold: opts.RelevantThreshold,
		maxResults:        opts.MaxResults,
		entropy:           ulid.Monotonic(rand.Reader, 0),
	}
	if e.scorer == nil {
		e.scorer = similarity.Classical{}
	}
	if e.sources == nil {
		e.sources = source.Default()
	}
	if e.logger == nil {
		e.logger = slog.Default().With("component", "engine")
	}
	if e.threshold == 0 {
		e.threshold = DefaultThreshold
	}
	if e.minKeywords <= 0 {
		e.minKeywords = DefaultMinKeywords
	}
	if e.relevantThreshold == 0 {
		e.relevantThreshold = DefaultRelevantThreshold
	}
	if e.maxResults <= 0 {
		e.maxResults = DefaultMaxResults
	}
	return e
}

// Close releases the ranker and closes the store.
func (e *Engine) Close() error {
	if e.ranker != nil {
		e.ranker.Release()
	}
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Store returns the underlying document store.
func (e *Engine) Store() store.Store {
	return e.store
}

// Scorer returns the keyword set scorer used for relevance search.
func (e *Engine) Scorer() similarity.Scorer {
	return e.scorer
}

// Extract returns the scored keywords of text. The number of keywords kept
// depends on the length of the text, see MaxKeywordsFor.
func (e *Engine) Extract(ctx context.Context, text string) ([]rank.ScoredKeyword, error) {
	if e.ranker == nil {
		return nil, fmt.Errorf("keyword extraction needs an embedding provider: %w", internalerr.ErrResourceUnavailable)
	}
	return e.ranker.Extract(ctx, text, e.useBigrams, e.threshold, MaxKeywordsFor(text))
}

// Keywords is Extract without the scores.
func (e *Engine) Keywords(ctx context.Context, text string) ([]string, error) {
	scored, err := e.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	return rank.Texts(scored), nil
}

// AddReport describes a stored document.
type AddReport struct {
	ID           int64
	Label        string
	KeywordCount int
	TopKeywords  []string
	TraceID      string
}

// AddDocument extracts keywords from text and stores them under label.
// Documents yielding fewer than the minimum number of keywords are rejected
// with internalerr.ErrTooFewKeywords.
func (e *Engine) AddDocument(ctx context.Context, label, text string) (AddReport, error) {
	if e.store == nil {
		return AddReport{}, fmt.Errorf("no document store: %w", internalerr.ErrStoreUnavailable)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return AddReport{}, fmt.Errorf("empty label: %w", internalerr.ErrInvalidInput)
	}

	traceID := e.newTraceID()
	logger := e.logger.With("trace_id", traceID, "label", label)

	keywords, err := e.Keywords(ctx, text)
	if err != nil && !errors.Is(err, internalerr.ErrNoKeywords) {
		return AddReport{}, err
	}
	if len(keywords) < e.minKeywords {
		logger.Info("document rejected", "keywords", len(keywords), "min", e.minKeywords)
		return AddReport{}, fmt.Errorf("%q yielded %d keywords, need %d: %w",
			label, len(keywords), e.minKeywords, internalerr.ErrTooFewKeywords)
	}

	id, err := e.store.Add(ctx, keywords, label)
	if err != nil {
		return AddReport{}, fmt.Errorf("store document: %w", err)
	}

	report := AddReport{
		ID:           id,
		Label:        label,
		KeywordCount: len(keywords),
		TopKeywords:  append([]string(nil), keywords[:min(previewKeywords, len(keywords))]...),
		TraceID:      traceID,
	}
	logger.Info("document added", "id", id, "keywords", len(keywords))
	return report, nil
}

// ReadFile returns the plain text of a supported file.
func (e *Engine) ReadFile(ctx context.Context, path string) (string, error) {
	return e.sources.Read(ctx, path)
}

// AddFile reads a supported file and stores it labelled by its name.
func (e *Engine) AddFile(ctx context.Context, path string) (AddReport, error) {
	text, err := e.ReadFile(ctx, path)
	if err != nil {
		return AddReport{}, err
	}
	return e.AddDocument(ctx, LabelFromPath(path), text)
}

// Relevant is a stored document that resembles a query text.
type Relevant struct {
	ID         int64
	Label      string
	Similarity float64
}

// RelevantDocuments extracts keywords from text and returns the stored
// documents whose keyword sets score at least the relevance threshold, best
// first, at most the configured number of results.
func (e *Engine) RelevantDocuments(ctx context.Context, text string) ([]Relevant, error) {
	return e.RelevantDocumentsWith(ctx, text, e.relevantThreshold, e.maxResults)
}

// RelevantDocumentsWith is RelevantDocuments with an explicit threshold and
// result limit. A negative threshold or a non-positive limit selects the
// configured value.
func (e *Engine) RelevantDocumentsWith(ctx context.Context, text string, threshold float64, maxResults int) ([]Relevant, error) {
	if threshold < 0 {
		threshold = e.relevantThreshold
	}
	if maxResults <= 0 {
		maxResults = e.maxResults
	}
	if e.store == nil {
		return nil, fmt.Errorf("no document store: %w", internalerr.ErrStoreUnavailable)
	}
	keywords, err := e.Keywords(ctx, text)
	if err != nil {
		if errors.Is(err, internalerr.ErrNoKeywords) {
			return nil, nil
		}
		return nil, err
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	hits, err := e.store.SearchBySimilarity(ctx, keywords, threshold, e.scorer)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	out := make([]Relevant, len(hits))
	for i, h := range hits {
		out[i] = Relevant{ID: h.ID, Label: h.Label, Similarity: h.Similarity}
	}
	e.logger.Debug("relevant documents", "keywords", len(keywords), "hits", len(out))
	return out, nil
}

func (e *Engine) newTraceID() string {
	e.entropyMu.Lock()
	defer e.entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), e.entropy).String()
}

// LabelFromPath derives a document label from a file name: the base name
// without extension, shortened with "..." when longer than 80 characters.
func LabelFromPath(path string) string {
	base := filepath.Base(path)
	label := strings.TrimSuffix(base, filepath.Ext(base))
	runes := []rune(label)
	if len(runes) > maxLabelRunes {
		return string(runes[:maxLabelRunes-3]) + "..."
	}
	return label
}

// MaxKeywordsFor returns how many keywords to keep for a text: 15 for short
// texts, 65 for very long ones and 45 otherwise.
func MaxKeywordsFor(text string) int {
	n := len([]rune(text))
	switch {
	case n < 500:
		return 15
	case n > 50000:
		return 65
	default:
		return 45
	}
}
