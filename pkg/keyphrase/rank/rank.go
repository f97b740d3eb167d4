package rank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/keyphrase/pkg/keyphrase/embed"
	"github.com/cognicore/keyphrase/pkg/keyphrase/ingest"
	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
	"github.com/cognicore/keyphrase/pkg/keyphrase/vector"
)

// DefaultMaxCandidates caps how many candidates are embedded per document.
const DefaultMaxCandidates = 100

// ScoredKeyword is a keyword with its similarity to the document.
type ScoredKeyword struct {
	Text  string
	Score float64
}

// Ranker scores keyword candidates by embedding similarity to the document
// they came from.
type Ranker struct {
	pipeline      *ingest.Pipeline
	provider      embed.Provider
	chunker       ingest.Chunker
	maxCandidates int
	pool          *ants.Pool
	poolSize      int
	logger        *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithChunker replaces the default chunker.
func WithChunker(c ingest.Chunker) Option {
	return func(r *Ranker) { r.chunker = c }
}

// WithMaxCandidates caps how many candidates are embedded.
func WithMaxCandidates(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.maxCandidates = n
		}
	}
}

// WithPoolSize sets the number of concurrent embedding calls.
func WithPoolSize(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.poolSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a ranker. Call Release when done.
func New(pipeline *ingest.Pipeline, provider embed.Provider, opts ...Option) (*Ranker, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("rank: pipeline required: %w", internalerr.ErrInvalidInput)
	}
	if provider == nil {
		return nil, fmt.Errorf("rank: embedding provider required: %w", internalerr.ErrResourceUnavailable)
	}

	r := &Ranker{
		pipeline:      pipeline,
		provider:      provider,
		chunker:       ingest.DefaultChunker(),
		maxCandidates: DefaultMaxCandidates,
		poolSize:      4,
		logger:        slog.Default().With("component", "ranker"),
	}
	for _, opt := range opts {
		opt(r)
	}

	pool, err := ants.NewPool(r.poolSize)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	return r, nil
}

// Release frees the worker pool.
func (r *Ranker) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Extract returns up to maxKeywords keywords of text whose similarity to the
// whole document is strictly above threshold, best first.
//
// Failed embeddings are skipped. When nothing could be embedded the result is
// empty and the error wraps internalerr.ErrNoKeywords.
func (r *Ranker) Extract(ctx context.Context, text string, useBigrams bool, threshold float64, maxKeywords int) ([]ScoredKeyword, error) {
	processed := r.pipeline.Process(text, useBigrams)
	logger := r.logger.With("words", ingest.WordCount(text), "candidates", len(processed.Candidates))
	if len(processed.Candidates) == 0 {
		logger.Debug("no candidates")
		return nil, fmt.Errorf("no candidates: %w", internalerr.ErrNoKeywords)
	}

	docVec := r.documentVector(ctx, text)
	if docVec == nil {
		logger.Warn("document embedding failed")
		return nil, fmt.Errorf("document embedding failed: %w", internalerr.ErrNoKeywords)
	}

	candidates := processed.Candidates
	if len(candidates) > r.maxCandidates {
		candidates = candidates[:r.maxCandidates]
	}
	vecs := r.embedCandidates(ctx, candidates)

	var texts []string
	var scores []float64
	for i, v := range vecs {
		if v == nil {
			continue
		}
		texts = append(texts, candidates[i])
		scores = append(scores, vector.Cosine(docVec, v))
	}
	if len(texts) == 0 {
		logger.Warn("candidate embeddings failed")
		return nil, fmt.Errorf("candidate embeddings failed: %w", internalerr.ErrNoKeywords)
	}

	result := FilterAndRank(texts, scores, threshold, maxKeywords)
	logger.Debug("ranked keywords", "embedded", len(texts), "kept", len(result))
	return result, nil
}

// documentVector embeds the text directly when it fits in one chunk, and
// otherwise mean-pools the vectors of its chunks. Returns nil when no chunk
// could be embedded.
func (r *Ranker) documentVector(ctx context.Context, text string) []float32 {
	chunks := r.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil
	}

	vecs := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.poolSize)
	for i, chunk := range chunks {
		g.Go(func() error {
			v, err := embed.One(gctx, r.provider, chunk)
			if err != nil {
				r.logger.Warn("chunk embedding failed, skipping", "chunk", i, "err", err)
				return nil
			}
			vecs[i] = v
			return nil
		})
	}
	_ = g.Wait()

	var ok [][]float32
	for _, v := range vecs {
		if v != nil {
			ok = append(ok, v)
		}
	}
	if len(ok) == 0 {
		return nil
	}
	if len(ok) == 1 {
		return ok[0]
	}
	return vector.MeanPool(ok)
}

// embedCandidates embeds each candidate on the worker pool. Entries for
// failed or skipped candidates are nil. Once ctx is done no further work is
// submitted.
func (r *Ranker) embedCandidates(ctx context.Context, candidates []string) [][]float32 {
	vecs := make([][]float32, len(candidates))
	var wg sync.WaitGroup
	for i, c := range candidates {
		if ctx.Err() != nil {
			r.logger.Debug("extraction cancelled", "submitted", i, "total", len(candidates))
			break
		}
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			v, err := embed.One(ctx, r.provider, c)
			if err != nil {
				r.logger.Debug("candidate embedding failed, skipping", "candidate", c, "err", err)
				return
			}
			vecs[i] = v
		})
		if err != nil {
			wg.Done()
			r.logger.Warn("embedding pool rejected task", "err", err)
		}
	}
	wg.Wait()
	return vecs
}

// FilterAndRank orders candidates by score, keeps those scoring strictly
// above threshold, drops repeats and stops at maxKeywords. Ties keep input
// order.
func FilterAndRank(candidates []string, scores []float64, threshold float64, maxKeywords int) []ScoredKeyword {
	n := min(len(candidates), len(scores))
	ranked := make([]ScoredKeyword, n)
	for i := 0; i < n; i++ {
		ranked[i] = ScoredKeyword{Text: candidates[i], Score: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	var out []ScoredKeyword
	seen := make(map[string]struct{}, n)
	for _, kw := range ranked {
		if len(out) >= maxKeywords {
			break
		}
		if kw.Score <= threshold {
			continue
		}
		if _, dup := seen[kw.Text]; dup {
			continue
		}
		seen[kw.Text] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// Texts returns the keyword strings of scored keywords.
func Texts(keywords []ScoredKeyword) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = kw.Text
	}
	return out
}
