// Package similarity scores the overlap of two keyword sets.
//
// Classical scoring is plain Jaccard. Semantic scoring generalizes Jaccard to
// fractional membership: each word counts as present in the other set to the
// degree of its best embedding match there.
package similarity

import (
	"context"
	"log/slog"

	"github.com/cognicore/keyphrase/pkg/keyphrase/embed"
	"github.com/cognicore/keyphrase/pkg/keyphrase/vector"
)

// Semantic scoring defaults.
const (
	DefaultShortCircuit = 0.4
	DefaultFloor        = 0.25
	DefaultWeight       = 0.8
)

// Scorer scores two keyword sets in [0, 1].
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(ctx context.Context, a, b []string) float64
}

// Jaccard returns |A∩B| / |A∪B| over the distinct elements of a and b.
// It is 0 when either set is empty.
func Jaccard(a, b []string) float64 {
	aSet := toSet(a)
	bSet := toSet(b)
	if len(aSet) == 0 || len(bSet) == 0 {
		return 0
	}

	intersection := 0
	for s := range aSet {
		if _, ok := bSet[s]; ok {
			intersection++
		}
	}

	union := len(aSet) + len(bSet) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Classical scores by exact-match Jaccard only.
type Classical struct{}

// Score implements Scorer.
func (Classical) Score(_ context.Context, a, b []string) float64 {
	return Jaccard(a, b)
}

// Semantic combines exact overlap with embedding-based soft matching.
type Semantic struct {
	provider     embed.Provider
	shortCircuit float64
	floor        float64
	weight       float64
	logger       *slog.Logger
}

// Option configures a Semantic scorer.
type Option func(*Semantic)

// WithShortCircuit sets the classical score above which embeddings are
// skipped and the classical score is returned as is.
func WithShortCircuit(v float64) Option {
	return func(s *Semantic) { s.shortCircuit = v }
}

// WithFloor sets the best-match similarity below which a match counts as 0.
func WithFloor(v float64) Option {
	return func(s *Semantic) { s.floor = v }
}

// WithWeight sets the weight of the soft Jaccard added to the classical score.
func WithWeight(v float64) Option {
	return func(s *Semantic) { s.weight = v }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Semantic) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSemantic creates a semantic scorer over the given provider.
func NewSemantic(provider embed.Provider, opts ...Option) *Semantic {
	s := &Semantic{
		provider:     provider,
		shortCircuit: DefaultShortCircuit,
		floor:        DefaultFloor,
		weight:       DefaultWeight,
		logger:       slog.Default().With("component", "similarity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New returns the semantic scorer when a provider is available and the
// classical scorer otherwise.
func New(provider embed.Provider, opts ...Option) Scorer {
	if provider == nil {
		return Classical{}
	}
	return NewSemantic(provider, opts...)
}

// Score implements Scorer. Any provider failure yields the classical score.
func (s *Semantic) Score(ctx context.Context, a, b []string) float64 {
	classical := Jaccard(a, b)
	if classical > s.shortCircuit {
		return classical
	}

	aWords := distinct(a)
	bWords := distinct(b)
	if len(aWords) == 0 || len(bWords) == 0 {
		return classical
	}

	vecs, ok := s.embedAll(ctx, aWords, bWords)
	if !ok {
		return classical
	}

	aVecs := validVectors(aWords, vecs)
	bVecs := validVectors(bWords, vecs)

	// Too little coverage to trust the embeddings.
	covered := 0
	for _, v := range vecs {
		if vector.Valid(v) {
			covered++
		}
	}
	if float64(covered) < float64(max(len(aWords), len(bWords)))/2 || len(aVecs) == 0 || len(bVecs) == 0 {
		return classical
	}

	aBest := make([]float64, len(aVecs))
	bBest := make([]float64, len(bVecs))
	for i, av := range aVecs {
		for j, bv := range bVecs {
			sim := vector.Cosine(av, bv)
			if sim < s.floor {
				sim = 0
			}
			if sim > aBest[i] {
				aBest[i] = sim
			}
			if sim > bBest[j] {
				bBest[j] = sim
			}
		}
	}

	softIntersection := (sum(aBest) + sum(bBest)) / 2
	softUnion := float64(len(aVecs)+len(bVecs)) - softIntersection
	semantic := 0.0
	if softUnion > 0 {
		semantic = softIntersection / softUnion
	}

	return vector.Clamp(classical+s.weight*semantic, 0, 1)
}

// embedAll embeds the distinct union of both word lists in one batch.
func (s *Semantic) embedAll(ctx context.Context, a, b []string) (map[string][]float32, bool) {
	union := distinct(append(append([]string(nil), a...), b...))
	vecs, err := s.provider.Embed(ctx, union)
	if err != nil {
		s.logger.Warn("embedding failed, using exact-match score", "words", len(union), "err", err)
		return nil, false
	}
	if len(vecs) != len(union) {
		s.logger.Warn("embedding count mismatch, using exact-match score", "want", len(union), "got", len(vecs))
		return nil, false
	}
	out := make(map[string][]float32, len(union))
	for i, w := range union {
		out[w] = vecs[i]
	}
	return out, true
}

func validVectors(words []string, vecs map[string][]float32) [][]float32 {
	out := make([][]float32, 0, len(words))
	for _, w := range words {
		if v := vecs[w]; vector.Valid(v) {
			out = append(out, v)
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

// distinct returns items without duplicates, keeping first-seen order.
func distinct(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}
