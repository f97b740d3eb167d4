package store

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/cognicore/keyphrase/pkg/keyphrase/similarity"
)

// Store persists keyword sets with labels and searches them.
// Implementations are safe for concurrent use and apply each mutation
// atomically. A missing document is reported as false, not as an error.
type Store interface {
	Close() error

	Add(ctx context.Context, keywords []string, label string) (int64, error)
	Get(ctx context.Context, id int64) (Document, bool, error)
	All(ctx context.Context) ([]Document, error)

	SearchByKeyword(ctx context.Context, keyword string) ([]Document, error)
	SearchBySimilarity(ctx context.Context, query []string, threshold float64, scorer similarity.Scorer) ([]ScoredDocument, error)
	SearchByFuzzy(ctx context.Context, query []string, minMatches int) ([]MatchedDocument, error)
	SearchByLabel(ctx context.Context, label string, exact bool) ([]Document, error)

	// Update replaces the keywords when keywords is non-nil and the label when
	// label is non-nil. It returns false when the id is absent or there is
	// nothing to change.
	Update(ctx context.Context, id int64, keywords []string, label *string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	KeywordStats(ctx context.Context) ([]KeywordCount, error)
}

// Document is a stored keyword set. Keywords keep insertion order and may
// contain duplicates.
type Document struct {
	ID       int64
	Keywords []string
	Label    string
}

// ScoredDocument is a similarity search hit.
type ScoredDocument struct {
	Document
	Similarity float64
}

// MatchedDocument is a fuzzy search hit.
type MatchedDocument struct {
	Document
	Matches int
}

// KeywordCount is the number of times a keyword occurs across all documents.
type KeywordCount struct {
	Keyword string
	Count   int
}

// Copy returns a document that shares no memory with d.
func (d Document) Copy() Document {
	d.Keywords = append([]string(nil), d.Keywords...)
	return d
}

// SortByID orders documents by ascending id.
func SortByID(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

// ScoreDocuments scores every document against query and keeps those at or
// above threshold, best first. Similarities are rounded to three decimals.
// A nil scorer means plain Jaccard. docs must be in id order.
func ScoreDocuments(ctx context.Context, docs []Document, query []string, threshold float64, scorer similarity.Scorer) []ScoredDocument {
	if scorer == nil {
		scorer = similarity.Classical{}
	}

	var out []ScoredDocument
	for _, d := range docs {
		score := scorer.Score(ctx, query, d.Keywords)
		if score >= threshold {
			out = append(out, ScoredDocument{Document: d, Similarity: Round(score, 3)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

// MatchDocuments counts how many distinct query keywords each document holds
// and keeps those with at least minMatches, most matches first. docs must be
// in id order.
func MatchDocuments(docs []Document, query []string, minMatches int) []MatchedDocument {
	if minMatches < 1 {
		minMatches = 1
	}
	want := make(map[string]struct{}, len(query))
	for _, q := range query {
		want[q] = struct{}{}
	}

	var out []MatchedDocument
	for _, d := range docs {
		if n := CountMatches(d.Keywords, want); n >= minMatches {
			out = append(out, MatchedDocument{Document: d, Matches: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Matches > out[j].Matches
	})
	return out
}

// CountMatches returns the number of distinct keywords that are in want.
func CountMatches(keywords []string, want map[string]struct{}) int {
	seen := make(map[string]struct{}, len(keywords))
	n := 0
	for _, k := range keywords {
		if _, ok := want[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		n++
	}
	return n
}

// LabelMatches reports whether label equals pattern, or contains it when
// exact is false. Matching is case-sensitive.
func LabelMatches(label, pattern string, exact bool) bool {
	if exact {
		return label == pattern
	}
	return strings.Contains(label, pattern)
}

// HasKeyword reports whether keywords contains keyword.
func HasKeyword(keywords []string, keyword string) bool {
	for _, k := range keywords {
		if k == keyword {
			return true
		}
	}
	return false
}

// CountKeywords tallies keyword occurrences across docs, most frequent
// first. Ties are ordered by keyword.
func CountKeywords(docs []Document) []KeywordCount {
	counts := make(map[string]int)
	for _, d := range docs {
		for _, k := range d.Keywords {
			counts[k]++
		}
	}
	out := make([]KeywordCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KeywordCount{Keyword: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
