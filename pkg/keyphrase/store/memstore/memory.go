package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/cognicore/keyphrase/pkg/keyphrase/similarity"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store"
)

// Store is an in-memory implementation of store.Store. Keyword lookups go
// through per-keyword posting bitmaps.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	docs     map[int64]store.Document
	postings map[string]*roaring64.Bitmap
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID:   1,
		docs:     make(map[int64]store.Document),
		postings: make(map[string]*roaring64.Bitmap),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Add inserts a document and returns its id.
func (s *Store) Add(ctx context.Context, keywords []string, label string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	doc := store.Document{ID: id, Keywords: keywords, Label: label}.Copy()
	if doc.Keywords == nil {
		doc.Keywords = []string{}
	}
	s.docs[id] = doc
	s.index(doc)
	return id, nil
}

func (s *Store) index(doc store.Document) {
	for _, k := range doc.Keywords {
		bm, ok := s.postings[k]
		if !ok {
			bm = roaring64.New()
			s.postings[k] = bm
		}
		bm.Add(uint64(doc.ID))
	}
}

func (s *Store) unindex(doc store.Document) {
	for _, k := range doc.Keywords {
		bm, ok := s.postings[k]
		if !ok {
			continue
		}
		bm.Remove(uint64(doc.ID))
		if bm.IsEmpty() {
			delete(s.postings, k)
		}
	}
}

// Get returns a document by ID.
func (s *Store) Get(ctx context.Context, id int64) (store.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, ok := s.docs[id]; ok {
		return doc.Copy(), true, nil
	}
	return store.Document{}, false, nil
}

// All returns every document in id order.
func (s *Store) All(ctx context.Context) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allLocked(), nil
}

func (s *Store) allLocked() []store.Document {
	out := make([]store.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.Copy())
	}
	store.SortByID(out)
	return out
}

// SearchByKeyword returns documents whose keyword list contains keyword.
func (s *Store) SearchByKeyword(ctx context.Context, keyword string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bm, ok := s.postings[keyword]
	if !ok {
		return nil, nil
	}
	out := make([]store.Document, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, s.docs[int64(it.Next())].Copy())
	}
	return out, nil
}

// SearchBySimilarity scores every document against query.
func (s *Store) SearchBySimilarity(ctx context.Context, query []string, threshold float64, scorer similarity.Scorer) ([]store.ScoredDocument, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return store.ScoreDocuments(ctx, docs, query, threshold, scorer), nil
}

// SearchByFuzzy returns documents sharing at least minMatches keywords with
// query. Only documents reachable from a query keyword's posting list are
// considered.
func (s *Store) SearchByFuzzy(ctx context.Context, query []string, minMatches int) ([]store.MatchedDocument, error) {
	if minMatches < 1 {
		minMatches = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uint64]int)
	seen := make(map[string]struct{}, len(query))
	for _, q := range query {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		bm, ok := s.postings[q]
		if !ok {
			continue
		}
		it := bm.Iterator()
		for it.HasNext() {
			counts[it.Next()]++
		}
	}

	var out []store.MatchedDocument
	for id, n := range counts {
		if n >= minMatches {
			out = append(out, store.MatchedDocument{Document: s.docs[int64(id)].Copy(), Matches: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Matches != out[j].Matches {
			return out[i].Matches > out[j].Matches
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SearchByLabel returns documents whose label equals label, or contains it
// when exact is false.
func (s *Store) SearchByLabel(ctx context.Context, label string, exact bool) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Document
	for _, doc := range s.allLocked() {
		if store.LabelMatches(doc.Label, label, exact) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Update changes the keywords and/or the label of a document.
func (s *Store) Update(ctx context.Context, id int64, keywords []string, label *string) (bool, error) {
	if keywords == nil && label == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false, nil
	}
	if keywords != nil {
		s.unindex(doc)
		doc.Keywords = append([]string{}, keywords...)
		s.index(doc)
	}
	if label != nil {
		doc.Label = *label
	}
	s.docs[id] = doc
	return true, nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false, nil
	}
	s.unindex(doc)
	delete(s.docs, id)
	return true, nil
}

// KeywordStats counts keyword occurrences across all documents.
func (s *Store) KeywordStats(ctx context.Context) ([]store.KeywordCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.CountKeywords(s.allLocked()), nil
}
