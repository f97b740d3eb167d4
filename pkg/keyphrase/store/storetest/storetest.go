// Package storetest holds behavior tests shared by every store.Store
// backend.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/keyphrase/pkg/keyphrase/store"
)

// Factory opens an empty store. The store is closed by the suite.
type Factory func(t *testing.T) store.Store

// Run exercises a backend against the store.Store contract.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"AddGet", testAddGet},
		{"All", testAll},
		{"SearchByKeyword", testSearchByKeyword},
		{"SearchBySimilarity", testSearchBySimilarity},
		{"SearchByFuzzy", testSearchByFuzzy},
		{"SearchByLabel", testSearchByLabel},
		{"Update", testUpdate},
		{"Delete", testDelete},
		{"KeywordStats", testKeywordStats},
		{"ConcurrentAdd", testConcurrentAdd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := open(t)
			t.Cleanup(func() { st.Close() })
			tt.fn(t, st)
		})
	}
}

func add(t *testing.T, st store.Store, label string, keywords ...string) int64 {
	t.Helper()
	id, err := st.Add(context.Background(), keywords, label)
	require.NoError(t, err)
	return id
}

func testAddGet(t *testing.T, st store.Store) {
	ctx := context.Background()
	id1 := add(t, st, "first", "кот", "сеть", "кот")
	id2 := add(t, st, "second", "данные")
	assert.Greater(t, id1, int64(0))
	assert.Greater(t, id2, id1)

	doc, ok, err := st.Get(ctx, id1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id1, doc.ID)
	assert.Equal(t, []string{"кот", "сеть", "кот"}, doc.Keywords)
	assert.Equal(t, "first", doc.Label)

	_, ok, err = st.Get(ctx, id2+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testAll(t *testing.T, st store.Store) {
	docs, err := st.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)

	id1 := add(t, st, "a", "x")
	id2 := add(t, st, "b", "y")
	id3 := add(t, st, "c", "z")

	docs, err = st.All(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []int64{id1, id2, id3}, []int64{docs[0].ID, docs[1].ID, docs[2].ID})
}

func testSearchByKeyword(t *testing.T, st store.Store) {
	id1 := add(t, st, "one", "python", "алгоритмы")
	add(t, st, "two", "java")
	id3 := add(t, st, "three", "алгоритмы", "данные")

	docs, err := st.SearchByKeyword(context.Background(), "алгоритмы")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, id1, docs[0].ID)
	assert.Equal(t, id3, docs[1].ID)

	docs, err = st.SearchByKeyword(context.Background(), "алгоритм")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testSearchBySimilarity(t *testing.T, st store.Store) {
	id1 := add(t, st, "first", "a", "b", "c")
	id2 := add(t, st, "second", "b", "c", "d")
	add(t, st, "third", "x", "y")

	hits, err := st.SearchBySimilarity(context.Background(), []string{"b", "c"}, 0.3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, id1, hits[0].ID)
	assert.Equal(t, 0.667, hits[0].Similarity)
	assert.Equal(t, id2, hits[1].ID)
	assert.Equal(t, 0.667, hits[1].Similarity)

	hits, err = st.SearchBySimilarity(context.Background(), []string{"a", "b", "c", "d"}, 0.3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0.75, hits[0].Similarity)
	assert.Equal(t, id1, hits[0].ID)

	hits, err = st.SearchBySimilarity(context.Background(), []string{"a", "b", "c"}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1, "threshold is inclusive")
	assert.Equal(t, 1.0, hits[0].Similarity)
}

func testSearchByFuzzy(t *testing.T, st store.Store) {
	id1 := add(t, st, "one", "a", "b")
	id2 := add(t, st, "two", "a", "b", "c", "a")
	add(t, st, "three", "x")

	hits, err := st.SearchByFuzzy(context.Background(), []string{"a", "b", "c", "c"}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, id2, hits[0].ID)
	assert.Equal(t, 3, hits[0].Matches)
	assert.Equal(t, id1, hits[1].ID)
	assert.Equal(t, 2, hits[1].Matches)

	hits, err = st.SearchByFuzzy(context.Background(), []string{"c"}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id2, hits[0].ID)
}

func testSearchByLabel(t *testing.T, st store.Store) {
	id1 := add(t, st, "report.pdf", "a")
	id2 := add(t, st, "Annual report", "b")
	add(t, st, "notes", "c")

	docs, err := st.SearchByLabel(context.Background(), "report", false)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, id1, docs[0].ID)
	assert.Equal(t, id2, docs[1].ID)

	docs, err = st.SearchByLabel(context.Background(), "Report", false)
	require.NoError(t, err)
	assert.Empty(t, docs, "label search is case-sensitive")

	docs, err = st.SearchByLabel(context.Background(), "notes", true)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	docs, err = st.SearchByLabel(context.Background(), "note", true)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func testUpdate(t *testing.T, st store.Store) {
	ctx := context.Background()
	id := add(t, st, "label", "a", "b")

	ok, err := st.Update(ctx, id, []string{"x"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	doc, _, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, doc.Keywords)
	assert.Equal(t, "label", doc.Label)

	newLabel := "renamed"
	ok, err = st.Update(ctx, id, nil, &newLabel)
	require.NoError(t, err)
	assert.True(t, ok)
	doc, _, err = st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, doc.Keywords)
	assert.Equal(t, "renamed", doc.Label)

	docs, err := st.SearchByKeyword(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, docs, "old keywords should no longer match")

	ok, err = st.Update(ctx, id, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok, "nothing to change")

	ok, err = st.Update(ctx, id+100, []string{"y"}, nil)
	require.NoError(t, err)
	assert.False(t, ok, "missing id")
}

func testDelete(t *testing.T, st store.Store) {
	ctx := context.Background()
	id := add(t, st, "doomed", "a")
	keep := add(t, st, "kept", "a")

	ok, err := st.Delete(ctx, id+100)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = st.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = st.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	docs, err := st.SearchByKeyword(ctx, "a")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, keep, docs[0].ID)
}

func testKeywordStats(t *testing.T, st store.Store) {
	add(t, st, "one", "b", "a")
	add(t, st, "two", "a", "c", "b")
	add(t, st, "three", "a")

	stats, err := st.KeywordStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []store.KeywordCount{
		{Keyword: "a", Count: 3},
		{Keyword: "b", Count: 2},
		{Keyword: "c", Count: 1},
	}, stats)
}

func testConcurrentAdd(t *testing.T, st store.Store) {
	const n = 20
	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i], errs[i] = st.Add(context.Background(), []string{"k"}, "concurrent")
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i := range ids {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "duplicate id %d", ids[i])
		seen[ids[i]] = true
	}
	docs, err := st.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, n)
}
