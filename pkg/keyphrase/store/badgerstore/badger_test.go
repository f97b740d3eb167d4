package badgerstore

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/keyphrase/pkg/keyphrase/store"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store/storetest"
)

func TestBadgerContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		st, err := Open("", InMemory())
		require.NoError(t, err)
		return st
	})
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := Open(dir)
	require.NoError(t, err)
	id, err := st.Add(ctx, []string{"данные", "модель"}, "paper")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(dir)
	require.NoError(t, err)
	defer st.Close()

	doc, ok, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"данные", "модель"}, doc.Keywords)
	assert.Equal(t, "paper", doc.Label)

	next, err := st.Add(ctx, []string{"x"}, "next")
	require.NoError(t, err)
	assert.Greater(t, next, id)
}

func TestBadgerSkipsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	st, err := Open("", InMemory())
	require.NoError(t, err)
	defer st.Close()

	good, err := st.Add(ctx, []string{"a"}, "good")
	require.NoError(t, err)
	require.NoError(t, st.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(good+1), []byte("{broken"))
	}))

	docs, err := st.All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, good, docs[0].ID)

	_, _, err = st.Get(ctx, good+1)
	assert.Error(t, err)
}

func TestDocKeyOrdering(t *testing.T) {
	assert.Less(t, string(docKey(9)), string(docKey(10)))
	id, err := parseDocKey(docKey(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}
