package embed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/keyphrase/pkg/keyphrase/vector"
)

func TestHashingDeterministic(t *testing.T) {
	ctx := context.Background()
	h := NewHashing(0)
	require.Equal(t, DefaultHashingDim, h.Dim())

	a, err := h.Embed(ctx, []string{"программирование", "алгоритмы"})
	require.NoError(t, err)
	b, err := h.Embed(ctx, []string{"программирование", "алгоритмы"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 2)
	assert.InDelta(t, 1.0, vector.Norm(a[0]), 1e-5)
}

func TestHashingInflectionsAreClose(t *testing.T) {
	ctx := context.Background()
	h := NewHashing(512)
	vecs, err := h.Embed(ctx, []string{"алгоритм", "алгоритмы", "кошка"})
	require.NoError(t, err)

	related := vector.Cosine(vecs[0], vecs[1])
	unrelated := vector.Cosine(vecs[0], vecs[2])
	assert.Greater(t, related, unrelated)
	assert.Greater(t, related, 0.3)
}

func TestHashingEmptyTextIsZero(t *testing.T) {
	vecs, err := NewHashing(16).Embed(context.Background(), []string{"   "})
	require.NoError(t, err)
	assert.False(t, vector.Valid(vecs[0]))
}

func TestHashingHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashing(16).Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOne(t *testing.T) {
	v, err := One(context.Background(), NewHashing(8), "слово")
	require.NoError(t, err)
	assert.Len(t, v, 8)

	bad := ProviderFunc(func(ctx context.Context, batch []string) ([][]float32, error) {
		return nil, nil
	})
	_, err = One(context.Background(), bad, "x")
	assert.ErrorIs(t, err, ErrBatchMismatch)
}

func TestRetryingRecovers(t *testing.T) {
	var calls atomic.Int32
	flaky := ProviderFunc(func(ctx context.Context, batch []string) ([][]float32, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("transient")
		}
		return NewHashing(4).Embed(ctx, batch)
	})

	r := NewRetrying(flaky, 3, time.Millisecond)
	vecs, err := r.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryingGivesUp(t *testing.T) {
	failing := ProviderFunc(func(ctx context.Context, batch []string) ([][]float32, error) {
		return nil, errors.New("down")
	})
	_, err := NewRetrying(failing, 2, time.Millisecond).Embed(context.Background(), []string{"a"})
	assert.EqualError(t, err, "down")
}

func TestRetryWithBackoffValidation(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return errors.New("x") }, 3, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedEmbedsMissesOnce(t *testing.T) {
	var seen [][]string
	counting := ProviderFunc(func(ctx context.Context, batch []string) ([][]float32, error) {
		seen = append(seen, append([]string(nil), batch...))
		return NewHashing(8).Embed(ctx, batch)
	})

	c, err := NewCached(counting, 16)
	require.NoError(t, err)

	first, err := c.Embed(context.Background(), []string{"кот", "пёс"})
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), []string{"пёс", "кот", "ёж"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"кот", "пёс"}, {"ёж"}}, seen)
	assert.Equal(t, first[0], second[1])
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, 3, c.Len())
}

func TestCachedPropagatesErrors(t *testing.T) {
	failing := ProviderFunc(func(ctx context.Context, batch []string) ([][]float32, error) {
		return nil, errors.New("boom")
	})
	c, err := NewCached(failing, 4)
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestRateLimitedPassesThrough(t *testing.T) {
	r := NewRateLimited(NewHashing(4), 1000, 0)
	vecs, err := r.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
}

func TestRateLimitedHonorsDeadline(t *testing.T) {
	r := NewRateLimited(NewHashing(4), 0.001, 1)
	_, err := r.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.Embed(ctx, []string{"b"})
	assert.Error(t, err)
}
