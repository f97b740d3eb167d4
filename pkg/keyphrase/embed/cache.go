package embed

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes vectors across calls in a bounded LRU.
type Cached struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

// NewCached wraps inner with an LRU of the given number of entries.
func NewCached(inner Provider, size int) (*Cached, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Embed implements Provider. Only texts missing from the cache reach the
// wrapped provider, in a single batch.
func (c *Cached) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	out := make([][]float32, len(batch))
	var missing []string
	var missingIdx []int
	for i, text := range batch {
		if v, ok := c.cache.Get(text); ok {
			out[i] = slices.Clone(v)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if err := checkBatch(missing, vecs); err != nil {
		return nil, err
	}
	for j, v := range vecs {
		c.cache.Add(missing[j], slices.Clone(v))
		out[missingIdx[j]] = v
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (c *Cached) Len() int {
	return c.cache.Len()
}
