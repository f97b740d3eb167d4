package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// DefaultHashingDim is the vector size of the hashing provider.
const DefaultHashingDim = 384

// Hashing is an offline Provider that projects word and character-trigram
// features into a fixed number of buckets with signed feature hashing.
//
// It carries no semantics beyond surface overlap: words sharing a stem share
// most trigrams, so inflected forms land close together. Used when no model
// endpoint is configured.
type Hashing struct {
	dim int
}

// NewHashing creates a hashing provider with dim buckets
// (DefaultHashingDim when dim <= 0).
func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	return &Hashing{dim: dim}
}

// Dim returns the vector size.
func (h *Hashing) Dim() int { return h.dim }

// Embed implements Provider.
func (h *Hashing) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	out := make([][]float32, len(batch))
	for i, text := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	v := make([]float32, h.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h.add(v, "w:"+word, 1)
		runes := []rune("^" + word + "$")
		for i := 0; i+3 <= len(runes); i++ {
			h.add(v, string(runes[i:i+3]), 0.5)
		}
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

func (h *Hashing) add(v []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}
