// Package vector holds the small amount of dense-vector math keyword
// ranking and semantic similarity need.
package vector

import (
	"math"

	"github.com/hupe1980/vecgo/distance"
)

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	if len(v) == 0 {
		return 0
	}
	return math.Sqrt(float64(distance.Dot(v, v)))
}

// Valid reports whether v can take part in a cosine comparison.
func Valid(v []float32) bool {
	return Norm(v) > 0
}

// Cosine returns the cosine similarity of a and b, or 0 when the vectors
// differ in length or either has zero norm.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return float64(distance.Dot(a, b)) / (na * nb)
}

// MeanPool averages vectors element-wise. Vectors whose length differs from
// the first one are ignored. Returns nil for no input.
func MeanPool(vs [][]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	dim := len(vs[0])
	sum := make([]float64, dim)
	n := 0
	for _, v := range vs {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
		n++
	}
	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(n))
	}
	return out
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
