// Package vecmath holds the float helpers shared by chunking, clustering
// and the in-memory vector store.
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ToFloat64 widens an embedding for gonum routines.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// CosineSimilarity returns 0 when either vector has zero norm or the
// dimensions differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}

func SquaredDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// Percentile matches numpy's default "linear" method: the rank is
// p/100*(n-1) and values between closest ranks are interpolated.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	floats.Argsort(sorted, make([]int, n))

	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
