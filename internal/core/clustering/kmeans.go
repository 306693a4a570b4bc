package clustering

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/Htaaxx/NotebookLLM/internal/core/vecmath"
)

// kmeans runs NInit seeded k-means++ / Lloyd rounds and keeps the labels
// of the lowest-inertia round. Ties keep the earliest round.
func kmeans(points [][]float64, k int, cfg Config) ([]int, float64) {
	tol := cfg.Tolerance * meanVariance(points)

	var bestLabels []int
	bestInertia := math.Inf(1)
	for run := 0; run < cfg.NInit; run++ {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(run)))
		centers := seedCenters(points, k, rng)
		labels, inertia := lloyd(points, centers, cfg.MaxIter, tol)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}
	return bestLabels, bestInertia
}

// seedCenters is k-means++: each next center is drawn with probability
// proportional to its squared distance from the nearest chosen center.
// When every point already coincides with a center the draw is uniform,
// which duplicates a center and leaves its cluster empty.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.IntN(n)]))

	nearest := make([]float64, n)
	for i, p := range points {
		nearest[i] = vecmath.SquaredDistance(p, centers[0])
	}

	for len(centers) < k {
		next := pickWeighted(nearest, rng)
		centers = append(centers, clone(points[next]))
		for i, p := range points {
			if d := vecmath.SquaredDistance(p, centers[len(centers)-1]); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
	return centers
}

func pickWeighted(weights []float64, rng *rand.Rand) int {
	total := floats.Sum(weights)
	if total <= 0 {
		return rng.IntN(len(weights))
	}
	target := rng.Float64() * total
	cumulative := 0.0
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if cumulative > target {
			return i
		}
	}
	return last
}

func lloyd(points [][]float64, centers [][]float64, maxIter int, tol float64) ([]int, float64) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		if !assign(points, centers, labels) {
			break
		}
		if shift := recenter(points, centers, labels); shift <= tol {
			break
		}
	}
	assign(points, centers, labels)

	inertia := 0.0
	for i, p := range points {
		inertia += vecmath.SquaredDistance(p, centers[labels[i]])
	}
	return labels, inertia
}

// assign moves every point to its nearest center; ties go to the lower
// center index. It reports whether any label changed.
func assign(points [][]float64, centers [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best := 0
		bestDist := vecmath.SquaredDistance(p, centers[0])
		for c := 1; c < len(centers); c++ {
			if d := vecmath.SquaredDistance(p, centers[c]); d < bestDist {
				best = c
				bestDist = d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// recenter moves centers to the mean of their members and returns the
// total squared shift. Empty clusters keep their previous center.
func recenter(points [][]float64, centers [][]float64, labels []int) float64 {
	dim := len(points[0])
	sums := make([][]float64, len(centers))
	counts := make([]int, len(centers))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	shift := 0.0
	for c := range centers {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		shift += vecmath.SquaredDistance(centers[c], sums[c])
		centers[c] = sums[c]
	}
	return shift
}

func meanVariance(points [][]float64) float64 {
	dim := len(points[0])
	n := float64(len(points))
	total := 0.0
	for d := 0; d < dim; d++ {
		mean := 0.0
		for _, p := range points {
			mean += p[d]
		}
		mean /= n
		for _, p := range points {
			diff := p[d] - mean
			total += diff * diff
		}
	}
	return total / n / float64(dim)
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
