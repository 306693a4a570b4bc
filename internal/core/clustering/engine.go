// Package clustering groups chunk embeddings into topics with seeded
// k-means and merges the chunk texts of each topic.
package clustering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/vecmath"
)

const mergeSeparator = "\n\n"

type Config struct {
	Seed      uint64
	NInit     int
	MaxIter   int
	Tolerance float64
}

func DefaultConfig() Config {
	return Config{
		Seed:      42,
		NInit:     10,
		MaxIter:   300,
		Tolerance: 1e-4,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.NInit <= 0 {
		out.NInit = def.NInit
	}
	if out.MaxIter <= 0 {
		out.MaxIter = def.MaxIter
	}
	if out.Tolerance < 0 {
		out.Tolerance = def.Tolerance
	}
	return out
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.normalize()}
}

type Result struct {
	RequestedK int
	K          int
	Labels     []int
	Inertia    float64
	// Clusters holds only labels that received at least one chunk,
	// ordered by label.
	Clusters []domain.Cluster
}

func (e *Engine) Cluster(texts []string, vectors [][]float32, k int) (*Result, error) {
	if len(texts) == 0 {
		return nil, domain.WrapError(domain.ErrInsufficientData, "cluster chunks", errors.New("no chunks with embeddings"))
	}
	if len(texts) != len(vectors) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"cluster chunks",
			fmt.Errorf("texts/vectors mismatch: %d/%d", len(texts), len(vectors)),
		)
	}
	if k <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "cluster chunks", fmt.Errorf("cluster count must be positive, got %d", k))
	}

	points := make([][]float64, len(vectors))
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, domain.WrapError(
				domain.ErrInvalidInput,
				"cluster chunks",
				fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim),
			)
		}
		points[i] = vecmath.ToFloat64(v)
	}

	kActual := min(k, len(points))
	labels, inertia := kmeans(points, kActual, e.cfg)

	return &Result{
		RequestedK: k,
		K:          kActual,
		Labels:     labels,
		Inertia:    inertia,
		Clusters:   mergeByLabel(texts, labels, kActual),
	}, nil
}

func mergeByLabel(texts []string, labels []int, k int) []domain.Cluster {
	members := make([][]int, k)
	for i, label := range labels {
		members[label] = append(members[label], i)
	}

	out := make([]domain.Cluster, 0, k)
	for label, idx := range members {
		if len(idx) == 0 {
			continue
		}
		parts := make([]string, 0, len(idx))
		for _, i := range idx {
			parts = append(parts, texts[i])
		}
		out = append(out, domain.Cluster{
			ID:            label,
			MemberIndices: idx,
			MergedText:    strings.Join(parts, mergeSeparator),
		})
	}
	return out
}
