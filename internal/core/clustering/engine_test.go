package clustering

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

func TestClusterClampsRequestedK(t *testing.T) {
	texts := []string{"a", "b", "c", "d", "e"}
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}, {-1, 0}, {0, -1}}

	result, err := NewEngine(DefaultConfig()).Cluster(texts, vectors, 100)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if result.K != 5 || result.RequestedK != 100 {
		t.Fatalf("expected k_actual=5 requested=100, got %d/%d", result.K, result.RequestedK)
	}
	if len(result.Clusters) > 5 {
		t.Fatalf("expected at most 5 clusters, got %d", len(result.Clusters))
	}
}

func TestClusterCoversEveryChunkOnce(t *testing.T) {
	texts := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}
	vectors := [][]float32{{1, 0.1}, {0.9, 0}, {0, 1}, {0.1, 0.9}, {-1, 0}, {-0.9, -0.1}}

	result, err := NewEngine(DefaultConfig()).Cluster(texts, vectors, 3)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}

	var members []int
	for _, c := range result.Clusters {
		members = append(members, c.MemberIndices...)
		for _, idx := range c.MemberIndices {
			if result.Labels[idx] != c.ID {
				t.Fatalf("chunk %d label %d listed under cluster %d", idx, result.Labels[idx], c.ID)
			}
		}
	}
	sort.Ints(members)
	if !reflect.DeepEqual(members, []int{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("expected every chunk exactly once, got %v", members)
	}

	joined := ""
	for _, c := range result.Clusters {
		joined += c.MergedText + "\n\n"
	}
	for _, text := range texts {
		if strings.Count(joined, text) != 1 {
			t.Fatalf("text %q appears %d times in merged output", text, strings.Count(joined, text))
		}
	}
}

func TestClusterSeparatesObviousGroups(t *testing.T) {
	texts := []string{"cat", "dog", "stock", "bond"}
	vectors := [][]float32{{1, 0}, {0.95, 0.05}, {0, 1}, {0.05, 0.95}}

	result, err := NewEngine(DefaultConfig()).Cluster(texts, vectors, 2)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if result.Labels[0] != result.Labels[1] || result.Labels[2] != result.Labels[3] || result.Labels[0] == result.Labels[2] {
		t.Fatalf("unexpected labels: %v", result.Labels)
	}
	for _, c := range result.Clusters {
		if c.MergedText != "cat\n\ndog" && c.MergedText != "stock\n\nbond" {
			t.Fatalf("unexpected merged text %q", c.MergedText)
		}
	}
}

func TestClusterToleratesEmptyLabel(t *testing.T) {
	texts := []string{"one", "one again", "other"}
	vectors := [][]float32{{1, 0}, {1, 0}, {0, 1}}

	result, err := NewEngine(DefaultConfig()).Cluster(texts, vectors, 3)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if result.K != 3 {
		t.Fatalf("expected k_actual=3, got %d", result.K)
	}
	if len(result.Clusters) != 2 {
		t.Fatalf("expected 2 non-empty clusters, got %+v", result.Clusters)
	}
}

func TestClusterIsDeterministic(t *testing.T) {
	texts := []string{"a", "b", "c", "d", "e", "f", "g"}
	vectors := [][]float32{{1, 2}, {2, 1}, {5, 5}, {6, 5}, {9, 1}, {8, 0}, {3, 3}}

	engine := NewEngine(DefaultConfig())
	first, err := engine.Cluster(texts, vectors, 3)
	if err != nil {
		t.Fatalf("first Cluster() error = %v", err)
	}
	second, err := engine.Cluster(texts, vectors, 3)
	if err != nil {
		t.Fatalf("second Cluster() error = %v", err)
	}
	if !reflect.DeepEqual(first.Labels, second.Labels) || first.Inertia != second.Inertia {
		t.Fatalf("expected identical runs, got %v/%v", first.Labels, second.Labels)
	}
}

func TestClusterRejectsEmptyInput(t *testing.T) {
	_, err := NewEngine(DefaultConfig()).Cluster(nil, nil, 5)
	if !domain.IsKind(err, domain.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestClusterRejectsMismatchedDimensions(t *testing.T) {
	_, err := NewEngine(DefaultConfig()).Cluster([]string{"a", "b"}, [][]float32{{1, 0}, {1}}, 2)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
