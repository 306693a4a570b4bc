package neo4j

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFlattenOutlineLinksParents(t *testing.T) {
	md := "# root\n## Cells\n### Mitosis\nbody text\n### Meiosis\n## Energy\n###\n"
	nodes := FlattenOutline(md)
	if len(nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %+v", nodes)
	}
	wantParents := []int{-1, 0, 1, 1, 0}
	for i, want := range wantParents {
		if nodes[i].ParentPosition != want {
			t.Fatalf("node %d (%s) parent = %d, want %d", i, nodes[i].Title, nodes[i].ParentPosition, want)
		}
	}
	if nodes[2].Title != "Mitosis" || nodes[2].Level != 3 {
		t.Fatalf("unexpected node: %+v", nodes[2])
	}
}

func TestSaveOutlineRunsMindmapThenHeadings(t *testing.T) {
	var cyphers []string
	var headings []map[string]any
	s := &Store{run: func(_ context.Context, cypher string, params map[string]any) error {
		cyphers = append(cyphers, cypher)
		if h, ok := params["headings"].([]map[string]any); ok {
			headings = h
		}
		return nil
	}}

	if err := s.SaveOutline(context.Background(), "alice", []string{"d1"}, "# root\n## A\n"); err != nil {
		t.Fatalf("SaveOutline() error = %v", err)
	}
	if len(cyphers) != 2 || !strings.Contains(cyphers[0], "Mindmap") || !strings.Contains(cyphers[1], "Heading") {
		t.Fatalf("unexpected cypher sequence: %v", cyphers)
	}
	if len(headings) != 2 || headings[0]["parent_id"] != nil || headings[1]["parent_id"] != headings[0]["id"] {
		t.Fatalf("unexpected heading params: %+v", headings)
	}
}

func TestSaveOutlineStopsOnFirstFailure(t *testing.T) {
	calls := 0
	s := &Store{run: func(context.Context, string, map[string]any) error {
		calls++
		return errors.New("unavailable")
	}}
	if err := s.SaveOutline(context.Background(), "alice", nil, "# root"); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}
