package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Htaaxx/NotebookLLM/internal/config"
	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

type embedderStub struct{}

func (embedderStub) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{1, float32(len(text) % 7)}
	}
	return out, nil
}

func (embedderStub) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 1}, nil
}

type generatorStub struct {
	reply string
}

func (g generatorStub) Generate(context.Context, []domain.ChatMessage) (string, error) {
	return g.reply, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_STRATEGY", "recursive")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNotebookIndexesAndAnswers(t *testing.T) {
	nb, err := newNotebook(testConfig(t), embedderStub{}, generatorStub{reply: "Mitochondria make ATP [4].\n\nREFERENCES:\n[4] notes"})
	if err != nil {
		t.Fatalf("newNotebook() error = %v", err)
	}
	defer nb.Close()

	path := writeFile(t, "notes.txt", "Mitochondria produce ATP for the cell.")
	ids, err := nb.addFiles(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("addFiles() error = %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected one document id, got %v", ids)
	}

	doc, err := nb.repo.GetByID(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusReady || doc.ChunkCount != 1 {
		t.Fatalf("expected ready document with one chunk, got %+v", doc)
	}

	answer, err := nb.query.Answer(context.Background(), domain.Question{UserID: localUser, Question: "What makes ATP?", DocumentIDs: ids})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Retrieved != 1 {
		t.Fatalf("expected one retrieved chunk, got %d", answer.Retrieved)
	}
	// [4] is not among the retrieved sources so it stays unresolved.
	if len(answer.Citations) != 0 || len(answer.Unresolved) != 1 || answer.Unresolved[0] != 4 {
		t.Fatalf("unexpected citations: %+v unresolved=%v", answer.Citations, answer.Unresolved)
	}
}

func TestNotebookResolvesCitationToFile(t *testing.T) {
	nb, err := newNotebook(testConfig(t), embedderStub{}, generatorStub{reply: "Cells need ATP [1].\nREFERENCES:\n[1] notes"})
	if err != nil {
		t.Fatalf("newNotebook() error = %v", err)
	}
	defer nb.Close()

	ids, err := nb.addFiles(context.Background(), []string{writeFile(t, "bio.md", "ATP is the energy currency.")})
	if err != nil {
		t.Fatalf("addFiles() error = %v", err)
	}
	answer, err := nb.query.Answer(context.Background(), domain.Question{UserID: localUser, Question: "ATP?", DocumentIDs: ids})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	c, ok := answer.Citations["1"]
	if !ok || c.Filename != "bio.md" || c.PageNumber != 1 {
		t.Fatalf("expected citation 1 to point at bio.md page 1, got %+v", answer.Citations)
	}
	if answer.Text != "Cells need ATP [1]." {
		t.Fatalf("unexpected answer text %q", answer.Text)
	}
}

func TestNotebookMissingFile(t *testing.T) {
	nb, err := newNotebook(testConfig(t), embedderStub{}, generatorStub{})
	if err != nil {
		t.Fatalf("newNotebook() error = %v", err)
	}
	defer nb.Close()

	if _, err := nb.addFiles(context.Background(), []string{filepath.Join(t.TempDir(), "absent.txt")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRenderAnswerOrdersSources(t *testing.T) {
	out := renderAnswer(&domain.Answer{
		Text: "A [1] B [10] C [2]",
		Citations: map[string]domain.CitationDetail{
			"10": {Filename: "c.pdf", PageNumber: 3},
			"2":  {Filename: "b.pdf", PageNumber: 2},
			"1":  {Filename: "a.pdf", PageNumber: 1},
		},
	})
	first := strings.Index(out, "[1] a.pdf, page 1")
	second := strings.Index(out, "[2] b.pdf, page 2")
	tenth := strings.Index(out, "[10] c.pdf, page 3")
	if first < 0 || second < 0 || tenth < 0 || !(first < second && second < tenth) {
		t.Fatalf("sources not in numeric order:\n%s", out)
	}
}
