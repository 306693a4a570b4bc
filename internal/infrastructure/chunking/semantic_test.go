package chunking

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type keywordEmbedderFake struct {
	batches []int
	err     error
}

func (f *keywordEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, len(texts))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{
			float32(strings.Count(text, "Cats")),
			float32(strings.Count(text, "Stocks")),
			float32(strings.Count(text, "Rain")),
		}
	}
	return out, nil
}

func (f *keywordEmbedderFake) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type splitSegmenterFake struct{}

func (splitSegmenterFake) Segment(text string) []string {
	out := []string{}
	for _, part := range strings.SplitAfter(text, ".") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func TestSemanticChunkerCutsAtTopicShift(t *testing.T) {
	chunker := NewSemanticChunker(splitSegmenterFake{}, &keywordEmbedderFake{}, SemanticOptions{BufferSize: 0})

	chunks, err := chunker.Split(context.Background(), "Cats purr. Cats nap. Stocks fell. Stocks rose.")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	want := []string{"Cats purr. Cats nap.", "Stocks fell. Stocks rose."}
	if !reflect.DeepEqual(chunks, want) {
		t.Fatalf("chunks = %q, want %q", chunks, want)
	}
}

func TestSemanticChunkerCoversAllSentences(t *testing.T) {
	sentences := []string{
		"Cats purr.", "Cats nap.", "Stocks fell.", "Rain came.", "Rain stopped.",
		"Cats woke.", "Stocks rose.", "Stocks dipped.", "Rain again.", "Cats slept.",
	}
	for _, buffer := range []int{0, 1, 3, 10} {
		chunker := NewSemanticChunker(splitSegmenterFake{}, &keywordEmbedderFake{}, SemanticOptions{BufferSize: buffer})
		chunks, err := chunker.Chunk(context.Background(), sentences)
		if err != nil {
			t.Fatalf("Chunk() error = %v", err)
		}
		if got, want := strings.Join(chunks, " "), strings.Join(sentences, " "); got != want {
			t.Fatalf("buffer=%d coverage mismatch:\n got %q\nwant %q", buffer, got, want)
		}
	}
}

func TestSemanticChunkerSingleSentenceSkipsEmbedding(t *testing.T) {
	embedder := &keywordEmbedderFake{}
	chunker := NewSemanticChunker(splitSegmenterFake{}, embedder, SemanticOptions{})

	chunks, err := chunker.Chunk(context.Background(), []string{"Only one."})
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if !reflect.DeepEqual(chunks, []string{"Only one."}) {
		t.Fatalf("unexpected chunks: %q", chunks)
	}
	if len(embedder.batches) != 0 {
		t.Fatalf("expected no embedding calls, got %v", embedder.batches)
	}

	empty, err := chunker.Chunk(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result, got %q, %v", empty, err)
	}
}

func TestSemanticChunkerUniformDistancesYieldOneChunk(t *testing.T) {
	chunker := NewSemanticChunker(splitSegmenterFake{}, &keywordEmbedderFake{}, SemanticOptions{BufferSize: 0})

	chunks, err := chunker.Chunk(context.Background(), []string{"Cats a.", "Cats b.", "Cats c."})
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "Cats a. Cats b. Cats c." {
		t.Fatalf("unexpected chunks: %q", chunks)
	}
}

func TestSemanticChunkerEmbedsInBatches(t *testing.T) {
	embedder := &keywordEmbedderFake{}
	chunker := NewSemanticChunker(splitSegmenterFake{}, embedder, SemanticOptions{BufferSize: 1, BatchSize: 2})

	if _, err := chunker.Chunk(context.Background(), []string{"a.", "b.", "c.", "d.", "e."}); err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if !reflect.DeepEqual(embedder.batches, []int{2, 2, 1}) {
		t.Fatalf("unexpected batch sizes: %v", embedder.batches)
	}
}

func TestSemanticChunkerPropagatesEmbeddingError(t *testing.T) {
	errEmbed := errors.New("embed down")
	chunker := NewSemanticChunker(splitSegmenterFake{}, &keywordEmbedderFake{err: errEmbed}, SemanticOptions{})

	_, err := chunker.Chunk(context.Background(), []string{"a.", "b."})
	if !errors.Is(err, errEmbed) {
		t.Fatalf("expected embed error, got %v", err)
	}
}

func TestCombineSentencesClipsWindow(t *testing.T) {
	records := CombineSentences([]string{"a", "b", "c", "d"}, 1)
	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.CombinedText
	}
	want := []string{"a b", "a b c", "b c d", "c d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CombineSentences() = %q, want %q", got, want)
	}
}

func TestBreakpointsAreStrictlyIncreasing(t *testing.T) {
	points := Breakpoints([]float64{0.9, 0.1, 0.95, 0.2, 0.99}, 0.5)
	if !reflect.DeepEqual(points, []int{0, 2, 4}) {
		t.Fatalf("unexpected breakpoints: %v", points)
	}
	for i := 1; i < len(points); i++ {
		if points[i] <= points[i-1] {
			t.Fatalf("breakpoints not increasing: %v", points)
		}
	}
}

func TestRecursiveSplitterRespectsChunkSize(t *testing.T) {
	splitter := NewRecursiveSplitter(40, 10)
	text := strings.Repeat("word ", 50)

	chunks, err := splitter.Split(context.Background(), text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 40 {
			t.Fatalf("chunk exceeds size: %q", c)
		}
	}

	empty, err := splitter.Split(context.Background(), "   ")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no chunks for blank text, got %q, %v", empty, err)
	}
}
