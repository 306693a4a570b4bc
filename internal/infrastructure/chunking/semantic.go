package chunking

import (
	"context"
	"fmt"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
	"github.com/Htaaxx/NotebookLLM/internal/core/vecmath"
)

const (
	DefaultBufferSize           = 10
	DefaultBreakpointPercentile = 95.0
	DefaultEmbedBatchSize       = 32
)

type SemanticOptions struct {
	// BufferSize is the window radius; zero embeds each sentence alone
	// and a negative value selects DefaultBufferSize.
	BufferSize           int
	BreakpointPercentile float64
	BatchSize            int
}

// SemanticChunker cuts a sentence sequence where the embedding distance
// between neighbouring sentence windows exceeds an adaptive percentile.
type SemanticChunker struct {
	segmenter  ports.SentenceSegmenter
	embedder   ports.Embedder
	bufferSize int
	percentile float64
	batchSize  int
}

func NewSemanticChunker(segmenter ports.SentenceSegmenter, embedder ports.Embedder, opts SemanticOptions) *SemanticChunker {
	if opts.BufferSize < 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.BreakpointPercentile <= 0 || opts.BreakpointPercentile > 100 {
		opts.BreakpointPercentile = DefaultBreakpointPercentile
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultEmbedBatchSize
	}
	return &SemanticChunker{
		segmenter:  segmenter,
		embedder:   embedder,
		bufferSize: opts.BufferSize,
		percentile: opts.BreakpointPercentile,
		batchSize:  opts.BatchSize,
	}
}

func (c *SemanticChunker) Split(ctx context.Context, text string) ([]string, error) {
	return c.Chunk(ctx, c.segmenter.Segment(text))
}

// Chunk groups ordered sentences. Joining the result with single spaces
// reproduces the input sentences joined the same way.
func (c *SemanticChunker) Chunk(ctx context.Context, sentences []string) ([]string, error) {
	switch len(sentences) {
	case 0:
		return []string{}, nil
	case 1:
		return []string{sentences[0]}, nil
	}

	records := CombineSentences(sentences, c.bufferSize)
	windows := make([]string, len(records))
	for i := range records {
		windows[i] = records[i].CombinedText
	}

	vectors, err := embedInBatches(ctx, c.embedder, windows, c.batchSize)
	if err != nil {
		return nil, fmt.Errorf("embed sentence windows: %w", err)
	}
	for i := range records {
		records[i].Embedding = vectors[i]
	}

	distances := Distances(records)
	threshold := vecmath.Percentile(distances, c.percentile)
	return SliceAtBreakpoints(records, Breakpoints(distances, threshold)), nil
}

// CombineSentences builds the window [i-buffer, i+buffer] around every
// sentence, clipped to the slice bounds.
func CombineSentences(sentences []string, buffer int) []domain.Sentence {
	out := make([]domain.Sentence, len(sentences))
	for i, s := range sentences {
		lo := max(0, i-buffer)
		hi := min(len(sentences), i+buffer+1)
		out[i] = domain.Sentence{
			Index:        i,
			Text:         s,
			CombinedText: strings.Join(sentences[lo:hi], " "),
		}
	}
	return out
}

// Distances sets DistanceToNext on every record but the last and returns
// the len-1 cosine distances between neighbouring windows.
func Distances(records []domain.Sentence) []float64 {
	if len(records) < 2 {
		return nil
	}
	out := make([]float64, len(records)-1)
	current := vecmath.ToFloat64(records[0].Embedding)
	for i := 0; i < len(records)-1; i++ {
		next := vecmath.ToFloat64(records[i+1].Embedding)
		out[i] = vecmath.CosineDistance(current, next)
		records[i].DistanceToNext = out[i]
		current = next
	}
	return out
}

// Breakpoints returns, in increasing order, the indices whose distance to
// the next sentence is strictly above threshold.
func Breakpoints(distances []float64, threshold float64) []int {
	out := make([]int, 0)
	for i, d := range distances {
		if d > threshold {
			out = append(out, i)
		}
	}
	return out
}

// SliceAtBreakpoints ends a chunk at every breakpoint (inclusive) and puts
// the remaining sentences in a final chunk.
func SliceAtBreakpoints(records []domain.Sentence, breakpoints []int) []string {
	out := make([]string, 0, len(breakpoints)+1)
	start := 0
	for _, end := range breakpoints {
		out = append(out, joinText(records[start:end+1]))
		start = end + 1
	}
	if start < len(records) {
		out = append(out, joinText(records[start:]))
	}
	return out
}

func joinText(records []domain.Sentence) string {
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = r.Text
	}
	return strings.Join(parts, " ")
}

func embedInBatches(ctx context.Context, embedder ports.Embedder, texts []string, batchSize int) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		vectors, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, domain.WrapError(
				domain.ErrGateway,
				"embed batch",
				fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), end-start),
			)
		}
		out = append(out, vectors...)
	}
	return out, nil
}
