package chunking

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 2500
	DefaultChunkOverlap = 500
)

// RecursiveSplitter cuts on paragraph, line, then word separators until
// pieces fit ChunkSize characters.
type RecursiveSplitter struct {
	ChunkSize int
	Overlap   int

	splitter textsplitter.RecursiveCharacter
}

func NewRecursiveSplitter(chunkSize, overlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &RecursiveSplitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

func (s *RecursiveSplitter) Split(_ context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	parts, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("recursive split: %w", err)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}
