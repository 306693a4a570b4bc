package segmenter

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

type tokenizer interface {
	Tokenize(text string) []*sentences.Sentence
}

// Segmenter splits text with the pre-trained English Punkt model.
type Segmenter struct {
	tokenizer tokenizer
}

func New() (*Segmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	return &Segmenter{tokenizer: tok}, nil
}

// Segment returns trimmed, non-empty sentences in document order.
// Empty input yields an empty slice.
func (s *Segmenter) Segment(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}

	out := make([]string, 0)
	for _, sentence := range s.tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(sentence.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
