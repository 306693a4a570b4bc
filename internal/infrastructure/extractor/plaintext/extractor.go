package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor reads UTF-8 text and markdown as a single page.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractPages(_ context.Context, data []byte) ([]domain.Page, error) {
	raw := bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "extract text", fmt.Errorf("content is not valid utf-8"))
	}
	return []domain.Page{{PageNumber: 1, Text: string(raw)}}, nil
}
