package plaintext

import (
	"context"
	"testing"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

func TestExtractPagesStripsBOM(t *testing.T) {
	pages, err := NewExtractor().ExtractPages(context.Background(), append([]byte{0xEF, 0xBB, 0xBF}, "Tổng hợp"...))
	if err != nil {
		t.Fatalf("ExtractPages() error = %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "Tổng hợp" || pages[0].PageNumber != 1 {
		t.Fatalf("unexpected pages: %+v", pages)
	}
}

func TestExtractPagesRejectsBinary(t *testing.T) {
	_, err := NewExtractor().ExtractPages(context.Background(), []byte{0xff, 0xfe, 0x00, 0x81})
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
