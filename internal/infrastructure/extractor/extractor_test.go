package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

type pagesFake struct {
	pages []domain.Page
	err   error
}

func (f pagesFake) ExtractPages(context.Context, []byte) ([]domain.Page, error) {
	return f.pages, f.err
}

func TestDispatcherCleansAndDropsEmptyPages(t *testing.T) {
	d := NewDispatcher(map[Format]PageExtractor{
		FormatPDF: pagesFake{pages: []domain.Page{
			{PageNumber: 1, Text: "First\n\nline   here"},
			{PageNumber: 2, Text: " \n\t"},
			{PageNumber: 3, Text: "Third"},
		}},
	})

	pages, err := d.Extract(context.Background(), []byte("x"), "application/octet-stream", "a.PDF")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %+v", pages)
	}
	if pages[0].Text != "First line here" || pages[1].PageNumber != 3 {
		t.Fatalf("unexpected pages: %+v", pages)
	}
}

func TestDispatcherNoTextIsExtractionFailure(t *testing.T) {
	d := NewDispatcher(map[Format]PageExtractor{
		FormatText: pagesFake{pages: []domain.Page{{PageNumber: 1, Text: "   "}}},
	})
	_, err := d.Extract(context.Background(), []byte("   "), "text/plain", "blank.txt")
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestDispatcherHardFailureIsNotExtractionFailure(t *testing.T) {
	boom := errors.New("corrupt xref")
	d := NewDispatcher(map[Format]PageExtractor{FormatPDF: pagesFake{err: boom}})
	_, err := d.Extract(context.Background(), nil, "application/pdf", "a.pdf")
	if !errors.Is(err, boom) || domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected raw failure, got %v", err)
	}
}

func TestDispatcherRejectsImagesAndUnknown(t *testing.T) {
	d := NewDispatcher(map[Format]PageExtractor{})
	for _, tc := range []struct{ mime, name string }{
		{"image/png", "scan.png"},
		{"application/zip", "bundle.zip"},
	} {
		_, err := d.Extract(context.Background(), nil, tc.mime, tc.name)
		if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
			t.Fatalf("%s: expected ErrUnsupportedFormat, got %v", tc.name, err)
		}
	}
}

func TestDetectFormatFallsBackToMime(t *testing.T) {
	cases := map[string]Format{
		"text/html; charset=utf-8": FormatHTML,
		"text/markdown":            FormatText,
		"application/pdf":          FormatPDF,
	}
	for mt, want := range cases {
		got, ok := DetectFormat(mt, "noext")
		if !ok || got != want {
			t.Fatalf("DetectFormat(%q) = %q, %v", mt, got, ok)
		}
	}
}
