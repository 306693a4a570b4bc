// Package extractor turns stored document bytes into cleaned per-page text.
// Format-specific work lives in the pdf, xlsx, html and plaintext
// subpackages; this package only picks one and normalizes its output.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

// PageExtractor reads one format.
type PageExtractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]domain.Page, error)
}

type Format string

const (
	FormatPDF   Format = "pdf"
	FormatXLSX  Format = "xlsx"
	FormatHTML  Format = "html"
	FormatText  Format = "text"
	FormatImage Format = "image"
)

type Dispatcher struct {
	extractors map[Format]PageExtractor
}

func NewDispatcher(extractors map[Format]PageExtractor) *Dispatcher {
	return &Dispatcher{extractors: extractors}
}

func (d *Dispatcher) Extract(ctx context.Context, data []byte, mimeType, filename string) ([]domain.Page, error) {
	format, ok := DetectFormat(mimeType, filename)
	if !ok || format == FormatImage {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "extract", fmt.Errorf("%s (%s)", filename, mimeType))
	}
	ex, ok := d.extractors[format]
	if !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "extract", fmt.Errorf("no extractor for %s", format))
	}

	raw, err := ex.ExtractPages(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", format, err)
	}

	pages := make([]domain.Page, 0, len(raw))
	for _, p := range raw {
		text := CleanText(p.Text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{PageNumber: p.PageNumber, Text: text})
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "extract", fmt.Errorf("%s has no text", filename))
	}
	return pages, nil
}

// DetectFormat prefers the file extension and falls back to the mime type.
func DetectFormat(mimeType, filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, true
	case ".xlsx":
		return FormatXLSX, true
	case ".html", ".htm":
		return FormatHTML, true
	case ".txt", ".md", ".markdown", ".csv":
		return FormatText, true
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp":
		return FormatImage, true
	}

	mt := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch {
	case mt == "application/pdf":
		return FormatPDF, true
	case mt == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, true
	case mt == "text/html", mt == "application/xhtml+xml":
		return FormatHTML, true
	case strings.HasPrefix(mt, "text/"):
		return FormatText, true
	case strings.HasPrefix(mt, "image/"):
		return FormatImage, true
	}
	return "", false
}

var (
	newlineRun = regexp.MustCompile(`[\r\n]+`)
	spaceRun   = regexp.MustCompile(`[ \t\f\v]+`)
)

// CleanText folds line breaks into spaces and collapses runs of blanks.
func CleanText(text string) string {
	text = newlineRun.ReplaceAllString(text, " ")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
