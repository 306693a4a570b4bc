package xlsx

import (
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractPagesOnePagePerSheet(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "term"); err != nil {
		t.Fatalf("SetCellValue() error = %v", err)
	}
	_ = f.SetCellValue("Sheet1", "B1", "definition")
	_ = f.SetCellValue("Sheet1", "A2", "mitosis")
	_ = f.SetCellValue("Sheet1", "B2", "cell division")
	if _, err := f.NewSheet("Second"); err != nil {
		t.Fatalf("NewSheet() error = %v", err)
	}
	_ = f.SetCellValue("Second", "A1", "osmosis")
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	pages, err := NewExtractor().ExtractPages(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractPages() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[0].Text, "mitosis\tcell division") || pages[1].PageNumber != 2 {
		t.Fatalf("unexpected pages: %+v", pages)
	}
}
