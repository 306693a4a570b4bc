package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "notebook-api", "info", "json")
	logger.Debug("hidden")
	logger.Info("document_ingested", "document_id", "d1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record above debug level, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["service"] != "notebook-api" || record["document_id"] != "d1" || record["msg"] != "document_ingested" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "notebookctl", "debug", "text").Debug("chunked", "count", 3)
	out := buf.String()
	if !strings.Contains(out, "service=notebookctl") || !strings.Contains(out, "count=3") {
		t.Fatalf("unexpected text output: %q", out)
	}
}
