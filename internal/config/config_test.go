package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RECALL_SESSION_TTL_MINUTES", "")
	t.Setenv("SUMMARY_KEYWORDS", "")
	t.Setenv("TRANSCRIPT_LANGUAGES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 2500 || cfg.ChunkOverlap != 500 {
		t.Fatalf("expected chunk defaults 2500/500, got %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.RAGTopK != 10 {
		t.Fatalf("expected default top k 10, got %d", cfg.RAGTopK)
	}
	if cfg.RecallSessionTTL != time.Hour {
		t.Fatalf("expected default ttl 1h, got %v", cfg.RecallSessionTTL)
	}
	if cfg.KMeansSeed != 42 || cfg.KMeansNInit != 10 {
		t.Fatalf("unexpected kmeans defaults: seed=%d n_init=%d", cfg.KMeansSeed, cfg.KMeansNInit)
	}
	if len(cfg.SummaryKeywords) != 4 {
		t.Fatalf("expected 4 default summary keywords, got %v", cfg.SummaryKeywords)
	}
	if len(cfg.TranscriptLanguages) != 8 || cfg.TranscriptLanguages[0] != "en" {
		t.Fatalf("unexpected default transcript languages: %v", cfg.TranscriptLanguages)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_STRATEGY", "Semantic")
	t.Setenv("SEMANTIC_BREAKPOINT_PERCENTILE", "90.5")
	t.Setenv("SUMMARY_KEYWORDS", " recap , overview ,")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("RAG_TOP_K", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkStrategy != "semantic" {
		t.Fatalf("expected lowercased strategy, got %q", cfg.ChunkStrategy)
	}
	if cfg.SemanticBreakpointPercentile != 90.5 {
		t.Fatalf("expected percentile 90.5, got %v", cfg.SemanticBreakpointPercentile)
	}
	if !reflect.DeepEqual(cfg.SummaryKeywords, []string{"recap", "overview"}) {
		t.Fatalf("unexpected keywords %v", cfg.SummaryKeywords)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.RAGTopK != 10 {
		t.Fatalf("expected fallback on invalid int, got %d", cfg.RAGTopK)
	}
}

func TestLoadYAMLFileWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notebook.yaml")
	content := "CHUNK_SIZE: 1200\nmindmap_default_clusters: 7\nSUMMARY_KEYWORDS:\n  - digest\n  - recap\nVECTOR_STORE: memory\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("MINDMAP_DEFAULT_CLUSTERS", "")
	t.Setenv("SUMMARY_KEYWORDS", "")
	t.Setenv("VECTOR_STORE", "qdrant")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 1200 {
		t.Fatalf("expected file chunk size 1200, got %d", cfg.ChunkSize)
	}
	if cfg.MindmapDefaultClusters != 7 {
		t.Fatalf("expected file cluster count 7, got %d", cfg.MindmapDefaultClusters)
	}
	if !reflect.DeepEqual(cfg.SummaryKeywords, []string{"digest", "recap"}) {
		t.Fatalf("unexpected keywords %v", cfg.SummaryKeywords)
	}
	if cfg.VectorStore != "qdrant" {
		t.Fatalf("expected env to win, got %q", cfg.VectorStore)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("CHUNK_SIZE: [1, 2\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
