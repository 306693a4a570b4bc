package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/users/alice/documents/123/chunks": "/v1/users/{user_id}/documents/{document_id}/chunks",
		"/v1/users/alice/documents/web":        "/v1/users/{user_id}/documents/web",
		"/v1/recall/sessions/s-1/answers":      "/v1/recall/sessions/{session_id}/answers",
		"/v1/query":                            "/v1/query",
		"/healthz":                             "/healthz",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Fatalf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTTPMetricsExposeRecordedSeries(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/users/alice/documents/d1", nil))
	m.RecordAnswer("api", "query", 3, 1, false, time.Second)
	m.RecordMindmap("api", 4, 1, 2*time.Second)
	m.RecordRejected("api", "rate_limited")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`notebook_http_requests_total{method="GET",path="/v1/users/{user_id}/documents/{document_id}",service="api",status="418"} 1`,
		`notebook_rag_citation_unresolved_total{endpoint="query",service="api"} 1`,
		`notebook_mindmap_failed_clusters_total{service="api"} 1`,
		`notebook_http_rejected_total{reason="rate_limited",service="api"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in metrics output:\n%s", want, body)
		}
	}
}

func TestProcessStatus(t *testing.T) {
	partial := &domain.PartialWriteError{Operation: "index chunks", Completed: 2, Total: 5, Err: errors.New("boom")}
	cases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{fmt.Errorf("process: %w", partial), "partial"},
		{domain.WrapError(domain.ErrExtractionFailed, "extract", errors.New("scan")), "unreadable"},
		{errors.New("db down"), "error"},
	}
	for _, tc := range cases {
		if got := processStatus(tc.err); got != tc.want {
			t.Fatalf("processStatus(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestGatewayMetricsShareRegistry(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	gw := NewGatewayMetrics("api", m.Registerer())
	gw.ObserveRetry("ollama.chat")
	gw.ObserveRetry("ollama.chat")
	gw.ObserveBreakerState("qdrant.search", "open")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`notebook_gateway_retries_total{operation="ollama.chat",service="api"} 2`,
		`notebook_gateway_breaker_state{operation="qdrant.search",service="api",state="open"} 1`,
		`notebook_gateway_breaker_state{operation="qdrant.search",service="api",state="closed"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
