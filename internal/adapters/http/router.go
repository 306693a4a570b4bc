package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Htaaxx/NotebookLLM/internal/config"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
	"github.com/Htaaxx/NotebookLLM/internal/observability/metrics"
)

const (
	serviceName          = "api"
	defaultMaxUploadSize = 50 << 20
	backpressureWait     = 250 * time.Millisecond
)

// Services groups the inbound ports served over HTTP. Nil services answer
// 501 on their routes.
type Services struct {
	Ingest    ports.DocumentIngestor
	Documents ports.DocumentReader
	Manager   ports.DocumentManager
	Query     ports.DocumentQueryService
	Mindmap   ports.MindmapBuilder
	Recall    ports.RecallService
}

type Router struct {
	cfg      config.Config
	services Services
	metrics  *metrics.HTTPServerMetrics

	maxUploadBytes int64
}

// NewRouter builds the router. m may be nil, which disables /metrics.
func NewRouter(cfg config.Config, services Services, m *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:            cfg,
		services:       services,
		metrics:        m,
		maxUploadBytes: defaultMaxUploadSize,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", rt.healthz).Methods(http.MethodGet)
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler()).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/users/{user_id}/documents", rt.uploadDocument).Methods(http.MethodPost)
	v1.HandleFunc("/users/{user_id}/documents/web", rt.ingestWebPage).Methods(http.MethodPost)
	v1.HandleFunc("/users/{user_id}/documents/youtube", rt.ingestTranscript).Methods(http.MethodPost)
	v1.HandleFunc("/users/{user_id}/documents/{document_id}", rt.getDocument).Methods(http.MethodGet)
	v1.HandleFunc("/users/{user_id}/documents/{document_id}/selection", rt.setSelection).Methods(http.MethodPut)
	v1.HandleFunc("/users/{user_id}/documents/{document_id}/chunks", rt.listChunks).Methods(http.MethodGet)
	v1.HandleFunc("/users/{user_id}/embeddings", rt.deleteEmbeddings).Methods(http.MethodDelete)
	v1.HandleFunc("/query", rt.query).Methods(http.MethodPost)
	v1.HandleFunc("/mindmap", rt.mindmap).Methods(http.MethodPost)
	v1.HandleFunc("/recall/sessions", rt.startRecall).Methods(http.MethodPost)
	v1.HandleFunc("/recall/sessions/{session_id}", rt.getRecall).Methods(http.MethodGet)
	v1.HandleFunc("/recall/sessions/{session_id}", rt.endRecall).Methods(http.MethodDelete)
	v1.HandleFunc("/recall/sessions/{session_id}/answers", rt.answerRecall).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	validator, err := loadOpenAPIRouter()
	if err != nil {
		return nil, err
	}

	var h http.Handler = openAPIValidationMiddleware(validator, r)
	h = backpressureMiddleware(h, rt.cfg.APIMaxInFlight, backpressureWait, rt.rejected("overloaded"))
	h = rateLimitMiddleware(h, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.rejected("rate_limited"))
	if rt.metrics != nil {
		h = rt.metrics.Middleware(serviceName, h)
	}
	h = recoverMiddleware(h)
	h = accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	return h, nil
}

func (rt *Router) rejected(reason string) func() {
	return func() {
		if rt.metrics != nil {
			rt.metrics.RecordRejected(serviceName, reason)
		}
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps err to a status. Server-side failures are logged
// with the request id and their detail is not echoed to the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"status", status,
			"error", err,
		)
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func notImplemented(w http.ResponseWriter) {
	writeError(w, http.StatusNotImplemented, "service not configured")
}
