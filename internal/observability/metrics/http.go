package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notebook"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
	rejectedTotal   *prometheus.CounterVec

	ragRequestsTotal     *prometheus.CounterVec
	ragRetrievalHitTotal *prometheus.CounterVec
	ragNoContextTotal    *prometheus.CounterVec
	ragRetrievedChunks   *prometheus.HistogramVec
	ragDuration          *prometheus.HistogramVec
	citationUnresolved   *prometheus.CounterVec

	mindmapClusters       *prometheus.HistogramVec
	mindmapFailedClusters *prometheus.CounterVec
	mindmapDuration       *prometheus.HistogramVec

	recallTurnsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected before reaching a handler, by reason.",
		},
		[]string{"service", "reason"},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total successful Q&A requests by mode.",
		},
		[]string{"service", "endpoint", "mode"},
	)
	ragRetrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "retrieval_hit_total",
			Help:      "Total Q&A requests with at least one retrieved chunk.",
		},
		[]string{"service", "endpoint"},
	)
	ragNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total Q&A requests without retrieved chunks.",
		},
		[]string{"service", "endpoint"},
	)
	ragRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful Q&A request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "Q&A execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	citationUnresolved := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "citation_unresolved_total",
			Help:      "Body citation numbers left unresolved after reconciliation.",
		},
		[]string{"service", "endpoint"},
	)
	mindmapClusters := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mindmap",
			Name:      "clusters",
			Help:      "Distribution of non-empty clusters per mindmap.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	mindmapFailedClusters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mindmap",
			Name:      "failed_clusters_total",
			Help:      "Clusters rendered as placeholders because the outline call failed.",
		},
		[]string{"service"},
	)
	mindmapDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mindmap",
			Name:      "duration_seconds",
			Help:      "Mindmap build duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"service"},
	)
	recallTurnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recall",
			Name:      "events_total",
			Help:      "Active-recall session events by action.",
		},
		[]string{"service", "action"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		rejectedTotal,
		ragRequestsTotal,
		ragRetrievalHitTotal,
		ragNoContextTotal,
		ragRetrievedChunks,
		ragDuration,
		citationUnresolved,
		mindmapClusters,
		mindmapFailedClusters,
		mindmapDuration,
		recallTurnsTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		rejectedTotal:         rejectedTotal,
		ragRequestsTotal:      ragRequestsTotal,
		ragRetrievalHitTotal:  ragRetrievalHitTotal,
		ragNoContextTotal:     ragNoContextTotal,
		ragRetrievedChunks:    ragRetrievedChunks,
		ragDuration:           ragDuration,
		citationUnresolved:    citationUnresolved,
		mindmapClusters:       mindmapClusters,
		mindmapFailedClusters: mindmapFailedClusters,
		mindmapDuration:       mindmapDuration,
		recallTurnsTotal:      recallTurnsTotal,
	}
}

// Registerer lets other collectors share the /metrics endpoint.
func (m *HTTPServerMetrics) Registerer() prometheus.Registerer {
	return m.registry
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := NormalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// NormalizePath replaces user, document and session ids with their route
// placeholders to keep label cardinality bounded.
func NormalizePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "users":
			parts[i] = "{user_id}"
		case "documents":
			if parts[i] != "web" {
				parts[i] = "{document_id}"
			}
		case "sessions":
			parts[i] = "{session_id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func (m *HTTPServerMetrics) RecordRejected(service, reason string) {
	m.rejectedTotal.WithLabelValues(service, reason).Inc()
}

func (m *HTTPServerMetrics) RecordAnswer(service, endpoint string, retrieved, unresolved int, summary bool, duration time.Duration) {
	mode := "retrieval"
	if summary {
		mode = "summary"
	}
	m.ragRequestsTotal.WithLabelValues(service, endpoint, mode).Inc()
	m.ragRetrievedChunks.WithLabelValues(service, endpoint).Observe(float64(retrieved))
	m.ragDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
	if unresolved > 0 {
		m.citationUnresolved.WithLabelValues(service, endpoint).Add(float64(unresolved))
	}

	if retrieved > 0 {
		m.ragRetrievalHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.ragNoContextTotal.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) RecordMindmap(service string, clusters, failed int, duration time.Duration) {
	m.mindmapClusters.WithLabelValues(service).Observe(float64(clusters))
	m.mindmapDuration.WithLabelValues(service).Observe(duration.Seconds())
	if failed > 0 {
		m.mindmapFailedClusters.WithLabelValues(service).Add(float64(failed))
	}
}

func (m *HTTPServerMetrics) RecordRecall(service, action string) {
	m.recallTurnsTotal.WithLabelValues(service, action).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
