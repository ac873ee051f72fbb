// Package metrics exposes Prometheus collectors for document chunking and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dgallion1/legalchunk/internal/chunker"
)

const namespace = "legalchunk"

// Metrics holds the collectors, registered on one registry.
type Metrics struct {
	DocumentsTotal     *prometheus.CounterVec
	DocumentDuration   *prometheus.HistogramVec
	ArticlesTotal      prometheus.Counter
	ArticlesSplitTotal prometheus.Counter
	ChunksTotal        prometheus.Counter
	ChunkLength        prometheus.Histogram
	ChaptersTotal      prometheus.Counter
	HaltsTotal         prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_processed_total",
				Help:      "Documents run through the chunker, by input format and outcome.",
			},
			[]string{"format", "outcome"},
		),
		DocumentDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_processing_duration_seconds",
				Help:      "Time spent decoding and chunking one document.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"format"},
		),
		ArticlesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_total",
			Help:      "Articles flushed by the chunk builder.",
		}),
		ArticlesSplitTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_split_total",
			Help:      "Articles that produced more than one chunk.",
		}),
		ChunksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_emitted_total",
			Help:      "Chunks emitted.",
		}),
		ChunkLength: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_length_runes",
			Help:      "Chunk content length in code points.",
			Buckets:   []float64{100, 250, 500, 750, 1000, 1250, 1500, 2000},
		}),
		ChaptersTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chapters_total",
			Help:      "Chapter headers encountered.",
		}),
		HaltsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentinel_halts_total",
			Help:      "Documents cut short by the end-of-body marker.",
		}),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Observer returns a chunker.Observer feeding m.
func (m *Metrics) Observer() chunker.Observer {
	return observer{m}
}

// ObserveDocument records the outcome of one chunking run.
func (m *Metrics) ObserveDocument(format, outcome string, elapsed time.Duration) {
	m.DocumentsTotal.WithLabelValues(format, outcome).Inc()
	m.DocumentDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

type observer struct{ m *Metrics }

func (o observer) ChapterStarted(string) {
	o.m.ChaptersTotal.Inc()
}

func (o observer) ArticleFlushed(_ string, chunks []chunker.Chunk) {
	o.m.ArticlesTotal.Inc()
	if len(chunks) > 1 {
		o.m.ArticlesSplitTotal.Inc()
	}
	for _, c := range chunks {
		o.m.ChunksTotal.Inc()
		o.m.ChunkLength.Observe(float64(utf8.RuneCountInString(c.Content)))
	}
}

func (o observer) Halted(string) {
	o.m.HaltsTotal.Inc()
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
