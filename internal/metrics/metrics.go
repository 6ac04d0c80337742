// Package metrics exposes Prometheus collectors for the dashboard server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest outcomes.
const (
	OutcomeBuffered = "buffered"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics owns a private registry so several servers can coexist in one
// process. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	deriveDuration    prometheus.Histogram
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	datasets          prometheus.Gauge
	ingestMessages    *prometheus.CounterVec
	bufferedPoints    *prometheus.GaugeVec
	backendDuration   prometheus.Histogram
	backendErrors     prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "charge_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "charge_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		deriveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "charge_derive_duration_seconds",
			Help:    "Time spent deriving a dashboard view.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "charge_dataset_cache_hits_total",
			Help: "Dataset cache hits.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "charge_dataset_cache_misses_total",
			Help: "Dataset cache misses.",
		}),
		datasets: f.NewGauge(prometheus.GaugeOpts{
			Name: "charge_datasets",
			Help: "Derived datasets currently held in the cache.",
		}),
		ingestMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "charge_ingest_messages_total",
			Help: "Session messages received by source and outcome.",
		}, []string{"source", "outcome"}),
		bufferedPoints: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "charge_ingest_buffered_points",
			Help: "Session points currently buffered per station.",
		}, []string{"station"}),
		backendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "charge_backend_request_duration_seconds",
			Help:    "Prediction backend request durations.",
			Buckets: prometheus.DefBuckets,
		}),
		backendErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "charge_backend_errors_total",
			Help: "Prediction backend request failures.",
		}),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts and times requests served by next under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDerive records how long a view derivation took.
func (m *Metrics) ObserveDerive(d time.Duration) {
	if m == nil {
		return
	}
	m.deriveDuration.Observe(d.Seconds())
}

// CacheHit implements the dataset cache observer.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss implements the dataset cache observer.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// SetDatasets reports how many datasets the cache holds.
func (m *Metrics) SetDatasets(count int) {
	if m == nil {
		return
	}
	m.datasets.Set(float64(count))
}

// IngestMessage counts one message from source with the given outcome.
func (m *Metrics) IngestMessage(source, outcome string) {
	if m == nil {
		return
	}
	m.ingestMessages.WithLabelValues(source, outcome).Inc()
}

// SetBuffered reports the buffer depth for station.
func (m *Metrics) SetBuffered(station string, count int) {
	if m == nil {
		return
	}
	m.bufferedPoints.WithLabelValues(station).Set(float64(count))
}

// BackendRequest records one prediction backend call.
func (m *Metrics) BackendRequest(d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.backendDuration.Observe(d.Seconds())
	if !success {
		m.backendErrors.Inc()
	}
}
