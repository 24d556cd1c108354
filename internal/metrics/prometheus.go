package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the server's Prometheus collectors on its own registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	fetchLatency *prometheus.HistogramVec
	fetchErrors  *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	recordsOut   prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smaf_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smaf_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smaf_source_fetch_duration_seconds",
				Help:    "Duration of price source loads in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		fetchErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smaf_source_fetch_errors_total",
				Help: "Total number of failed price source loads",
			},
			[]string{"source", "code"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smaf_quote_cache_lookups_total",
				Help: "Quote cache lookups by result",
			},
			[]string{"result"},
		),
		recordsOut: f.NewGauge(prometheus.GaugeOpts{
			Name: "smaf_records_served",
			Help: "Number of price records in the last /data response",
		}),
	}
}

func (r *Recorder) RecordRequest(route, method, status string, seconds float64) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, status).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(seconds)
}

func (r *Recorder) RecordFetch(source string, seconds float64) {
	if r == nil {
		return
	}
	r.fetchLatency.WithLabelValues(source).Observe(seconds)
}

func (r *Recorder) RecordFetchError(source, code string) {
	if r == nil {
		return
	}
	r.fetchErrors.WithLabelValues(source, code).Inc()
}

func (r *Recorder) RecordCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordServed(n int) {
	if r == nil {
		return
	}
	r.recordsOut.Set(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
