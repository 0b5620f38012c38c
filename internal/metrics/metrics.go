package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signscan"

// Metrics holds the client-side counters for analyses and previews.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	analysisRequests *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	detections       prometheus.Counter
	previewsLive     prometheus.Gauge
	previewsReleased prometheus.Counter
	staleResponses   prometheus.Counter
}

// New registers the metrics on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		analysisRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Analysis requests by outcome",
		}, []string{"outcome"}),

		analysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Round-trip time of analysis requests",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		detections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Traffic signs reported by successful analyses",
		}),

		previewsLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "previews_live",
			Help:      "Preview handles currently registered",
		}),

		previewsReleased: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_released_total",
			Help:      "Preview handles released",
		}),

		staleResponses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Analysis completions discarded because the selection had moved on",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAnalysis records one finished request
func (m *Metrics) ObserveAnalysis(outcome string, elapsed time.Duration, detections int) {
	if m == nil {
		return
	}
	m.analysisRequests.WithLabelValues(outcome).Inc()
	m.analysisDuration.Observe(elapsed.Seconds())
	if detections > 0 {
		m.detections.Add(float64(detections))
	}
}

// PreviewCreated tracks a new live handle
func (m *Metrics) PreviewCreated() {
	if m == nil {
		return
	}
	m.previewsLive.Inc()
}

// PreviewReleased tracks a released handle
func (m *Metrics) PreviewReleased() {
	if m == nil {
		return
	}
	m.previewsLive.Dec()
	m.previewsReleased.Inc()
}

// StaleResponse tracks a discarded completion
func (m *Metrics) StaleResponse() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}
