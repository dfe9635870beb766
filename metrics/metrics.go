// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the service records into. Create one
// per process with New and share it.
type Metrics struct {
	FetchesTotal     *prometheus.CounterVec
	ScreenshotsTotal *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CacheEntries     prometheus.Gauge
	CacheBytes       prometheus.Gauge
	PagesInFlight    prometheus.Gauge
}

// New registers all collectors with reg. Pass
// prometheus.DefaultRegisterer in main; tests use a fresh registry so
// repeated construction cannot collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserfetch_fetches_total",
				Help: "Total page fetches by outcome (ok or error code).",
			},
			[]string{"outcome"},
		),
		ScreenshotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserfetch_screenshots_total",
				Help: "Total screenshot captures by outcome (ok or error code).",
			},
			[]string{"outcome"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "browserfetch_fetch_duration_seconds",
				Help:    "End-to-end fetch duration including navigation and waits.",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
			},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "browserfetch_cache_hits_total",
				Help: "Fetches served from the page cache.",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "browserfetch_cache_misses_total",
				Help: "Fetches that had to hit the browser.",
			},
		),
		CacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "browserfetch_cache_entries",
				Help: "Pages currently held in the cache.",
			},
		),
		CacheBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "browserfetch_cache_bytes",
				Help: "Total HTML bytes held in the cache.",
			},
		),
		PagesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "browserfetch_pages_in_flight",
				Help: "Browser pages currently serving requests.",
			},
		),
	}
}

// RecordFetch tallies one fetch outcome. Pass the error code for
// failures and "ok" for success.
func (m *Metrics) RecordFetch(outcome string, seconds float64) {
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(seconds)
}

// RecordScreenshot tallies one screenshot outcome.
func (m *Metrics) RecordScreenshot(outcome string) {
	m.ScreenshotsTotal.WithLabelValues(outcome).Inc()
}

// RecordCache updates the cache gauges from a stats snapshot.
func (m *Metrics) RecordCache(entries, bytes int) {
	m.CacheEntries.Set(float64(entries))
	m.CacheBytes.Set(float64(bytes))
}
