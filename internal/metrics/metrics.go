// Package metrics provides Prometheus metrics for the content store and query engine.
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

// Metrics holds the collectors of one process. All methods are safe on a nil
// receiver so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// Content cache
	CacheLookupsTotal    *prometheus.CounterVec
	CacheRebuildsTotal   prometheus.Counter
	CacheRebuildDuration prometheus.Histogram
	DocumentsLoaded      *prometheus.GaugeVec

	// Index build
	IndexBuildsTotal  prometheus.Counter
	IndexEntriesTotal prometheus.Gauge

	// Query engine
	SearchRequestsTotal *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
	SearchVariants      prometheus.Histogram
	CorpusSize          prometheus.Gauge

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a private registry, together with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.CacheLookupsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "almanac_cache_lookups_total",
			Help: "Content snapshot lookups by result (hit or miss)",
		},
		[]string{"result"},
	)
	m.CacheRebuildsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "almanac_cache_rebuilds_total",
			Help: "Content snapshot rebuilds",
		},
	)
	m.CacheRebuildDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "almanac_cache_rebuild_duration_seconds",
			Help:    "Duration of content snapshot rebuilds in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
	m.DocumentsLoaded = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "almanac_documents_loaded",
			Help: "Documents in the latest snapshot of each subtree",
		},
		[]string{"subtree"},
	)

	m.IndexBuildsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "almanac_index_builds_total",
			Help: "Index artifacts built",
		},
	)
	m.IndexEntriesTotal = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "almanac_index_entries",
			Help: "Entries in the last built index artifact",
		},
	)

	m.SearchRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "almanac_search_requests_total",
			Help: "Search requests by outcome (empty, hit or miss)",
		},
		[]string{"outcome"},
	)
	m.SearchDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "almanac_search_duration_seconds",
			Help:    "Search latency in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
	m.SearchVariants = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "almanac_search_variants",
			Help:    "Query variants executed per search",
			Buckets: []float64{1, 2, 3, 4, 6, 8},
		},
	)
	m.CorpusSize = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "almanac_search_corpus_entries",
			Help: "Entries loaded into the query engine",
		},
	)

	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "almanac_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
	m.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "almanac_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordCacheLookup counts a snapshot lookup.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordRebuild records a finished snapshot rebuild.
func (m *Metrics) RecordRebuild(subtree string, docs int, duration time.Duration) {
	if m == nil {
		return
	}
	if subtree == "" {
		subtree = "/"
	}
	m.CacheRebuildsTotal.Inc()
	m.CacheRebuildDuration.Observe(duration.Seconds())
	m.DocumentsLoaded.WithLabelValues(subtree).Set(float64(docs))
}

// RecordIndexBuild records a built artifact.
func (m *Metrics) RecordIndexBuild(entries int) {
	if m == nil {
		return
	}
	m.IndexBuildsTotal.Inc()
	m.IndexEntriesTotal.Set(float64(entries))
}

// RecordSearch records one search request.
func (m *Metrics) RecordSearch(outcome string, variants int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(duration.Seconds())
	if variants > 0 {
		m.SearchVariants.Observe(float64(variants))
	}
}

// SetCorpusSize records how many entries the query engine holds.
func (m *Metrics) SetCorpusSize(n int) {
	if m == nil {
		return
	}
	m.CorpusSize.Set(float64(n))
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, httpCode(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func httpCode(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code)
}
