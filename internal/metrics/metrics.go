// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "unfilled"

// OtherLabel replaces label values outside a known set.
const OtherLabel = "other"

var knownMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true,
}

// Metrics owns a private registry so several servers (and tests) can live
// in one process. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	exports         *prometheus.CounterVec
	exportFallbacks prometheus.Counter
	exportDuration  *prometheus.HistogramVec
	daySaves        *prometheus.CounterVec
	evictions       prometheus.Counter
	uploads         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Rendered exports by kind and preset.",
		}, []string{"kind", "preset"}),
		exportFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_cover_fallbacks_total",
			Help:      "Cover renders that fell back to contain.",
		}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent rendering exports.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"kind"}),
		daySaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_saves_total",
			Help:      "Day entry saves by result.",
		}, []string{"result"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_evictions_total",
			Help:      "Day entries removed to free quota.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.exports, m.exportFallbacks, m.exportDuration,
		m.daySaves, m.evictions, m.uploads,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveExport(kind, preset string, d time.Duration) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(kind, preset).Inc()
	m.exportDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) IncFallback() {
	if m == nil {
		return
	}
	m.exportFallbacks.Inc()
}

// ObserveDaySave records a save outcome: "ok", "full" or "error".
func (m *Metrics) ObserveDaySave(result string) {
	if m == nil {
		return
	}
	m.daySaves.WithLabelValues(result).Inc()
}

func (m *Metrics) AddEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n))
}

func (m *Metrics) ObserveUpload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	if !knownMethods[method] {
		method = OtherLabel
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
