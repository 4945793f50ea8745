// Package metrics exposes Prometheus collectors for the HTTP surface
// and the game itself. Each Metrics value owns a private registry so
// tests can construct instances without collisions.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the application collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	puzzlesGenerated *prometheus.CounterVec
	guesses          *prometheus.CounterVec
	completions      prometheus.Counter
}

// New builds and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tylmus",
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tylmus",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tylmus",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "path"},
		),

		puzzlesGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tylmus",
				Subsystem: "game",
				Name:      "puzzles_generated_total",
				Help:      "Total number of daily puzzles generated, by source.",
			},
			[]string{"source"},
		),
		guesses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tylmus",
				Subsystem: "game",
				Name:      "guesses_total",
				Help:      "Total number of selection checks, by outcome.",
			},
			[]string{"outcome"},
		),
		completions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tylmus",
				Subsystem: "game",
				Name:      "completions_total",
				Help:      "Total number of fully solved daily puzzles.",
			},
		),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.puzzlesGenerated,
		m.guesses,
		m.completions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler returns an HTTP handler exposing the registered collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks a request as started.
func (m *Metrics) IncrementInFlight() {
	m.httpInFlight.Inc()
}

// DecrementInFlight marks a request as finished.
func (m *Metrics) DecrementInFlight() {
	m.httpInFlight.Dec()
}

// RecordHTTPRequest records one completed request. path should already
// be a route template or canonical form, never a raw URL.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	method = strings.ToUpper(method)
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPuzzleGenerated counts a generated puzzle by source ("db" or
// "fallback").
func (m *Metrics) RecordPuzzleGenerated(source string) {
	if source == "" {
		source = "unknown"
	}
	m.puzzlesGenerated.WithLabelValues(source).Inc()
}

// RecordGuess counts a selection check by outcome ("hit", "miss",
// "rejected").
func (m *Metrics) RecordGuess(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.guesses.WithLabelValues(outcome).Inc()
}

// RecordGameCompleted counts a fully solved daily puzzle.
func (m *Metrics) RecordGameCompleted() {
	m.completions.Inc()
}

// CanonicalPath collapses request paths onto a bounded label set for
// requests that did not match a registered route.
func CanonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	if len(parts) >= 3 && parts[1] == "admin" && parts[2] == "categories" {
		switch {
		case len(parts) == 3:
			return "/api/admin/categories"
		case len(parts) == 4:
			return "/api/admin/categories/:id"
		default:
			return "/api/admin/categories/:id/" + parts[4]
		}
	}
	if len(parts) >= 2 {
		return "/api/" + parts[1]
	}
	return "/api"
}
