// Package metrics exposes the Prometheus collectors of the study service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xaistudy"

// Metrics holds the collectors, registered on their own registry
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	backendRequests    *prometheus.CounterVec
	backendDuration    *prometheus.HistogramVec
	groupAssignments   *prometheus.CounterVec
	malformedSSEChunks prometheus.Counter
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "route"},
		),
		backendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "Requests sent to the explanation backend.",
			},
			[]string{"operation", "status"},
		),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Time until the explanation backend answered (headers only for streams).",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"operation"},
		),
		groupAssignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "study",
				Name:      "group_assignments_total",
				Help:      "Study group assignments by arm and whether the fallback arm was used.",
			},
			[]string{"group", "fallback"},
		),
		malformedSSEChunks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "malformed_stream_chunks_total",
				Help:      "Streamed chat chunks that could not be parsed and were skipped.",
			},
		),
	}

	m.Registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.backendRequests,
		m.backendDuration,
		m.groupAssignments,
		m.malformedSSEChunks,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per route template
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveBackend records one call to the explanation backend. status is "error" when the
// request failed before a response arrived.
func (m *Metrics) ObserveBackend(operation string, statusCode int, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "error"
	if err == nil {
		status = strconv.Itoa(statusCode)
	}
	m.backendRequests.WithLabelValues(operation, status).Inc()
	m.backendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// MalformedChunk counts one skipped stream chunk
func (m *Metrics) MalformedChunk() {
	if m == nil {
		return
	}
	m.malformedSSEChunks.Inc()
}

// GroupAssigned counts one study group decision
func (m *Metrics) GroupAssigned(group string, fallback bool) {
	if m == nil {
		return
	}
	m.groupAssignments.WithLabelValues(group, strconv.FormatBool(fallback)).Inc()
}
