package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics bundles the counters/histograms spec §4.9's metrics-snapshot
// sweeper and §6's /metrics endpoint expose, grounded on cafe1231's
// monitoring.Metrics.
type metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	combatsStarted  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	m := &metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idleduelist_http_requests_total",
			Help: "Total HTTP requests handled, by method/path/status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idleduelist_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method/path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		combatsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idleduelist_combats_started_total",
			Help: "Combats started, by mode.",
		}, []string{"mode"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "idleduelist_active_sessions",
			Help: "Authenticated users seen within the session TTL, as of the last metrics-snapshot sweep.",
		}),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.combatsStarted, m.activeSessions)
	return m
}

// setActiveSessions is called by the metrics-snapshot sweep (C9).
func (m *metrics) setActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *metrics) recordCombatStarted(mode string) {
	m.combatsStarted.WithLabelValues(mode).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// middleware instruments every request's count and latency, per
// endpoint, per spec §4.8's "emit ... metrics (request count, error
// count, p50/p95 latency, per-endpoint)" requirement.
func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		m.requestsTotal.WithLabelValues(c.Request.Method, path, http.StatusText(status)).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// check is one dependency's health probe result.
type check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthStatus is the /health response body, grounded on cafe1231's
// HealthStatus, generalized to check both C1 and C2 rather than just
// the teacher's single database.
type healthStatus struct {
	Status string           `json:"status"`
	Checks map[string]check `json:"checks"`
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]check{
		"database": probe(s.store.Ping(ctx)),
		"cache":    probe(s.cache.Ping(ctx)),
	}

	overall := "healthy"
	for _, ch := range checks {
		if ch.Status != "healthy" {
			overall = "unhealthy"
			break
		}
	}

	status := http.StatusOK
	if overall != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, healthStatus{Status: overall, Checks: checks})
}

func probe(err error) check {
	if err != nil {
		return check{Status: "unhealthy", Message: err.Error()}
	}
	return check{Status: "healthy"}
}
