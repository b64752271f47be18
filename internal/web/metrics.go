// Package web holds the HTTP middleware shared by every handler:
// prometheus metrics, per-IP rate limiting, request logging, and security
// headers.
package web

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerlink_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerlink_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	auditFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerlink_audit_fetches_total",
		Help: "Audit fetch-and-store calls by outcome (stored, duplicate, not_found, unavailable).",
	}, []string{"outcome"})

	trustlineRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerlink_trustline_refreshes_total",
		Help: "Trustline status writes by resulting status.",
	}, []string{"status"})

	horizonRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerlink_horizon_request_duration_seconds",
		Help:    "Horizon round-trip duration in seconds by operation and outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request
// metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		requestsTotal.WithLabelValues(method, path, status).Inc()
		requestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordAuditFetch records the outcome of one audit fetch-and-store call.
func RecordAuditFetch(outcome string) {
	auditFetchesTotal.WithLabelValues(outcome).Inc()
}

// RecordTrustlineRefresh records the status written by one trustline
// upsert.
func RecordTrustlineRefresh(status string) {
	trustlineRefreshesTotal.WithLabelValues(status).Inc()
}

// ObserveHorizonCall records one Horizon round trip.
func ObserveHorizonCall(op string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	horizonRequestDuration.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}
