package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics exposes request counters and latencies in Prometheus format.
type HTTPMetrics struct {
	gatherer        prometheus.Gatherer
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	deadlineTotal   prometheus.Counter
}

// NewHTTPMetrics registers the HTTP collectors on reg.
func NewHTTPMetrics(reg *prometheus.Registry) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		gatherer: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dateai_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dateai_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dateai_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		}),
		deadlineTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dateai_http_request_deadline_exceeded_total",
			Help: "Requests answered with 408 after the request deadline",
		}),
	}
}

// Middleware records every request against its matched route.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// DeadlineExceeded counts a request abandoned at the request deadline.
func (m *HTTPMetrics) DeadlineExceeded() {
	if m == nil {
		return
	}
	m.deadlineTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
