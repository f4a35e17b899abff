// Package metrics provides Prometheus instrumentation for the MCP server.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stellarbeat_mcp"

var (
	// ToolCallsTotal counts tool invocations by tool name and outcome.
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total MCP tool invocations by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	// ToolCallDuration observes tool latency including upstream calls.
	ToolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "MCP tool invocation duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tool"},
	)

	// UpstreamRequestsTotal counts upstream GETs by endpoint pattern and result.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total upstream API requests by endpoint pattern and status bucket.",
		},
		[]string{"endpoint", "status"},
	)

	// UpstreamRequestDuration observes upstream latency by endpoint pattern.
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// RateLimitRejectionsTotal counts requests refused by the local limiter.
	RateLimitRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_rejections_total",
		Help:      "Upstream requests refused by the local rate limiter.",
	})

	// OpsHTTPRequestsTotal counts requests to the ops listener.
	OpsHTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ops_http_requests_total",
			Help:      "Requests served by the ops HTTP listener by path and status.",
		},
		[]string{"path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		ToolCallsTotal,
		ToolCallDuration,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		RateLimitRejectionsTotal,
		OpsHTTPRequestsTotal,
	)
}

// ObserveUpstream records one upstream request. A zero status code means
// the request never got a response.
func ObserveUpstream(endpoint string, statusCode int, seconds float64) {
	status := "error"
	if statusCode > 0 {
		status = StatusBucket(statusCode)
	}
	UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// ObserveToolCall records one tool invocation.
func ObserveToolCall(tool, outcome string, seconds float64) {
	ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(seconds)
}

// Middleware returns a gin middleware that records ops listener requests.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		OpsHTTPRequestsTotal.WithLabelValues(
			c.FullPath(), // Route pattern, not the raw path
			StatusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// StatusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func StatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
