package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacewego_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spacewego_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacewego_propagation_runs_total",
			Help: "Propagation runs by force model and outcome.",
		},
		[]string{"force", "outcome"},
	)

	propagationSamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spacewego_propagation_samples_total",
			Help: "Trajectory samples produced.",
		},
	)

	propagationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spacewego_propagation_duration_seconds",
			Help:    "Wall time of a propagation run.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"force"},
	)

	activeStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spacewego_active_streams",
			Help: "Open trajectory websocket streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spacewego_stream_messages_total",
			Help: "Messages written to trajectory streams.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spacewego_stream_bytes_total",
			Help: "Payload bytes written to trajectory streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacewego_stream_errors_total",
			Help: "Trajectory stream errors by type.",
		},
		[]string{"type"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacewego_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		},
		[]string{"path"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(propagationRunsTotal)
	prometheus.MustRegister(propagationSamplesTotal)
	prometheus.MustRegister(propagationDurationSeconds)
	prometheus.MustRegister(activeStreams)
	prometheus.MustRegister(streamMessagesTotal)
	prometheus.MustRegister(streamBytesTotal)
	prometheus.MustRegister(streamErrorsTotal)
	prometheus.MustRegister(rateLimitedTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Propagation outcomes.
const (
	OutcomeComplete  = "complete"
	OutcomeDiverged  = "diverged"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
)

// RecordPropagation records one finished run.
func RecordPropagation(force, outcome string, d time.Duration, samples int) {
	propagationRunsTotal.WithLabelValues(force, outcome).Inc()
	propagationSamplesTotal.Add(float64(samples))
	propagationDurationSeconds.WithLabelValues(force).Observe(d.Seconds())
}

// StreamOpened and StreamClosed track open websocket streams.
func StreamOpened() { activeStreams.Inc() }
func StreamClosed() { activeStreams.Dec() }

// RecordStreamMessage counts one message of n bytes sent on a stream.
func RecordStreamMessage(n int) {
	streamMessagesTotal.Inc()
	streamBytesTotal.Add(float64(n))
}

// IncStreamErrors increments the stream error counter for the given type
// ("rate_limit", "bad_request", "send_error", "upgrade").
func IncStreamErrors(errType string) {
	streamErrorsTotal.WithLabelValues(errType).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(path string) {
	rateLimitedTotal.WithLabelValues(normalizeRoute(path)).Inc()
}

// normalizeRoute maps a gin route template to a metric label. Unmatched
// requests (empty template) and anything outside the known prefixes collapse
// to "other" so scanners cannot blow up label cardinality.
func normalizeRoute(route string) string {
	switch {
	case route == "":
		return "other"
	case route == "/healthz", route == "/readyz", route == "/metrics":
		return route
	case strings.HasPrefix(route, "/api/"):
		return route
	}
	return "other"
}

// Middleware records request count and duration for each request, labelled
// by route template rather than raw path.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := normalizeRoute(c.FullPath())
		code := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(route, c.Request.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
