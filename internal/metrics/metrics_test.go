package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/get_ecef_position", "/api/get_ecef_position"},
		{"/api/v1/trajectory", "/api/v1/trajectory"},
		{"/api/v1/trajectory/stream", "/api/v1/trajectory/stream"},

		// Unmatched or unknown routes collapse to "other".
		{"", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			if got := normalizeRoute(tt.route); got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.route, got, tt.want)
			}
		})
	}
}

// TestMiddlewareCardinality verifies that unmatched paths share one label.
func TestMiddlewareCardinality(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "404"))
	for i := 0; i < 25; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scan/"+strings.Repeat("x", i), nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "404"))
	if after-before != 25 {
		t.Errorf("other/GET/404 grew by %v, want 25", after-before)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/healthz", "GET", "200")); got < 1 {
		t.Errorf("healthz counter = %v, want >= 1", got)
	}
}

func TestRecordPropagation(t *testing.T) {
	before := testutil.ToFloat64(propagationRunsTotal.WithLabelValues("twobody", OutcomeComplete))
	samplesBefore := testutil.ToFloat64(propagationSamplesTotal)

	RecordPropagation("twobody", OutcomeComplete, 20*time.Millisecond, 91)

	if got := testutil.ToFloat64(propagationRunsTotal.WithLabelValues("twobody", OutcomeComplete)); got-before != 1 {
		t.Errorf("runs grew by %v, want 1", got-before)
	}
	if got := testutil.ToFloat64(propagationSamplesTotal); got-samplesBefore != 91 {
		t.Errorf("samples grew by %v, want 91", got-samplesBefore)
	}
}

func TestStreamGauge(t *testing.T) {
	base := testutil.ToFloat64(activeStreams)
	StreamOpened()
	StreamOpened()
	StreamClosed()
	if got := testutil.ToFloat64(activeStreams) - base; got != 1 {
		t.Errorf("active streams = %v, want 1", got)
	}
	StreamClosed()
}

func TestStreamMessageCounters(t *testing.T) {
	msgs := testutil.ToFloat64(streamMessagesTotal)
	bytes := testutil.ToFloat64(streamBytesTotal)
	errs := testutil.ToFloat64(streamErrorsTotal.WithLabelValues("send_error"))

	RecordStreamMessage(120)
	RecordStreamMessage(80)
	IncStreamErrors("send_error")

	if got := testutil.ToFloat64(streamMessagesTotal) - msgs; got != 2 {
		t.Errorf("messages grew by %v, want 2", got)
	}
	if got := testutil.ToFloat64(streamBytesTotal) - bytes; got != 200 {
		t.Errorf("bytes grew by %v, want 200", got)
	}
	if got := testutil.ToFloat64(streamErrorsTotal.WithLabelValues("send_error")) - errs; got != 1 {
		t.Errorf("send errors grew by %v, want 1", got)
	}
}
