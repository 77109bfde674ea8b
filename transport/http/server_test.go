package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/curvebox/transport/http/metrics"
)

func TestServerHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := metrics.New()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "curvebox_test_total", Help: "test"})
	p.Registry().MustRegister(counter)
	counter.Inc()

	r := gin.New()
	s := NewServer(":0", r,
		WithMetrics(p),
		WithMetricsOptions(MetricsOption{Enabled: true}),
		WithHealthOptions(HealthOption{Enabled: true}),
	)
	assert.Equal(t, ":0", s.Addr())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "curvebox_test_total 1"))
}

func TestServerDisabledHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	NewServer(":0", r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
