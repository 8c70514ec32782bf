package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/documents/duplicate", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/api/documents/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/api/upload", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad request")
	})
	return app, m, reg
}

func TestPrometheusMiddleware_Counts(t *testing.T) {
	app, m, _ := newMetricsApp(t)

	tests := []struct {
		method, target string
		body           string
		labels         []string
	}{
		{"GET", "/api/documents/123", "", []string{"GET", "/api/documents/:id", "200"}},
		{"GET", "/api/documents/duplicate", "", []string{"GET", "/api/documents/duplicate", "404"}},
		{"POST", "/api/upload", "payload", []string{"POST", "/api/upload", "400"}},
		{"GET", "/wp-login.php", "", []string{"GET", unmatchedPath, "404"}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			var req = httptest.NewRequest(tt.method, tt.target, nil)
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			}
			_, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues(tt.labels...)))
		})
	}

	assert.Equal(t, 4, testutil.CollectAndCount(m.requestDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestSize), "only the request with a body is sized")
}

func TestPrometheusMiddleware_ExcludeMetrics(t *testing.T) {
	app, _, reg := newMetricsApp(t)

	_, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.Empty(t, mf.GetMetric(), mf.GetName())
	}
}

func TestPrometheusMiddleware_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
