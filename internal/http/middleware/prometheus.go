package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedPath labels requests that hit no route, so scanners probing
// random URLs cannot grow the label set.
const unmatchedPath = "unmatched"

// PrometheusMiddleware records per-route request counts, latency and
// request body sizes.
type PrometheusMiddleware struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.HistogramVec
}

// NewPrometheusMiddleware registers the HTTP collectors with reg. A
// registry accepts them once; tests pass a fresh prometheus.NewRegistry().
func NewPrometheusMiddleware(reg prometheus.Registerer) (*PrometheusMiddleware, error) {
	m := &PrometheusMiddleware{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_size_bytes",
				Help: "Declared request body size of requests that carry one.",
				// 1 KiB .. 8 MiB covers everything under the upload limit.
				Buckets: prometheus.ExponentialBuckets(1024, 2, 14),
			},
			[]string{"method", "path"},
		),
	}

	for _, c := range []prometheus.Collector{m.requestCount, m.requestDuration, m.requestSize} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler returns the fiber middleware. /metrics itself is not recorded.
func (m *PrometheusMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		self := c.Route()
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := responseStatus(c, err)
		path := unmatchedPath
		// Still on this middleware's own route means no handler matched.
		if r := c.Route(); r != self && r.Path != "" {
			path = r.Path
		}
		method := c.Method()

		m.requestCount.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
		if n := c.Request().Header.ContentLength(); n > 0 {
			m.requestSize.WithLabelValues(method, path).Observe(float64(n))
		}
		return err
	}
}
