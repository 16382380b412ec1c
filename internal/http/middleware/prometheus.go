package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMiddleware holds the HTTP request metrics.
type PrometheusMiddleware struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusMiddleware creates the request metrics and registers them on reg.
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
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
	}

	if err := reg.Register(m.requestCount); err != nil {
		return nil, err
	}
	if err := reg.Register(m.requestDuration); err != nil {
		return nil, err
	}

	return m, nil
}

// Handler returns the fiber middleware handler.
func (m *PrometheusMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Exclude /metrics from being counted
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		// Route pattern (/api/v1/orders/:id) keeps label cardinality bounded.
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		// Label values outlive the request; fiber reuses the buffers behind these strings.
		method := utils.CopyString(c.Method())
		path = utils.CopyString(path)

		m.requestCount.WithLabelValues(
			method,
			path,
			strconv.Itoa(statusOf(c, err)),
		).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}
