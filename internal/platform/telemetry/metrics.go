// Package telemetry exposes HTTP and database pool metrics in the Prometheus
// exposition format.
package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PoolGauges reports database pool occupancy at scrape time.
type PoolGauges func() (total, idle, acquired int32)

// Metrics owns a private registry so tests and multiple servers never
// collide on the default one.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

var requestLabels = []string{"method", "route", "status_code"}

func NewMetrics(pool PoolGauges) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests.",
		}, requestLabels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0},
		}, requestLabels),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.inFlight)

	if pool != nil {
		m.registry.MustRegister(
			poolGauge("db_pool_connections", "Open database connections.", func() int32 { t, _, _ := pool(); return t }),
			poolGauge("db_pool_idle_connections", "Idle database connections.", func() int32 { _, i, _ := pool(); return i }),
			poolGauge("db_pool_acquired_connections", "Database connections in use.", func() int32 { _, _, a := pool(); return a }),
		)
	}
	return m
}

func poolGauge(name, help string, read func() int32) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
		return float64(read())
	})
}

// Middleware records request count and latency by method, route pattern
// and final status. The route is echo's pattern, so ids do not explode the
// label space.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			labels := prometheus.Labels{
				"method":      c.Request().Method,
				"route":       route,
				"status_code": strconv.Itoa(status),
			}
			m.requests.With(labels).Inc()
			m.duration.With(labels).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry at /metrics.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
