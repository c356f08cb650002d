// Package metrics exposes prometheus counters for the auth service.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Token refresh attempts by result",
		},
		[]string{"result"},
	)

	gateDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_gate_denied_total",
			Help: "Requests rejected by the authorization gate",
		},
		[]string{"reason"},
	)

	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_side_effect_failures_total",
			Help: "Best-effort side effects that failed",
		},
		[]string{"effect"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_http_requests_total",
			Help: "HTTP requests served by the auth service",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func Login(result string)            { loginTotal.WithLabelValues(result).Inc() }
func Refresh(result string)          { refreshTotal.WithLabelValues(result).Inc() }
func GateDenied(reason string)       { gateDeniedTotal.WithLabelValues(reason).Inc() }
func SideEffectFailed(effect string) { sideEffectFailures.WithLabelValues(effect).Inc() }

// Middleware records request count and latency per route template. Errors
// are rendered here so the final status is known.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			httpRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
