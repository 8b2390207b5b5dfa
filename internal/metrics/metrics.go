// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feiradireta",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "feiradireta",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "feiradireta",
			Name:      "orders_created_total",
			Help:      "Orders successfully placed.",
		},
	)

	OrdersCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "feiradireta",
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled by buyers.",
		},
	)

	CheckoutFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feiradireta",
			Name:      "checkout_failures_total",
			Help:      "Failed checkout attempts by reason.",
		},
		[]string{"reason"},
	)

	CheckoutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "feiradireta",
			Name:      "checkout_duration_seconds",
			Help:      "End-to-end duration of the order placement transaction.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		OrdersCreatedTotal,
		OrdersCancelledTotal,
		CheckoutFailuresTotal,
		CheckoutDuration,
	)
}

// Middleware records request counts and latencies per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
		).Inc()
		HTTPRequestDuration.WithLabelValues(
			c.Request.Method, route,
		).Observe(time.Since(start).Seconds())
	}
}
