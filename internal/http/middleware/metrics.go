// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Metrics instruments HTTP traffic with Prometheus. Labels are method,
// registered route and status code; raw paths are only used for unmatched
// requests. Websocket upgrades on the live route are counted separately as
// a gauge since their latency is the connection lifetime.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// No status label on latency to keep the histogram small.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
				1 << 20, 2 << 20, 5 << 20,
			},
		},
		[]string{"method", "path"},
	)

	liveConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_connections",
			Help: "Open websocket refresh connections.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, liveConns)
}

// LiveConnOpened and LiveConnClosed track websocket clients.
func LiveConnOpened() { liveConns.Inc() }

// LiveConnClosed decrements the live connection gauge.
func LiveConnClosed() { liveConns.Dec() }

// Metrics returns the instrumentation middleware. Routes in longLived
// (websocket endpoints) are counted but not timed.
func Metrics(longLived ...string) gin.HandlerFunc {
	skipTiming := make(map[string]struct{}, len(longLived))
	for _, p := range longLived {
		skipTiming[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := routeOf(c)
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		if _, ok := skipTiming[path]; ok {
			return
		}
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Hijacked connections report -1.
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
