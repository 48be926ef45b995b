package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sporthub_http_requests_total",
			Help: "Total number of HTTP requests processed by the service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sporthub_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sporthub_ws_active_connections",
			Help: "Number of active websocket feed connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sporthub_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	snapshotFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sporthub_snapshot_fetches_total",
			Help: "Total number of full-list snapshot refetches triggered by store change events.",
		},
		[]string{"feed", "result"},
	)
	verificationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sporthub_verification_requests_total",
			Help: "Total number of phone verification provider calls.",
		},
		[]string{"op", "result"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sporthub_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		snapshotFetchesTotal,
		verificationRequestsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

// IncSnapshotFetch records one bridge refetch. feed is "group" or "inbox",
// result is "ok" or "error".
func IncSnapshotFetch(feed, result string) {
	snapshotFetchesTotal.WithLabelValues(feed, result).Inc()
}

// IncVerification records one provider call. op is "send" or "check".
func IncVerification(op, result string) {
	verificationRequestsTotal.WithLabelValues(op, result).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
