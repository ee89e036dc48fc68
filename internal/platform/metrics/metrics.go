package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezm_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	// NotificationCreateFailures counts notifications that could not be persisted.
	NotificationCreateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezm_notification_create_failures_total",
			Help: "Total number of notification creation failures",
		},
		[]string{"type"},
	)

	// NotificationsMarkedRead counts read-state transitions by source (single|all).
	NotificationsMarkedRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezm_notifications_marked_read_total",
			Help: "Total number of notifications marked as read",
		},
		[]string{"source"},
	)

	// TriggerRuns counts trigger check executions by check name and result (ok|error).
	TriggerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezm_notification_trigger_runs_total",
			Help: "Total number of notification trigger check runs",
		},
		[]string{"check", "result"},
	)

	// TriggerDuplicatesSkipped counts notifications suppressed by the existence check.
	TriggerDuplicatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezm_notification_trigger_duplicates_skipped_total",
			Help: "Notifications not created because an active one already exists",
		},
		[]string{"type"},
	)

	// ForwardFailures counts failed external deliveries.
	ForwardFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ezm_notification_forward_failures_total",
			Help: "Total number of failed external notification deliveries",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ezm_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Handler exposes the default prometheus registry as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
