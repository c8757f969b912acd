package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~4s
		},
		[]string{"method", "route", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	SlowQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_queries_total",
			Help: "Queries slower than the configured threshold",
		},
		[]string{"operation", "table"},
	)

	// operation: add, remove, reorder, list; result: ok, not_found, invalid, partial, error
	PriorityOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "priority_operations_total",
			Help: "Priority list operations by outcome",
		},
		[]string{"operation", "result"},
	)

	MilestoneToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_toggles_total",
			Help: "Checkpoint toggles by checkpoint and resulting value",
		},
		[]string{"checkpoint", "value"},
	)

	RectificationTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rectification_tasks_created_total",
			Help: "Rectification tasks created",
		},
		[]string{"source"}, // task, flag
	)
)

func RecordHTTPRequestDuration(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func RecordDBQueryDuration(operation, table string, d time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(d.Seconds())
}

func IncrementSlowQuery(operation, table string) {
	SlowQueries.WithLabelValues(operation, table).Inc()
}

func IncrementPriorityOperation(operation, result string) {
	PriorityOperations.WithLabelValues(operation, result).Inc()
}

func IncrementMilestoneToggle(checkpoint string, value bool) {
	v := "false"
	if value {
		v = "true"
	}
	MilestoneToggles.WithLabelValues(checkpoint, v).Inc()
}

func IncrementRectificationTask(source string) {
	RectificationTasks.WithLabelValues(source).Inc()
}
