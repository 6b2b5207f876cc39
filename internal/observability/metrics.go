package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillshare_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records repository call latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillshare_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// NotificationsCreated counts notification records written, by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillshare_notifications_created_total",
		Help: "Total number of notifications created by type",
	}, []string{"type"})

	// NotificationFailures counts notification writes that failed, by type.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillshare_notification_failures_total",
		Help: "Total number of notification writes that failed by type",
	}, []string{"type"})

	// FanOutAudience records how many recipients each fan-out targeted.
	FanOutAudience = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skillshare_fanout_audience_size",
		Help:    "Number of recipients per follower fan-out",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	// LearningMilestones counts milestone crossings by progress value.
	LearningMilestones = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillshare_learning_milestones_total",
		Help: "Learning plan milestone crossings by progress value",
	}, []string{"progress"})

	// OptimisticLockConflicts counts stale versioned writes, by entity.
	OptimisticLockConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillshare_optimistic_lock_conflicts_total",
		Help: "Versioned updates rejected because the record changed underneath",
	}, []string{"entity"})

	// ReconcileRepairs counts records fixed by the reconciler, by kind.
	ReconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillshare_reconcile_repairs_total",
		Help: "Records repaired by the reconciler",
	}, []string{"kind"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
