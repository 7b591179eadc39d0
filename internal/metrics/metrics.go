package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unipath_deadline_sweep_runs_total",
			Help: "Total number of deadline sweeps by outcome",
		},
		[]string{"outcome"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unipath_deadline_sweep_duration_seconds",
			Help:    "Duration of deadline sweeps in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	SweepFailedUsers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unipath_deadline_sweep_failed_users_total",
			Help: "Users whose deadline notifications could not be written",
		},
	)

	SweepNotificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unipath_deadline_sweep_notifications_created_total",
			Help: "Deadline notifications appended by sweeps",
		},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unipath_notifications_created_total",
			Help: "Notifications written to the ledger",
		},
		[]string{"category", "type"},
	)

	NotifierFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unipath_status_notifier_failures_total",
			Help: "Status-change notifications that failed to persist",
		},
	)

	CleanupRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unipath_notification_cleanup_removed_total",
			Help: "Documents touched by the notification cleanup job",
		},
		[]string{"category"},
	)

	ScheduledJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unipath_scheduled_job_runs_total",
			Help: "Scheduled job executions by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unipath_http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "unipath_http_request_duration_seconds",
			Help: "HTTP request latency by route",
		},
		[]string{"route", "method"},
	)
)
