// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminder_runs_started_total",
			Help: "Total number of reminder runs started",
		},
	)

	RunsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminder_runs_rejected_total",
			Help: "Total number of trigger calls rejected because a run was in progress",
		},
	)

	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminders delivered, by provider",
		},
		[]string{"provider"},
	)

	RemindersFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Total number of reminder deliveries that exhausted all providers",
		},
		[]string{"error_code"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "reminder_run_duration_seconds",
			Help: "Duration of a full reminder run in seconds",
		},
	)

	BlacklistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminder_blacklist_size",
			Help: "Current number of permanently blacklisted members",
		},
	)

	PendingMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminder_pending_members",
			Help: "Eligible members left unsent by the last run due to rate caps",
		},
	)
)
