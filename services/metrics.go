package services

import "github.com/prometheus/client_golang/prometheus"

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submissions accepted, by whether they created or updated the day's entry",
		},
		[]string{"kind"},
	)
	streakResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_resets_total",
			Help: "New-day submissions that restarted a running streak",
		},
	)
	notificationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that failed or were dropped",
		},
		[]string{"reason"},
	)
	reconcileCorrectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_corrections_total",
			Help: "Streak records rewritten by the reconcile job",
		},
	)
)

// InitMetrics registers the service counters. Call once from main.go.
func InitMetrics() {
	prometheus.MustRegister(submissionsTotal)
	prometheus.MustRegister(streakResetsTotal)
	prometheus.MustRegister(notificationFailuresTotal)
	prometheus.MustRegister(reconcileCorrectionsTotal)
}
