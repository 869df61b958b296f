package services

import "github.com/prometheus/client_golang/prometheus"

var (
	redemptionsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_submitted_total",
			Help: "Redemptions created, by item type.",
		},
		[]string{"type"},
	)
	redemptionsDecided = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_decided_total",
			Help: "Redemptions moved to a terminal status.",
		},
		[]string{"status"},
	)
	redemptionReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redemption_idempotent_replays_total",
			Help: "Submissions answered from an idempotency record.",
		},
	)
	bookkeepingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_bookkeeping_failures_total",
			Help: "Best-effort follow-ups that failed after a redemption was created.",
		},
		[]string{"step"},
	)
)

func init() {
	prometheus.MustRegister(redemptionsSubmitted, redemptionsDecided, redemptionReplays, bookkeepingFailures)
}
