package ledger

import "github.com/prometheus/client_golang/prometheus"

var (
	// pointsReserved sums points debited by successful reservations.
	pointsReserved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_points_reserved_total",
		Help: "Points debited by successful reservations.",
	})

	// pointsRefunded sums points credited back, by reason.
	pointsRefunded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_points_refunded_total",
		Help: "Points credited back to viewers.",
	}, []string{"reason"})

	// reserveRejected counts reservations refused for insufficient funds.
	reserveRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_reserve_rejected_total",
		Help: "Reservations rejected because the balance was too low.",
	})

	// earnEvents counts feed snapshots applied to the ledger.
	earnEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_earn_events_total",
		Help: "External earn snapshots mirrored into the ledger.",
	})

	// multiplierActivations counts perk multiplier activations.
	multiplierActivations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_multiplier_activations_total",
		Help: "Point multipliers activated.",
	})

	// storageFailures counts store errors by operation.
	storageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_storage_failures_total",
		Help: "Ledger store failures by operation.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(pointsReserved, pointsRefunded, reserveRejected, earnEvents, multiplierActivations, storageFailures)
}
