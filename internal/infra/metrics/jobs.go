package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(reconcilerRuns, reconciledPayments)
}

var (
	reconcilerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciler_runs_total",
			Help: "Reconciler sweep outcomes (ok/error).",
		},
		[]string{"outcome"},
	)

	reconciledPayments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_reconciled_total",
			Help: "Stale ready payments finalized by the reconciler.",
		},
	)
)

func IncReconcilerRun(outcome string) {
	reconcilerRuns.WithLabelValues(norm(outcome)).Inc()
}

func IncReconciledPayment() {
	reconciledPayments.Inc()
}
