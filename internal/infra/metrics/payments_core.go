package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		gatewayLatencyMs,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by final status (done/failed/canceled).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of approved payments, labeled by method.",
		},
		[]string{"method"},
	)

	gatewayLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_latency_ms",
			Help:    "Toss API call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"op", "success"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(method string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(method)).Add(float64(amount))
}

func ObserveGatewayLatency(op string, success bool, ms float64) {
	s := "false"
	if success {
		s = "true"
	}
	gatewayLatencyMs.WithLabelValues(norm(op), s).Observe(ms)
}
