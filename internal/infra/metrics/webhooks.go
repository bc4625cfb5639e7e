package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookSignatureFailures,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events by type and outcome (ok/error/duplicate/ignored).",
		},
		[]string{"event_type", "outcome"},
	)

	webhookSignatureFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_signature_failures_total",
			Help: "Webhook deliveries rejected for a missing or invalid signature.",
		},
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func IncWebhookSignatureFailure() {
	webhookSignatureFailures.Inc()
}
