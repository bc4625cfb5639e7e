package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		entitlementGrants,
		entitlementRevokes,
		entitlementsExpired,
	)
}

var (
	entitlementGrants = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_grants_total",
			Help: "Content-access grants, labeled by whether the row already existed.",
		},
		[]string{"dedup"},
	)

	entitlementRevokes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "entitlement_revokes_total",
			Help: "Content-access revocations from cancellations and refunds.",
		},
	)

	entitlementsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "entitlements_expired_total",
			Help: "Purchases deactivated by the expiry sweep.",
		},
	)
)

func IncEntitlementGrant(alreadyExisted bool) {
	label := "new"
	if alreadyExisted {
		label = "existing"
	}
	entitlementGrants.WithLabelValues(label).Inc()
}

func AddEntitlementRevokes(n int64) {
	entitlementRevokes.Add(float64(n))
}

func AddEntitlementsExpired(n int64) {
	entitlementsExpired.Add(float64(n))
}
