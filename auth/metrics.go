package auth

import "github.com/prometheus/client_golang/prometheus"

var (
	authEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intelliread",
			Name:      "auth_events_total",
			Help:      "Account lifecycle events by operation and outcome kind.",
		},
		[]string{"op", "outcome"},
	)

	notificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intelliread",
			Name:      "notifications_failed_total",
			Help:      "Notifications that could not be delivered.",
		},
		[]string{"kind"},
	)
)

// RegisterMetrics registers the package collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(authEvents, notificationsFailed)
}

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	authEvents.WithLabelValues(op, outcome).Inc()
}
