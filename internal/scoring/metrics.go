package scoring

import (
	"github.com/mbd888/fraudgate/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	backendAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "scoring",
		Name:      "backend_attempts_total",
		Help:      "Scoring backend attempts by backend and outcome.",
	}, []string{"backend", "outcome"})

	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "scoring",
		Name:      "decisions_total",
		Help:      "Scoring decisions by decision and producing backend.",
	}, []string{"decision", "backend"})

	flagNotifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "scoring",
		Name:      "flag_notifications_total",
		Help:      "Flag notifications sent to the tool proxy by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(backendAttempts, decisionsTotal, flagNotifications)
}
