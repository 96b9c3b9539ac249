package toolproxy

import (
	"github.com/mbd888/fraudgate/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	upstreamFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "toolproxy",
		Name:      "upstream_fallbacks_total",
		Help:      "Placeholder responses served because an upstream failed, by tool and failure class.",
	}, []string{"tool", "class"})

	flaggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "toolproxy",
		Name:      "flagged_total",
		Help:      "Transactions recorded in the review queue.",
	})
)

func init() {
	prometheus.MustRegister(upstreamFallbacks, flaggedTotal)
}
