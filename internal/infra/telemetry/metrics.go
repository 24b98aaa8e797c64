package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the prometheus collectors for the credential core.
type Metrics struct {
	ResetInitiations *prometheus.CounterVec
	ResetCompletions *prometheus.CounterVec
	TokensPurged     prometheus.Counter
	SessionsRevoked  prometheus.Counter
}

// NewMetrics registers and returns the credential metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ResetInitiations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credentials",
			Name:      "reset_initiations_total",
			Help:      "Password reset initiation attempts by outcome",
		}, []string{"outcome"}),
		ResetCompletions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credentials",
			Name:      "reset_completions_total",
			Help:      "Password reset completion attempts by outcome",
		}, []string{"outcome"}),
		TokensPurged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "credentials",
			Name:      "reset_tokens_purged_total",
			Help:      "Expired or used reset tokens removed by maintenance",
		}),
		SessionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "credentials",
			Name:      "sessions_revoked_total",
			Help:      "Sessions revoked after credential changes",
		}),
	}
}
