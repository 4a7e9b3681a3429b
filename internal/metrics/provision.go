package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	provisionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailbox_provision_total",
			Help: "Total number of remote mailbox provisioning attempts",
		},
		[]string{"provider", "outcome"},
	)

	provisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailbox_provision_duration_seconds",
			Help:    "Remote mailbox provisioning call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	passwordReveals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_reveals_total",
			Help: "Total number of mailbox password reveal attempts",
		},
		[]string{"outcome"},
	)
)

// ObserveProvision records one remote mailbox provisioning attempt.
func ObserveProvision(provider string, success bool, d time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	provisionTotal.WithLabelValues(provider, outcome).Inc()
	provisionDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// CountPasswordReveal records one reveal attempt. Outcome is "revealed"
// when the token was redeemed and "miss" when it was unknown, expired,
// or already spent.
func CountPasswordReveal(outcome string) {
	passwordReveals.WithLabelValues(outcome).Inc()
}
