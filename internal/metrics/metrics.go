// Package metrics registers the Prometheus metrics used by the chat gateway.
// Metrics are registered on the default registry at import time and served
// by promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RequestsTotal and RequestDuration.
const (
	OutcomeReply         = "reply"
	OutcomeLocal         = "local"
	OutcomeBadRequest    = "bad_request"
	OutcomeRejected      = "rejected"
	OutcomeNoCredentials = "no_credentials"
	OutcomeExhausted     = "exhausted"
	OutcomeCancelled     = "cancelled"
	OutcomeError         = "error"
)

var (
	// RequestsTotal counts finished chat requests by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgw_requests_total",
			Help: "Total number of chat requests processed.",
		},
		[]string{"outcome"},
	)

	// RequestDuration observes end-to-end chat latency in seconds, including
	// the pauses between failover attempts.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatgw_request_duration_seconds",
			Help:    "End-to-end chat request duration in seconds.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	// UpstreamAttempts counts single upstream calls by provider and outcome
	// ("success", "empty", "error").
	UpstreamAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgw_upstream_attempts_total",
			Help: "Total upstream completion attempts.",
		},
		[]string{"provider", "outcome"},
	)

	// ChainLength observes the failover chain length per routing rule.
	ChainLength = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatgw_chain_length",
			Help:    "Number of credentials in the selected failover chain.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"rule"},
	)

	// Credentials reports how many credentials were discovered per provider
	// on the most recent request.
	Credentials = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatgw_credentials",
			Help: "Credentials discovered per provider on the latest request.",
		},
		[]string{"provider"},
	)
)
