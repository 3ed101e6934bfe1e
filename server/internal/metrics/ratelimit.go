package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RateLimitChecks counts rate limit checks by type and result.
	RateLimitChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulafleet_ratelimit_checks_total",
			Help: "Total number of rate limit checks",
		},
		[]string{"limit_type", "allowed"},
	)

	// RateLimitBlocks counts rate limit blocks by type.
	RateLimitBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulafleet_ratelimit_blocks_total",
			Help: "Total number of rate limit blocks",
		},
		[]string{"limit_type", "identifier"},
	)

	// RateLimitTokensAvailable tracks available tokens in buckets.
	RateLimitTokensAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nebulafleet_ratelimit_tokens_available",
			Help: "Number of tokens currently available in rate limit bucket",
		},
		[]string{"limit_type", "identifier"},
	)
)

func registerRateLimitMetrics() error {
	for _, m := range []prometheus.Collector{
		RateLimitChecks, RateLimitBlocks, RateLimitTokensAvailable,
	} {
		if err := Registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}
