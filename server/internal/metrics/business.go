package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HostCertsIssuedTotal counts host certificate issuances, split by
	// whether the call reused an existing cert or signed a new one.
	HostCertsIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulafleet_host_certs_issued_total",
			Help: "Total host certificate issuances, by outcome (reused/signed)",
		},
		[]string{"outcome", "cert_version"},
	)

	// CARotationsTotal counts CA creations, split by reason (manual,
	// scheduled-rotation).
	CARotationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebulafleet_ca_rotations_total",
			Help: "Total CA creations, by trigger",
		},
		[]string{"trigger", "cert_version"},
	)

	// IPPoolUtilization tracks allocated-address fraction per pool.
	IPPoolUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nebulafleet_ip_pool_utilization_ratio",
			Help: "Fraction of a pool's addressable hosts currently assigned",
		},
		[]string{"pool_id"},
	)

	// NodesTotal tracks the current node count by blocked state.
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nebulafleet_nodes_total",
			Help: "Current number of registered nodes",
		},
		[]string{"is_blocked"},
	)
)

func registerBusinessMetrics() error {
	for _, m := range []prometheus.Collector{
		HostCertsIssuedTotal, CARotationsTotal, IPPoolUtilization, NodesTotal,
	} {
		if err := Registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}
