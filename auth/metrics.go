package auth

import "github.com/prometheus/client_golang/prometheus"

// These gauges/counters follow the retrieval pack's
// prometheus.MustRegister-at-package-scope convention. They are shared
// across every AuthManager in the process; a wallet that manages pools for
// several distinct mints will see their combined pool size and throughput
// here rather than per-mint breakdowns, which is an acceptable simplification
// for a client-side core with no scrape endpoint of its own to label by.
var (
	batPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_bat_pool_size",
		Help: "Current number of unspent blind auth tokens held in the pool.",
	})
	batTokensMintedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_bat_tokens_minted_total",
		Help: "Total blind auth tokens successfully minted via top-up.",
	})
	batTokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_bat_tokens_issued_total",
		Help: "Total blind auth tokens handed out via GetBlindAuthToken.",
	})
)

func init() {
	prometheus.MustRegister(batPoolSize, batTokensMintedTotal, batTokensIssuedTotal)
}
