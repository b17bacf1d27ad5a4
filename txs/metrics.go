package txs

import (
	"github.com/spacemeshos/go-blockrecon/metrics"
)

const namespace = "mempool"

var (
	mempoolSize = metrics.NewGauge(
		"size",
		namespace,
		"Number of transactions in the mempool",
		[]string{},
	).WithLabelValues()

	evictedTxs = metrics.NewCounter(
		"evicted",
		namespace,
		"Number of transactions evicted from the mempool",
		[]string{},
	).WithLabelValues()
)
