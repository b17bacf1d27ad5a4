package recon

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-blockrecon/metrics"
)

const namespace = "recon"

const (
	outcomeOK           = "ok"
	outcomePeelFailed   = "peel_failed"
	outcomeInconsistent = "inconsistent"
	outcomeError        = "error"
)

var (
	encodeDuration = metrics.NewHistogramWithBuckets(
		"encode_duration_seconds",
		namespace,
		"Duration of block encoding",
		[]string{},
		prometheus.ExponentialBuckets(0.0001, 2, 16),
	).WithLabelValues()

	decodeDuration = metrics.NewHistogramWithBuckets(
		"decode_duration_seconds",
		namespace,
		"Duration of block decoding by outcome",
		[]string{"outcome"},
		prometheus.ExponentialBuckets(0.0001, 2, 16),
	)

	encodedFragments = metrics.NewCounter(
		"encoded_fragments",
		namespace,
		"Number of fragments inserted into aggregates",
		[]string{},
	).WithLabelValues()

	residualTxs = metrics.NewHistogramWithBuckets(
		"residual_txs",
		namespace,
		"Number of transactions recovered from the residual by kind",
		[]string{"kind"},
		prometheus.ExponentialBuckets(1, 2, 12),
	)
	residualAbsent = residualTxs.WithLabelValues("absent")
	residualExtra  = residualTxs.WithLabelValues("extra")

	recoveredFragments = metrics.NewCounter(
		"safeguard_recovered_fragments",
		namespace,
		"Number of absent fragments completed from the fragment table",
		[]string{},
	).WithLabelValues()
)

func decodeOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrPeelFailed):
		return outcomePeelFailed
	case errors.Is(err, ErrInconsistentResidual):
		return outcomeInconsistent
	default:
		return outcomeError
	}
}

func observeDecode(start time.Time, stats *ResidualStats, err error) {
	decodeDuration.WithLabelValues(decodeOutcome(err)).Observe(time.Since(start).Seconds())
	if err == nil && stats != nil {
		residualAbsent.Observe(float64(stats.AbsentTxs))
		residualExtra.Observe(float64(stats.ExtraTxs))
		recoveredFragments.Add(float64(stats.Recovered))
	}
}
