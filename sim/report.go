package sim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/natefinch/atomic"

	"github.com/spacemeshos/go-blockrecon/recon"
)

// Trial is the result of one encode/decode round.
type Trial struct {
	Index         int                 `json:"index"`
	Seed          int64               `json:"seed"`
	Outcome       string              `json:"outcome"`
	Error         string              `json:"error,omitempty"`
	Duration      time.Duration       `json:"duration"`
	AggregateSize int                 `json:"aggregate_size,omitempty"`
	Stats         recon.ResidualStats `json:"residual"`
}

// Report summarizes a simulation.
type Report struct {
	Config Config       `json:"config"`
	Recon  recon.Config `json:"recon"`

	Trials      int     `json:"trials"`
	Succeeded   int     `json:"succeeded"`
	PeelFailed  int     `json:"peel_failed"`
	TimedOut    int     `json:"timed_out"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`

	MeanAbsentTxs float64       `json:"mean_absent_txs"`
	MeanExtraTxs  float64       `json:"mean_extra_txs"`
	MeanRecovered float64       `json:"mean_recovered_fragments"`
	MeanDuration  time.Duration `json:"mean_duration"`

	Results []Trial `json:"results"`
}

func newReport(cfg Config, reconCfg recon.Config, results []Trial) *Report {
	r := &Report{
		Config:  cfg,
		Recon:   reconCfg,
		Trials:  len(results),
		Results: results,
	}
	// the salt is a shared secret between peers
	r.Recon.Salt = ""
	var (
		absent, extra, recovered int
		total                    time.Duration
	)
	for _, t := range results {
		total += t.Duration
		switch t.Outcome {
		case OutcomeOK:
			r.Succeeded++
			absent += t.Stats.AbsentTxs
			extra += t.Stats.ExtraTxs
			recovered += t.Stats.Recovered
		case OutcomePeelFailed:
			r.PeelFailed++
		case OutcomeTimeout:
			r.TimedOut++
		default:
			r.Failed++
		}
	}
	if r.Trials > 0 {
		r.SuccessRate = float64(r.Succeeded) / float64(r.Trials)
		r.MeanDuration = total / time.Duration(r.Trials)
	}
	if r.Succeeded > 0 {
		r.MeanAbsentTxs = float64(absent) / float64(r.Succeeded)
		r.MeanExtraTxs = float64(extra) / float64(r.Succeeded)
		r.MeanRecovered = float64(recovered) / float64(r.Succeeded)
	}
	return r
}

// WriteReport writes the report as indented JSON. The file is replaced atomically.
func WriteReport(path string, r *Report) error {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
