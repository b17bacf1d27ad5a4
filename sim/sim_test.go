package sim

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-blockrecon/fragment"
	"github.com/spacemeshos/go-blockrecon/log/logtest"
	"github.com/spacemeshos/go-blockrecon/recon"
	"github.com/spacemeshos/go-blockrecon/txorder"
	"github.com/spacemeshos/go-blockrecon/txs"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Trials = 8
	cfg.Workers = 3
	cfg.BlockSize = 40
	cfg.Missing = 3
	cfg.Extra = 2
	cfg.MaxScriptSize = 40
	return cfg
}

func reconConfig() recon.Config {
	cfg := recon.DefaultConfig()
	cfg.ValueSize = 32
	cfg.Cells = 900
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	for _, modify := range []func(*Config){
		func(c *Config) { c.Trials = 0 },
		func(c *Config) { c.Workers = 0 },
		func(c *Config) { c.Extra = -1 },
		func(c *Config) { c.Missing = c.BlockSize + 1 },
		func(c *Config) { c.MinScriptSize = c.MaxScriptSize + 1 },
		func(c *Config) { c.TrialTimeout = 0 },
	} {
		cfg := testConfig()
		modify(&cfg)
		require.Error(t, cfg.Validate())
	}
	cfg := testConfig()
	require.NoError(t, cfg.Validate())
}

func TestSimulator_Run(t *testing.T) {
	for _, tc := range []struct {
		desc   string
		modify func(*Config, *recon.Config)
	}{
		{"canonical", func(*Config, *recon.Config) {}},
		{"ints", func(_ *Config, r *recon.Config) { r.Codec = fragment.KindInts }},
		{"dependency", func(_ *Config, r *recon.Config) { r.Sorter = txorder.StrategyDependency }},
		{"reference", func(_ *Config, r *recon.Config) { r.Sorter = txorder.StrategyReference }},
		{"transmit", func(c *Config, _ *recon.Config) { c.Transmit = true }},
		{"fixed salt", func(_ *Config, r *recon.Config) { r.Salt = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff" }},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := testConfig()
			rcfg := reconConfig()
			tc.modify(&cfg, &rcfg)
			s, err := New(logtest.New(t), cfg, rcfg, txs.DefaultConfig())
			require.NoError(t, err)

			report, err := s.Run(context.Background())
			require.NoError(t, err)
			require.Equal(t, cfg.Trials, report.Trials)
			require.Equal(t, cfg.Trials, report.Succeeded, "%+v", report.Results)
			require.InDelta(t, 1.0, report.SuccessRate, 1e-9)
			require.InDelta(t, float64(cfg.Missing), report.MeanAbsentTxs, 1e-9)
			require.InDelta(t, float64(cfg.Extra), report.MeanExtraTxs, 1e-9)
			for i, trial := range report.Results {
				require.Equal(t, i, trial.Index)
				require.Equal(t, OutcomeOK, trial.Outcome)
				if cfg.Transmit {
					require.Positive(t, trial.AggregateSize)
				}
			}
		})
	}
}

func TestSimulator_PeelFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Missing = 20
	cfg.Extra = 20
	rcfg := reconConfig()
	rcfg.Cells = 30
	s, err := New(logtest.New(t), cfg, rcfg, txs.DefaultConfig())
	require.NoError(t, err)

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, cfg.Trials, report.PeelFailed)
	require.Zero(t, report.Succeeded)
	require.Zero(t, report.SuccessRate)
}

func TestSimulator_Canceled(t *testing.T) {
	s, err := New(logtest.New(t), testConfig(), reconConfig(), txs.DefaultConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidConfig(t *testing.T) {
	rcfg := reconConfig()
	rcfg.Salt = "00"
	_, err := New(logtest.New(t), testConfig(), rcfg, txs.DefaultConfig())
	require.ErrorIs(t, err, recon.ErrConfig)

	rcfg = reconConfig()
	rcfg.KeySize = 1
	_, err = New(logtest.New(t), testConfig(), rcfg, txs.DefaultConfig())
	require.ErrorIs(t, err, recon.ErrConfig)
}

func TestWriteReport(t *testing.T) {
	rcfg := reconConfig()
	rcfg.Salt = "secret"
	report := newReport(testConfig(), rcfg, []Trial{
		{Index: 0, Outcome: OutcomeOK, Duration: time.Second, Stats: recon.ResidualStats{AbsentTxs: 2, ExtraTxs: 1}},
		{Index: 1, Outcome: OutcomePeelFailed, Duration: 3 * time.Second},
		{Index: 2, Outcome: OutcomeTimeout},
		{Index: 3, Outcome: OutcomeError, Error: "boom"},
	})
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, 1, report.PeelFailed)
	require.Equal(t, 1, report.TimedOut)
	require.Equal(t, 1, report.Failed)
	require.InDelta(t, 0.25, report.SuccessRate, 1e-9)
	require.Equal(t, time.Second, report.MeanDuration)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteReport(path, report))
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(buf), "secret")

	var decoded Report
	require.NoError(t, json.Unmarshal(buf, &decoded))
	require.Equal(t, report.Trials, decoded.Trials)
	require.Equal(t, report.Results, decoded.Results)
}
