package sim

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-blockrecon/config"
	"github.com/spacemeshos/go-blockrecon/log"
	"github.com/spacemeshos/go-blockrecon/sim"
)

func testConfig() *config.Config {
	conf := config.DefaultConfig()
	conf.Sim.Trials = 3
	conf.Sim.BlockSize = 30
	conf.Sim.Missing = 2
	conf.Sim.Extra = 2
	conf.Sim.MaxScriptSize = 40
	return &conf
}

func TestRun_WritesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, run(context.Background(), testConfig(), path))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	var report sim.Report
	require.NoError(t, json.Unmarshal(buf, &report))
	require.Equal(t, 3, report.Trials)
	require.Equal(t, 3, report.Succeeded)
}

func TestRun_UnwritableReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.json")
	err := run(context.Background(), testConfig(), path)
	var fatal *log.FatalError
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, "ERR_WRITE_REPORT", fatal.Code)
}

func TestRun_InvalidConfig(t *testing.T) {
	conf := testConfig()
	conf.Sim.Workers = 0
	err := run(context.Background(), conf, "")
	var fatal *log.FatalError
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, "ERR_INVALID_CONFIG", fatal.Code)
}

func TestCmd_Flags(t *testing.T) {
	require.NoError(t, Cmd.PersistentFlags().Set("cells", "2400"))
	require.NoError(t, Cmd.PersistentFlags().Set("log-level", "warn"))
	require.NoError(t, Cmd.PersistentFlags().Set("mempool-log-level", "debug"))
	t.Cleanup(func() {
		require.NoError(t, Cmd.PersistentFlags().Set("cells", "1200"))
		require.NoError(t, Cmd.PersistentFlags().Set("log-level", "info"))
		require.NoError(t, Cmd.PersistentFlags().Set("mempool-log-level", "warn"))
	})
	conf, err := config.Unmarshal(vip)
	require.NoError(t, err)
	require.Equal(t, 2400, conf.Recon.Cells)
	require.Equal(t, "warn", conf.LOGGING.AppLoggerLevel.String())
	require.Equal(t, "debug", conf.LOGGING.MempoolLoggerLevel.String())
	require.Equal(t, config.DefaultConfig().Sim, conf.Sim)
}
