// Package sim contains the command that runs reconciliation trials.
package sim

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	cmdp "github.com/spacemeshos/go-blockrecon/cmd"
	"github.com/spacemeshos/go-blockrecon/config"
	"github.com/spacemeshos/go-blockrecon/log"
	"github.com/spacemeshos/go-blockrecon/metrics"
	"github.com/spacemeshos/go-blockrecon/sim"
)

// Logger names.
const (
	AppLogger     = "app"
	ReconLogger   = "recon"
	MempoolLogger = "mempool"
	SimLogger     = "sim"
)

var (
	vip = viper.New()
	out string
)

// Cmd runs a simulation and writes its report.
var Cmd = &cobra.Command{
	Use:   "sim",
	Short: "run block reconciliation trials",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := cmdp.LoadConfig(vip)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return run(ctx, conf, out)
	},
}

// VersionCmd prints the build version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cmdp.VersionString())
	},
}

func init() {
	if err := cmdp.AddCommands(Cmd, vip); err != nil {
		panic(err)
	}
	Cmd.Flags().StringVarP(&out, "out", "o", "", "write the JSON report to this file")
}

func run(ctx context.Context, conf *config.Config, out string) error {
	logger, err := newLogger(conf, AppLogger)
	if err != nil {
		return log.ErrBadFlags(err)
	}
	defer logger.Sync()
	logger.Info("starting simulation",
		zap.String("version", cmdp.VersionString()),
		zap.Object("recon", &conf.Recon),
		zap.Int("trials", conf.Sim.Trials),
		zap.Int("block size", conf.Sim.BlockSize),
		zap.Int("missing", conf.Sim.Missing),
		zap.Int("extra", conf.Sim.Extra),
	)

	if conf.CollectMetrics {
		srv, err := metrics.StartCollectingMetrics(logger, conf.MetricsAddress)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to stop metrics server", zap.Error(err))
			}
		}()
	}

	loggers := make(map[string]*zap.Logger, 3)
	for _, name := range []string{SimLogger, ReconLogger, MempoolLogger} {
		if loggers[name], err = newLogger(conf, name); err != nil {
			return log.ErrBadFlags(err)
		}
	}
	simulator, err := sim.New(loggers[SimLogger], conf.Sim, conf.Recon, conf.Mempool,
		sim.WithReconLogger(loggers[ReconLogger]),
		sim.WithMempoolLogger(loggers[MempoolLogger]),
	)
	if err != nil {
		return log.ErrInvalidConfig(err)
	}
	report, err := simulator.Run(ctx)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Printf("%d/%d trials succeeded (%.2f%%), %d peel failures\n",
			report.Succeeded, report.Trials, 100*report.SuccessRate, report.PeelFailed)
		return nil
	}
	if err := sim.WriteReport(out, report); err != nil {
		return log.ErrWriteReport(out, err)
	}
	logger.Info("report written", zap.String("path", out))
	return nil
}

func newLogger(conf *config.Config, name string) (*zap.Logger, error) {
	level := conf.LOGGING.AppLoggerLevel
	switch name {
	case ReconLogger:
		level = conf.LOGGING.ReconLoggerLevel
	case MempoolLogger:
		level = conf.LOGGING.MempoolLoggerLevel
	case SimLogger:
		level = conf.LOGGING.SimLoggerLevel
	}
	return log.New(name, level.String(), conf.LOGGING.Encoder)
}
