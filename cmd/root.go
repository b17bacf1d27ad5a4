package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	cfg "github.com/spacemeshos/go-blockrecon/config"
	"github.com/spacemeshos/go-blockrecon/fragment"
	"github.com/spacemeshos/go-blockrecon/txorder"
)

var config = cfg.DefaultConfig()

// AddCommands adds the config flags to cmd and binds each of them to its
// config key in vip.
func AddCommands(cmd *cobra.Command, vip *viper.Viper) error {
	flags := cmd.PersistentFlags()

	/** ======================== BaseConfig Flags ========================== **/
	flags.StringP("config", "c", config.ConfigFile, "Load configuration from file")
	flags.Bool("metrics", config.CollectMetrics, "serve prometheus metrics")
	flags.String("metrics-address", config.MetricsAddress, "address of the metrics server")

	/** ======================== Recon Flags ========================== **/
	flags.String("salt", config.Recon.Salt,
		"hex encoded 32 byte salt shared by both peers. a random salt is drawn per trial if empty")
	flags.Int("key-size", config.Recon.KeySize, "fragment key size in bytes")
	flags.Int("value-size", config.Recon.ValueSize, "fragment value size in bytes")
	flags.String("codec", string(config.Recon.Codec),
		fmt.Sprintf("fragment codec (%s, %s)", fragment.KindBytes, fragment.KindInts))
	flags.String("sorter", string(config.Recon.Sorter),
		fmt.Sprintf("transaction order (%s, %s, %s)",
			txorder.StrategyCanonical, txorder.StrategyDependency, txorder.StrategyReference))
	flags.Bool("safeguard", config.Recon.Safeguard, "recover fragments the peeling left in the aggregate")
	flags.Int("cells", config.Recon.Cells, "number of aggregate cells")
	flags.Int("hash-count", config.Recon.HashCount, "number of cells every fragment is added to")

	/** ======================== Mempool Flags ========================== **/
	flags.Int("mempool-capacity", config.Mempool.Capacity, "max transactions held by the receiver")

	/** ======================== Sim Flags ========================== **/
	flags.Int("trials", config.Sim.Trials, "number of reconciliation trials")
	flags.Int("workers", config.Sim.Workers, "number of trials running at the same time")
	flags.Int64("seed", config.Sim.Seed, "seed of the first trial")
	flags.Int("block-size", config.Sim.BlockSize, "transactions per block")
	flags.Int("missing", config.Sim.Missing, "block transactions the receiver does not hold")
	flags.Int("extra", config.Sim.Extra, "transactions the receiver holds that are not in the block")
	flags.Int("min-script-size", config.Sim.MinScriptSize, "min transaction script size")
	flags.Int("max-script-size", config.Sim.MaxScriptSize, "max transaction script size")
	flags.Duration("trial-timeout", config.Sim.TrialTimeout, "time limit of a single decode")
	flags.Bool("transmit", config.Sim.Transmit, "serialize the aggregate and decode it without the sender table")

	/** ======================== Logging Flags ========================== **/
	flags.String("log-encoder", config.LOGGING.Encoder, "log encoder (console, json)")
	flags.String("log-level", config.LOGGING.AppLoggerLevel.String(), "log level of the app")
	flags.String("recon-log-level", config.LOGGING.ReconLoggerLevel.String(), "log level of the codec")
	flags.String("mempool-log-level", config.LOGGING.MempoolLoggerLevel.String(), "log level of the mempool")
	flags.String("sim-log-level", config.LOGGING.SimLoggerLevel.String(), "log level of the simulation")

	return bindFlags(flags, vip, map[string]string{
		"config":          "main.config",
		"metrics":         "main.metrics",
		"metrics-address": "main.metrics-address",

		"salt":       "recon.salt",
		"key-size":   "recon.key-size",
		"value-size": "recon.value-size",
		"codec":      "recon.codec",
		"sorter":     "recon.sorter",
		"safeguard":  "recon.safeguard",
		"cells":      "recon.cells",
		"hash-count": "recon.hash-count",

		"mempool-capacity": "mempool.capacity",

		"trials":          "sim.trials",
		"workers":         "sim.workers",
		"seed":            "sim.seed",
		"block-size":      "sim.block-size",
		"missing":         "sim.missing",
		"extra":           "sim.extra",
		"min-script-size": "sim.min-script-size",
		"max-script-size": "sim.max-script-size",
		"trial-timeout":   "sim.trial-timeout",
		"transmit":        "sim.transmit",

		"log-encoder":       "logging.log-encoder",
		"log-level":         "logging.app",
		"recon-log-level":   "logging.recon",
		"mempool-log-level": "logging.mempool",
		"sim-log-level":     "logging.sim",
	})
}

func bindFlags(flags *pflag.FlagSet, vip *viper.Viper, keys map[string]string) error {
	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag %s is not defined", name)
		}
		if err := vip.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
