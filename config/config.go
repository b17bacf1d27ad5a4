// Package config contains the blockrecon configuration definitions.
package config

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-blockrecon/recon"
	"github.com/spacemeshos/go-blockrecon/sim"
	"github.com/spacemeshos/go-blockrecon/txs"
)

const defaultMetricsAddress = "127.0.0.1:1010"

// Config defines the top level configuration.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Recon      recon.Config `mapstructure:"recon"`
	Mempool    txs.Config   `mapstructure:"mempool"`
	Sim        sim.Config   `mapstructure:"sim"`
	LOGGING    LoggerConfig `mapstructure:"logging"`
}

// BaseConfig defines the process wide options.
type BaseConfig struct {
	ConfigFile string `mapstructure:"config"`

	CollectMetrics bool   `mapstructure:"metrics"`
	MetricsAddress string `mapstructure:"metrics-address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		Recon:      recon.DefaultConfig(),
		Mempool:    txs.DefaultConfig(),
		Sim:        sim.DefaultConfig(),
		LOGGING:    defaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		MetricsAddress: defaultMetricsAddress,
	}
}

// LoadConfig reads the config file into vip. An empty location is not an error.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		return nil
	}
	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", fileLocation, err)
	}
	return nil
}

// Unmarshal decodes the values collected by vip (config file and bound flags)
// on top of the defaults.
func Unmarshal(vip *viper.Viper) (*Config, error) {
	conf := DefaultConfig()
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	if err := vip.Unmarshal(&conf, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &conf, nil
}

// Validate checks every section of the config.
func (cfg *Config) Validate() error {
	var errs []error
	if err := cfg.Recon.Validate(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Recon.Salt != "" {
		if _, err := cfg.Recon.SaltBytes(); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Mempool.Capacity < 1 {
		errs = append(errs, fmt.Errorf("mempool capacity %d", cfg.Mempool.Capacity))
	}
	if err := cfg.Sim.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
