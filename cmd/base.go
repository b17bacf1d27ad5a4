// Package cmd is the base package for the blockrecon executables.
package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	cfg "github.com/spacemeshos/go-blockrecon/config"
	"github.com/spacemeshos/go-blockrecon/log"
)

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	// Branch is the git branch used to build the App. Designed to be overwritten by make.
	Branch string

	// Commit is the git commit used to build the app. Designed to be overwritten by make.
	Commit string
)

// LoadConfig reads the config file named by the config flag, applies the flags
// bound to vip on top of it and validates the result.
func LoadConfig(vip *viper.Viper) (*cfg.Config, error) {
	if err := cfg.LoadConfig(vip.GetString("main.config"), vip); err != nil {
		return nil, log.ErrMalformedConfig(err)
	}
	conf, err := cfg.Unmarshal(vip)
	if err != nil {
		return nil, log.ErrBadFlags(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, log.ErrInvalidConfig(err)
	}
	return conf, nil
}

// VersionString formats the build version.
func VersionString() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s+%s", Version, Commit)
}
