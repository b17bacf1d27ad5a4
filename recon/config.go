package recon

import (
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-blockrecon/fragment"
	"github.com/spacemeshos/go-blockrecon/iblt"
	"github.com/spacemeshos/go-blockrecon/txorder"
)

// ErrConfig is returned for an invalid codec configuration.
var ErrConfig = errors.New("recon: invalid config")

// Config of the block codec. Both peers must use the same config.
type Config struct {
	// Salt is the hex encoded 32 byte salt used by the command line tools.
	// Library callers pass the salt to every Encode and Decode call.
	Salt      string           `mapstructure:"salt"`
	KeySize   int              `mapstructure:"key-size"`
	ValueSize int              `mapstructure:"value-size"`
	Codec     fragment.Kind    `mapstructure:"codec"`
	Sorter    txorder.Strategy `mapstructure:"sorter"`
	Safeguard bool             `mapstructure:"safeguard"`

	// Cells and HashCount are the aggregate capacity. They bound the number of
	// differing fragments a decode can recover.
	Cells     int `mapstructure:"cells"`
	HashCount int `mapstructure:"hash-count"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		KeySize:   8,
		ValueSize: 64,
		Codec:     fragment.KindBytes,
		Sorter:    txorder.StrategyCanonical,
		Safeguard: true,
		Cells:     1200,
		HashCount: 3,
	}
}

// SaltBytes decodes Salt.
func (cfg *Config) SaltBytes() ([]byte, error) {
	salt, err := hex.DecodeString(cfg.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %w", ErrConfig, err)
	}
	if len(salt) != fragment.SaltSize {
		return nil, fmt.Errorf("%w: salt: %w", ErrConfig, fragment.ErrBadSalt)
	}
	return salt, nil
}

// Validate returns an error wrapping ErrConfig if the config can not be used.
func (cfg *Config) Validate() error {
	if _, err := fragment.New(cfg.Codec, make([]byte, fragment.SaltSize), cfg.KeySize, cfg.ValueSize); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	switch cfg.Sorter {
	case txorder.StrategyCanonical, txorder.StrategyDependency, txorder.StrategyReference, "":
	default:
		return fmt.Errorf("%w: %w: %q", ErrConfig, txorder.ErrUnknownStrategy, cfg.Sorter)
	}
	if _, err := iblt.New(cfg.aggregateConfig()); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

func (cfg *Config) aggregateConfig() iblt.Config {
	return iblt.Config{
		Cells:     cfg.Cells,
		HashCount: cfg.HashCount,
		KeySize:   cfg.KeySize,
		ValueSize: cfg.ValueSize,
	}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (cfg *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("key size", cfg.KeySize)
	encoder.AddInt("value size", cfg.ValueSize)
	encoder.AddString("codec", string(cfg.Codec))
	encoder.AddString("sorter", string(cfg.Sorter))
	encoder.AddBool("safeguard", cfg.Safeguard)
	encoder.AddInt("cells", cfg.Cells)
	encoder.AddInt("hash count", cfg.HashCount)
	return nil
}
