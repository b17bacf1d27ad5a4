// Package txorder orders a collection of transactions into block order.
package txorder

import (
	"errors"
	"fmt"

	"github.com/spacemeshos/go-blockrecon/common/types"
)

var (
	// ErrNoInputs is returned by the canonical order for a transaction without inputs.
	ErrNoInputs = errors.New("txorder: transaction has no inputs")
	// ErrCycle is returned by the dependency order when transactions spend each other.
	ErrCycle = errors.New("txorder: dependency cycle")
	// ErrUnknownStrategy is returned by New for a strategy it does not implement.
	ErrUnknownStrategy = errors.New("txorder: unknown strategy")
)

// Strategy names a sorter.
type Strategy string

const (
	StrategyCanonical  Strategy = "canonical"
	StrategyReference  Strategy = "reference"
	StrategyDependency Strategy = "dependency"
)

// Sorter returns a new slice with the transactions in block order.
// The input slice is not modified.
type Sorter interface {
	Sort(txs []*types.Transaction) ([]*types.Transaction, error)
}

type options struct {
	reference []*types.Transaction
}

// Opt configures New.
type Opt func(*options)

// WithReference sets the reference order for StrategyReference.
func WithReference(ref []*types.Transaction) Opt {
	return func(o *options) {
		o.reference = ref
	}
}

// New returns the sorter for strategy.
func New(strategy Strategy, opts ...Opt) (Sorter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch strategy {
	case StrategyCanonical, "":
		return Canonical{}, nil
	case StrategyDependency:
		return Dependency{}, nil
	case StrategyReference:
		if o.reference == nil {
			return nil, fmt.Errorf("%w: %s requires a reference order", ErrUnknownStrategy, strategy)
		}
		return NewReference(o.reference), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
