package recon

import (
	"github.com/spacemeshos/go-blockrecon/iblt"
)

//go:generate mockgen -typed -package=recon -destination=./mocks.go -source=./interface.go

// Aggregate is an invertible keyed multiset of fixed-size fragments.
// Delete must exactly undo a prior Insert of the same pair.
type Aggregate interface {
	Insert(key, value []byte)
	Delete(key, value []byte)
	// ListEntries enumerates the residual. onAbsent is invoked for every absent
	// entry while the enumeration is in progress. It returns false if the residual
	// could not be enumerated completely.
	ListEntries(onAbsent func(key, value []byte)) (*iblt.Entries, bool)
}
