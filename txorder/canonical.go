package txorder

import (
	"fmt"
	"slices"

	"github.com/spacemeshos/go-blockrecon/common/types"
)

// Canonical orders transactions by their smallest spent outpoint.
//
// The key of a transaction is the numerically smallest input PrevHash, read as
// an unsigned big-endian 256-bit integer, paired with the smallest PrevIndex
// among the inputs spending that hash. Transactions with equal keys are ordered
// by id. The order depends only on the set of transactions, so two peers
// holding the same set produce the same block.
type Canonical struct{}

type canonicalKey struct {
	hash  types.TransactionID
	index uint32
}

func (k canonicalKey) compare(other canonicalKey) int {
	if c := k.hash.Compare(other.hash); c != 0 {
		return c
	}
	switch {
	case k.index < other.index:
		return -1
	case k.index > other.index:
		return 1
	}
	return 0
}

func keyOf(tx *types.Transaction) (canonicalKey, error) {
	if len(tx.Inputs) == 0 {
		return canonicalKey{}, fmt.Errorf("%w: %s", ErrNoInputs, tx.ShortString())
	}
	key := canonicalKey{
		hash:  tx.Inputs[0].Previous.PrevHash,
		index: tx.Inputs[0].Previous.PrevIndex,
	}
	for _, in := range tx.Inputs[1:] {
		candidate := canonicalKey{hash: in.Previous.PrevHash, index: in.Previous.PrevIndex}
		if candidate.compare(key) < 0 {
			key = candidate
		}
	}
	return key, nil
}

// Sort implements Sorter.
func (Canonical) Sort(txs []*types.Transaction) ([]*types.Transaction, error) {
	type keyed struct {
		key canonicalKey
		id  types.TransactionID
		tx  *types.Transaction
	}
	items := make([]keyed, 0, len(txs))
	for _, tx := range txs {
		key, err := keyOf(tx)
		if err != nil {
			return nil, err
		}
		items = append(items, keyed{key: key, id: tx.ID(), tx: tx})
	}
	slices.SortFunc(items, func(a, b keyed) int {
		if c := a.key.compare(b.key); c != 0 {
			return c
		}
		return a.id.Compare(b.id)
	})
	sorted := make([]*types.Transaction, len(items))
	for i := range items {
		sorted[i] = items[i].tx
	}
	return sorted, nil
}
