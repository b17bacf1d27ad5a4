package txorder

import (
	"github.com/spacemeshos/go-blockrecon/common/types"
)

// Reference orders transactions by their position in a reference list.
// Transactions missing from the reference are dropped.
type Reference struct {
	order []types.TransactionID
}

// NewReference creates a sorter following the order of ref.
func NewReference(ref []*types.Transaction) *Reference {
	return &Reference{order: types.ToTransactionIDs(ref)}
}

// Sort implements Sorter.
func (r *Reference) Sort(txs []*types.Transaction) ([]*types.Transaction, error) {
	byID := make(map[types.TransactionID]*types.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID()] = tx
	}
	sorted := make([]*types.Transaction, 0, len(txs))
	for _, id := range r.order {
		if tx, ok := byID[id]; ok {
			sorted = append(sorted, tx)
			delete(byID, id)
		}
	}
	return sorted, nil
}
