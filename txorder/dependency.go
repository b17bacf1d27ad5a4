package txorder

import (
	"container/heap"
	"fmt"

	"github.com/spacemeshos/go-blockrecon/common/types"
)

// Dependency orders transactions so that every transaction follows the
// transactions of the collection it spends. Among transactions whose parents
// were already emitted the one with the smallest id goes first.
type Dependency struct{}

// Sort implements Sorter.
func (Dependency) Sort(txs []*types.Transaction) ([]*types.Transaction, error) {
	byID := make(map[types.TransactionID]int, len(txs))
	txids := make([]types.TransactionID, len(txs))
	for i, tx := range txs {
		txids[i] = tx.ID()
		byID[txids[i]] = i
	}
	parents := make([][]int, len(txs))
	for i, tx := range txs {
		for _, in := range tx.Inputs {
			if p, ok := byID[in.Previous.PrevHash]; ok && p != i {
				parents[i] = append(parents[i], p)
			}
		}
	}
	order, err := topological(parents, func(i, j int) bool {
		return txids[i].Compare(txids[j]) < 0
	})
	if err != nil {
		return nil, err
	}
	sorted := make([]*types.Transaction, len(order))
	for i, idx := range order {
		sorted[i] = txs[idx]
	}
	return sorted, nil
}

// topological returns node indices so that every node follows its parents.
// Nodes that are ready at the same time are emitted in less order.
func topological(parents [][]int, less func(i, j int) bool) ([]int, error) {
	pending := make([]int, len(parents))
	children := make([][]int, len(parents))
	for i, ps := range parents {
		seen := make(map[int]struct{}, len(ps))
		for _, p := range ps {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			children[p] = append(children[p], i)
			pending[i]++
		}
	}
	ready := &readyQueue{less: less}
	for i := range parents {
		if pending[i] == 0 {
			heap.Push(ready, i)
		}
	}
	order := make([]int, 0, len(parents))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, i)
		for _, c := range children[i] {
			pending[c]--
			if pending[c] == 0 {
				heap.Push(ready, c)
			}
		}
	}
	if len(order) != len(parents) {
		return nil, fmt.Errorf("%w: %d of %d transactions unresolved", ErrCycle, len(parents)-len(order), len(parents))
	}
	return order, nil
}

type readyQueue struct {
	less    func(i, j int) bool
	indices []int
}

func (q *readyQueue) Len() int { return len(q.indices) }

func (q *readyQueue) Less(i, j int) bool { return q.less(q.indices[i], q.indices[j]) }

func (q *readyQueue) Swap(i, j int) { q.indices[i], q.indices[j] = q.indices[j], q.indices[i] }

func (q *readyQueue) Push(x any) { q.indices = append(q.indices, x.(int)) }

func (q *readyQueue) Pop() any {
	old := q.indices
	n := len(old)
	x := old[n-1]
	q.indices = old[:n-1]
	return x
}
