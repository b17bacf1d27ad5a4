// Package txs keeps the transactions a node already holds. The mempool is the
// local side of block reconciliation.
package txs

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-blockrecon/common/types"
)

// Config of the mempool.
type Config struct {
	// Capacity is the maximal number of transactions. The least recently used
	// transaction is evicted when it is exceeded.
	Capacity int `mapstructure:"capacity"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Capacity: 100_000}
}

// Mempool is a bounded set of transactions indexed by id.
// It is safe for concurrent use.
type Mempool struct {
	logger *zap.Logger
	cache  *lru.Cache[types.TransactionID, *types.Transaction]
}

// NewMempool creates an empty mempool.
func NewMempool(logger *zap.Logger, cfg Config) (*Mempool, error) {
	cache, err := lru.NewWithEvict(cfg.Capacity, func(id types.TransactionID, _ *types.Transaction) {
		evictedTxs.Inc()
		logger.Debug("evicted tx", zap.Stringer("id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("create mempool with capacity %d: %w", cfg.Capacity, err)
	}
	return &Mempool{logger: logger, cache: cache}, nil
}

// Add inserts tx and returns false if it was already present. A present
// transaction is marked as recently used.
func (m *Mempool) Add(tx *types.Transaction) bool {
	if _, ok := m.cache.Get(tx.ID()); ok {
		return false
	}
	m.cache.Add(tx.ID(), tx)
	mempoolSize.Set(float64(m.cache.Len()))
	return true
}

// Has returns true if the transaction is in the mempool.
func (m *Mempool) Has(id types.TransactionID) bool {
	return m.cache.Contains(id)
}

// Remove drops the transaction and returns true if it was present.
func (m *Mempool) Remove(id types.TransactionID) bool {
	removed := m.cache.Remove(id)
	mempoolSize.Set(float64(m.cache.Len()))
	return removed
}

// Len returns the number of transactions.
func (m *Mempool) Len() int {
	return m.cache.Len()
}

// Snapshot returns all transactions, least recently used first.
func (m *Mempool) Snapshot() []*types.Transaction {
	return m.cache.Values()
}

// ApplyBlock removes the transactions included in block and returns how many
// of them were in the mempool.
func (m *Mempool) ApplyBlock(block *types.Block) int {
	removed := 0
	for _, tx := range block.Txs {
		if m.cache.Remove(tx.ID()) {
			removed++
		}
	}
	mempoolSize.Set(float64(m.cache.Len()))
	m.logger.Debug("applied block to mempool",
		zap.Object("block", block),
		zap.Int("removed", removed),
		zap.Int("remaining", m.cache.Len()),
	)
	return removed
}
