// Package recon reconciles the transaction set of a block against the local
// transactions of a receiver.
//
// The sender fragments every block transaction and inserts the fragments into
// an aggregate. The receiver deletes the fragments of every transaction it
// already holds, enumerates the residual, reassembles the transactions it was
// missing and the ones it holds in excess and rebuilds the block in canonical
// order.
package recon

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-blockrecon/common/types"
	"github.com/spacemeshos/go-blockrecon/fragment"
	"github.com/spacemeshos/go-blockrecon/iblt"
	"github.com/spacemeshos/go-blockrecon/txorder"
)

var (
	// ErrPeelFailed is returned by Decode when the aggregate residual could not be
	// enumerated. The caller is expected to fall back to fetching the full block.
	ErrPeelFailed = errors.New("recon: residual can not be enumerated")
	// ErrInconsistentResidual is returned when the residual contradicts the local
	// transactions. It indicates a corrupted aggregate or a salt mismatch.
	ErrInconsistentResidual = errors.New("recon: inconsistent residual")
)

// Sketch is the output of Encode.
type Sketch struct {
	// Aggregate holds the fragments of every block transaction and is sent to
	// the receiver.
	Aggregate Aggregate
	// Table maps every block transaction to its fragments. It stays with the
	// encoder and is consulted by the safeguard during a local decode.
	Table *fragment.Table
}

// Result of a successful decode.
type Result struct {
	Block *types.Block
	Stats ResidualStats
}

// Opt modifies BlockCodec.
type Opt func(*BlockCodec)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(c *BlockCodec) {
		c.logger = logger
	}
}

// WithAggregate sets the aggregate factory used by Encode.
// By default an iblt.Table sized by the config is used.
func WithAggregate(factory func() (Aggregate, error)) Opt {
	return func(c *BlockCodec) {
		c.newAggregate = factory
	}
}

// WithSorter overrides the sorter selected by the config.
func WithSorter(sorter txorder.Sorter) Opt {
	return func(c *BlockCodec) {
		c.sorter = sorter
	}
}

// BlockCodec encodes blocks into aggregates and decodes them against local transactions.
// Encode and Decode may be called concurrently for independent sketches.
type BlockCodec struct {
	logger       *zap.Logger
	cfg          Config
	newAggregate func() (Aggregate, error)
	sorter       txorder.Sorter
}

// New creates a block codec.
func New(cfg Config, opts ...Opt) (*BlockCodec, error) {
	c := &BlockCodec{
		logger: zap.NewNop(),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.sorter == nil {
		sorter, err := txorder.New(cfg.Sorter)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		c.sorter = sorter
	}
	if c.newAggregate == nil {
		aggCfg := cfg.aggregateConfig()
		c.newAggregate = func() (Aggregate, error) {
			return iblt.New(aggCfg)
		}
	}
	return c, nil
}

func (c *BlockCodec) codec(salt []byte) (fragment.Codec, error) {
	return fragment.New(c.cfg.Codec, salt, c.cfg.KeySize, c.cfg.ValueSize)
}

// Encode inserts every fragment of every block transaction into a new aggregate.
func (c *BlockCodec) Encode(salt []byte, block *types.Block) (*Sketch, error) {
	start := time.Now()
	fc, err := c.codec(salt)
	if err != nil {
		return nil, err
	}
	agg, err := c.newAggregate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	table := fragment.NewTable()
	for _, tx := range block.Txs {
		frags, err := fc.Encode(tx, table)
		if err != nil {
			return nil, fmt.Errorf("encode tx %s: %w", tx.ShortString(), err)
		}
		for _, f := range frags {
			agg.Insert(f.Key, f.Value)
		}
	}
	encodeDuration.Observe(time.Since(start).Seconds())
	encodedFragments.Add(float64(table.Fragments()))
	c.logger.Debug("encoded block",
		zap.Stringer("block", block.ID()),
		zap.Int("txs", len(block.Txs)),
		zap.Int("fragments", table.Fragments()),
	)
	return &Sketch{Aggregate: agg, Table: table}, nil
}

// Decode rebuilds the block encoded into agg from the local transactions.
// table is the encode-side fragment table; if nil, the safeguard is disabled.
// The aggregate is consumed.
func (c *BlockCodec) Decode(
	salt []byte,
	header types.BlockHeader,
	agg Aggregate,
	table *fragment.Table,
	local []*types.Transaction,
) (*types.Block, error) {
	result, err := c.Reconcile(salt, header, agg, table, local)
	if err != nil {
		return nil, err
	}
	return result.Block, nil
}

// Reconcile is Decode that also reports the residual.
func (c *BlockCodec) Reconcile(
	salt []byte,
	header types.BlockHeader,
	agg Aggregate,
	table *fragment.Table,
	local []*types.Transaction,
) (result *Result, err error) {
	start := time.Now()
	defer func() {
		var stats *ResidualStats
		if result != nil {
			stats = &result.Stats
		}
		observeDecode(start, stats, err)
	}()

	fc, err := c.codec(salt)
	if err != nil {
		return nil, err
	}
	if err := checkShape(agg, fc); err != nil {
		return nil, err
	}
	working := make(map[types.TransactionID]*types.Transaction, len(local))
	for _, tx := range local {
		id := tx.ID()
		if _, ok := working[id]; ok {
			continue
		}
		frags, err := fc.Encode(tx, nil)
		switch {
		case errors.Is(err, fragment.ErrTooLarge):
			// can't be part of a block encoded with the same parameters
			c.logger.Debug("local tx exceeds fragment limit", zap.Stringer("tx", id))
			continue
		case err != nil:
			return nil, fmt.Errorf("encode local tx %s: %w", id.ShortString(), err)
		}
		for _, f := range frags {
			agg.Delete(f.Key, f.Value)
		}
		working[id] = tx
	}

	var (
		safeguard *Safeguard
		listener  func(key, value []byte)
	)
	if c.cfg.Safeguard && table != nil {
		safeguard = NewSafeguard(c.logger, fc, table, agg)
		listener = safeguard.OnAbsent
	}
	entries, ok := agg.ListEntries(listener)
	if !ok {
		c.logger.Debug("residual enumeration failed",
			zap.Int("local", len(working)),
			zap.Stringer("prev", header.PrevBlock),
		)
		return nil, ErrPeelFailed
	}

	residual := NewResidual(fc)
	if err := residual.Add(entries); err != nil {
		return nil, err
	}
	if safeguard != nil {
		c.logger.Debug("safeguard completed partially enumerated txs",
			zap.Int("txs", safeguard.Groups()),
			zap.Int("recovered fragments", safeguard.Recovered()),
		)
		if err := residual.AddRecovered(safeguard.Fragments()); err != nil {
			return nil, err
		}
	}
	absent, extra, err := residual.Transactions()
	if err != nil {
		return nil, err
	}
	for _, tx := range extra {
		if _, ok := working[tx.ID()]; !ok {
			return nil, fmt.Errorf("%w: extra tx %s is not local", ErrInconsistentResidual, tx.ShortString())
		}
		delete(working, tx.ID())
	}
	for _, tx := range absent {
		if _, ok := working[tx.ID()]; ok {
			return nil, fmt.Errorf("%w: absent tx %s is local", ErrInconsistentResidual, tx.ShortString())
		}
		working[tx.ID()] = tx
	}

	txs := make([]*types.Transaction, 0, len(working))
	for _, tx := range working {
		txs = append(txs, tx)
	}
	sorted, err := c.sorter.Sort(txs)
	if err != nil {
		return nil, fmt.Errorf("sort: %w", err)
	}
	stats := residual.Stats(absent, extra)
	block := types.NewBlock(header, sorted...)
	c.logger.Debug("decoded block",
		zap.Stringer("block", block.ID()),
		zap.Int("txs", len(block.Txs)),
		zap.Object("residual", stats),
	)
	return &Result{Block: block, Stats: stats}, nil
}

// checkShape verifies that agg holds entries of the size fc produces, if agg
// reports its shape.
func checkShape(agg Aggregate, fc fragment.Codec) error {
	shaped, ok := agg.(interface{ Config() iblt.Config })
	if !ok {
		return nil
	}
	cfg := shaped.Config()
	if cfg.KeySize != fc.KeySize() || cfg.ValueSize != fc.ValueSize() {
		return fmt.Errorf("%w: aggregate entries are %d/%d bytes, codec produces %d/%d",
			ErrConfig, cfg.KeySize, cfg.ValueSize, fc.KeySize(), fc.ValueSize())
	}
	return nil
}
