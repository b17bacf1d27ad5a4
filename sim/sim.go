// Package sim runs block reconciliation trials between a simulated sender and
// receiver and reports how often the receiver rebuilds the block.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-blockrecon/codec"
	"github.com/spacemeshos/go-blockrecon/common/fixture"
	"github.com/spacemeshos/go-blockrecon/common/types"
	"github.com/spacemeshos/go-blockrecon/fragment"
	"github.com/spacemeshos/go-blockrecon/iblt"
	"github.com/spacemeshos/go-blockrecon/recon"
	"github.com/spacemeshos/go-blockrecon/txorder"
	"github.com/spacemeshos/go-blockrecon/txs"
)

const (
	OutcomeOK         = "ok"
	OutcomePeelFailed = "peel_failed"
	OutcomeTimeout    = "timeout"
	OutcomeMismatch   = "mismatch"
	OutcomeError      = "error"
)

// ErrMismatch is reported when a decoded block differs from the sent one.
var ErrMismatch = errors.New("sim: decoded block differs from the sent block")

// Config of a simulation.
type Config struct {
	Trials    int   `mapstructure:"trials"`
	Workers   int   `mapstructure:"workers"`
	Seed      int64 `mapstructure:"seed"`
	BlockSize int   `mapstructure:"block-size"`
	// Missing block transactions the receiver does not hold.
	Missing int `mapstructure:"missing"`
	// Extra transactions the receiver holds that are not in the block.
	Extra         int           `mapstructure:"extra"`
	MinScriptSize int           `mapstructure:"min-script-size"`
	MaxScriptSize int           `mapstructure:"max-script-size"`
	TrialTimeout  time.Duration `mapstructure:"trial-timeout"`
	// Transmit serializes the aggregate and decodes it on the receiver side,
	// without the sender's fragment table.
	Transmit bool `mapstructure:"transmit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Trials:        100,
		Workers:       4,
		Seed:          1,
		BlockSize:     500,
		Missing:       10,
		Extra:         10,
		MinScriptSize: 16,
		MaxScriptSize: 120,
		TrialTimeout:  10 * time.Second,
	}
}

// Validate returns an error if the simulation can not run with the config.
func (c *Config) Validate() error {
	switch {
	case c.Trials < 1:
		return fmt.Errorf("sim: trials %d", c.Trials)
	case c.Workers < 1:
		return fmt.Errorf("sim: workers %d", c.Workers)
	case c.BlockSize < 0 || c.Missing < 0 || c.Extra < 0:
		return fmt.Errorf("sim: negative block size or difference")
	case c.Missing > c.BlockSize:
		return fmt.Errorf("sim: missing %d exceeds block size %d", c.Missing, c.BlockSize)
	case c.MinScriptSize < 0 || c.MaxScriptSize < c.MinScriptSize || c.MaxScriptSize > types.MaxScriptSize:
		return fmt.Errorf("sim: script size range [%d, %d]", c.MinScriptSize, c.MaxScriptSize)
	case c.TrialTimeout <= 0:
		return fmt.Errorf("sim: trial timeout %v", c.TrialTimeout)
	}
	return nil
}

// Simulator runs trials with one codec configuration.
type Simulator struct {
	logger        *zap.Logger
	reconLogger   *zap.Logger
	mempoolLogger *zap.Logger
	cfg           Config
	recon         recon.Config
	mempool       txs.Config
	salt          []byte
}

// Opt configures a Simulator.
type Opt func(*Simulator)

// WithReconLogger sets the logger passed to the block codec.
func WithReconLogger(logger *zap.Logger) Opt {
	return func(s *Simulator) {
		s.reconLogger = logger
	}
}

// WithMempoolLogger sets the logger passed to the receiver mempool.
func WithMempoolLogger(logger *zap.Logger) Opt {
	return func(s *Simulator) {
		s.mempoolLogger = logger
	}
}

// New creates a simulator. If the recon config carries a salt it is used for
// every trial, otherwise every trial draws its own.
func New(logger *zap.Logger, cfg Config, reconCfg recon.Config, mempoolCfg txs.Config, opts ...Opt) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := reconCfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		logger:        logger,
		reconLogger:   logger,
		mempoolLogger: logger,
		cfg:           cfg,
		recon:         reconCfg,
		mempool:       mempoolCfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if reconCfg.Salt != "" {
		salt, err := reconCfg.SaltBytes()
		if err != nil {
			return nil, err
		}
		s.salt = salt
	}
	return s, nil
}

// Run executes all trials, at most Workers at a time. It returns early only if
// ctx is canceled.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	results := make([]Trial, s.cfg.Trials)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Workers)
	for i := range results {
		seed := s.cfg.Seed + int64(i)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.trial(ctx, i, seed)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	report := newReport(s.cfg, s.recon, results)
	s.logger.Info("simulation finished",
		zap.Int("trials", report.Trials),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("peel failed", report.PeelFailed),
		zap.Float64("success rate", report.SuccessRate),
	)
	return report, nil
}

func (s *Simulator) trial(ctx context.Context, index int, seed int64) Trial {
	start := time.Now()
	result := Trial{Index: index, Seed: seed}
	stats, size, err := s.reconcile(ctx, seed)
	result.Duration = time.Since(start)
	result.AggregateSize = size
	if stats != nil {
		result.Stats = *stats
	}
	result.Outcome = outcome(err)
	if err != nil {
		result.Error = err.Error()
	}
	s.logger.Debug("trial finished",
		zap.Int("trial", index),
		zap.String("outcome", result.Outcome),
		zap.Duration("duration", result.Duration),
		zap.Error(err),
	)
	return result
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, recon.ErrPeelFailed):
		return OutcomePeelFailed
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, ErrMismatch):
		return OutcomeMismatch
	default:
		return OutcomeError
	}
}

// sendOrder returns the block order a sender using strategy produces.
func sendOrder(strategy txorder.Strategy, block []*types.Transaction) ([]*types.Transaction, error) {
	if strategy == txorder.StrategyReference {
		return block, nil
	}
	sorter, err := txorder.New(strategy)
	if err != nil {
		return nil, err
	}
	return sorter.Sort(block)
}

func (s *Simulator) reconcile(ctx context.Context, seed int64) (*recon.ResidualStats, int, error) {
	gen := fixture.NewTxGenerator().
		WithSeed(seed).
		WithScriptSize(s.cfg.MinScriptSize, s.cfg.MaxScriptSize)
	salt := s.salt
	if salt == nil {
		salt = make([]byte, fragment.SaltSize)
		rand.New(rand.NewSource(seed)).Read(salt)
	}

	generated := gen.Block(s.cfg.BlockSize)
	ordered, err := sendOrder(s.recon.Sorter, generated.Txs)
	if err != nil {
		return nil, 0, err
	}
	block := types.NewBlock(generated.Header, ordered...)
	block.Header.TxRoot = block.CalcTxRoot()

	opts := []recon.Opt{recon.WithLogger(s.reconLogger)}
	if s.recon.Sorter == txorder.StrategyReference {
		opts = append(opts, recon.WithSorter(txorder.NewReference(block.Txs)))
	}
	bc, err := recon.New(s.recon, opts...)
	if err != nil {
		return nil, 0, err
	}

	mempool, err := txs.NewMempool(s.mempoolLogger, s.mempool)
	if err != nil {
		return nil, 0, err
	}
	local, _, _ := gen.Local(block.Txs, s.cfg.Missing, s.cfg.Extra)
	for _, tx := range local {
		mempool.Add(tx)
	}
	held := 0
	for _, tx := range block.Txs {
		if mempool.Has(tx.ID()) {
			held++
		}
	}
	s.logger.Debug("receiver mempool filled",
		zap.Int64("seed", seed),
		zap.Int("block txs", len(block.Txs)),
		zap.Int("held", held),
		zap.Int("mempool", mempool.Len()),
	)

	sketch, err := bc.Encode(salt, block)
	if err != nil {
		return nil, 0, err
	}
	agg, table, size, err := s.transmit(sketch)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TrialTimeout)
	defer cancel()
	type decoded struct {
		result *recon.Result
		err    error
	}
	done := make(chan decoded, 1)
	snapshot := mempool.Snapshot()
	go func() {
		result, err := bc.Reconcile(salt, block.Header, agg, table, snapshot)
		done <- decoded{result: result, err: err}
	}()
	var out decoded
	select {
	case <-ctx.Done():
		return nil, size, ctx.Err()
	case out = <-done:
	}
	if out.err != nil {
		return nil, size, out.err
	}
	if out.result.Block.CalcTxRoot() != block.Header.TxRoot {
		return &out.result.Stats, size, fmt.Errorf("%w: block %s", ErrMismatch, block.ID())
	}
	mempool.ApplyBlock(out.result.Block)
	return &out.result.Stats, size, nil
}

// transmit returns the aggregate and table the receiver decodes with, and the
// encoded aggregate size if the aggregate was serialized.
func (s *Simulator) transmit(sketch *recon.Sketch) (recon.Aggregate, *fragment.Table, int, error) {
	if !s.cfg.Transmit {
		// the receiver consumes its own copy and the sketch stays intact
		if tbl, ok := sketch.Aggregate.(*iblt.Table); ok {
			return tbl.Clone(), sketch.Table, 0, nil
		}
		return sketch.Aggregate, sketch.Table, 0, nil
	}
	encodable, ok := sketch.Aggregate.(codec.Encodable)
	if !ok {
		return nil, nil, 0, fmt.Errorf("aggregate %T can not be serialized", sketch.Aggregate)
	}
	buf, err := codec.Encode(encodable)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("encode aggregate: %w", err)
	}
	var received iblt.Table
	if err := codec.DecodeStrict(buf, &received); err != nil {
		return nil, nil, 0, fmt.Errorf("decode aggregate: %w", err)
	}
	return &received, nil, len(buf), nil
}
