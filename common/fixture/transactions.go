package fixture

import (
	"math/rand"
	"time"

	"github.com/spacemeshos/go-blockrecon/common/types"
)

// NewTxGenerator with some random parameters.
func NewTxGenerator() *TxGenerator {
	return new(TxGenerator).
		WithSeed(time.Now().UnixNano()).
		WithInputs(1, 3).
		WithOutputs(1, 3).
		WithScriptSize(16, 120)
}

// TxGenerator generates random transactions.
// Transactions are syntactically valid but spend random outputs unless built with Spend.
type TxGenerator struct {
	rng *rand.Rand

	minInputs, maxInputs   int
	minOutputs, maxOutputs int
	minScript, maxScript   int
}

// WithSeed update randomness source.
func (g *TxGenerator) WithSeed(seed int64) *TxGenerator {
	g.rng = rand.New(rand.NewSource(seed))
	return g
}

// WithInputs updates the range for the number of inputs.
func (g *TxGenerator) WithInputs(lo, hi int) *TxGenerator {
	g.minInputs, g.maxInputs = lo, hi
	return g
}

// WithOutputs updates the range for the number of outputs.
func (g *TxGenerator) WithOutputs(lo, hi int) *TxGenerator {
	g.minOutputs, g.maxOutputs = lo, hi
	return g
}

// WithScriptSize updates the range for script sizes, which drive the transaction size.
func (g *TxGenerator) WithScriptSize(lo, hi int) *TxGenerator {
	g.minScript, g.maxScript = lo, hi
	return g
}

// Rand exposes the randomness source of the generator.
func (g *TxGenerator) Rand() *rand.Rand {
	return g.rng
}

func (g *TxGenerator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *TxGenerator) script() []byte {
	b := make([]byte, g.between(g.minScript, g.maxScript))
	g.rng.Read(b)
	return b
}

func (g *TxGenerator) outputs() []types.TxOut {
	outs := make([]types.TxOut, g.between(g.minOutputs, g.maxOutputs))
	for i := range outs {
		outs[i] = types.TxOut{Value: g.rng.Uint64() >> 20, Script: g.script()}
	}
	return outs
}

// Next generates a transaction spending random prior outputs.
func (g *TxGenerator) Next() *types.Transaction {
	ins := make([]types.TxIn, g.between(g.minInputs, g.maxInputs))
	for i := range ins {
		var prev types.TransactionID
		g.rng.Read(prev[:])
		ins[i] = types.TxIn{
			Previous: types.OutPoint{PrevHash: prev, PrevIndex: uint32(g.rng.Intn(8))},
			Script:   g.script(),
			Sequence: g.rng.Uint32(),
		}
	}
	return types.NewTransaction(1, ins, g.outputs(), 0)
}

// Spend generates a transaction spending output idx of parent.
func (g *TxGenerator) Spend(parent *types.Transaction, idx uint32) *types.Transaction {
	ins := []types.TxIn{{
		Previous: types.OutPoint{PrevHash: parent.ID(), PrevIndex: idx},
		Script:   g.script(),
		Sequence: g.rng.Uint32(),
	}}
	return types.NewTransaction(1, ins, g.outputs(), 0)
}

// Coinbase generates a transaction without inputs.
func (g *TxGenerator) Coinbase() *types.Transaction {
	return types.NewTransaction(1, nil, g.outputs(), g.rng.Uint32())
}

// Generate n independent transactions.
func (g *TxGenerator) Generate(n int) []*types.Transaction {
	txs := make([]*types.Transaction, 0, n)
	for range n {
		txs = append(txs, g.Next())
	}
	return txs
}

// Chain generates n transactions where every transaction spends output 0 of the previous one.
func (g *TxGenerator) Chain(n int) []*types.Transaction {
	if n == 0 {
		return nil
	}
	txs := []*types.Transaction{g.Next()}
	for len(txs) < n {
		txs = append(txs, g.Spend(txs[len(txs)-1], 0))
	}
	return txs
}
