package fixture

import (
	"github.com/spacemeshos/go-blockrecon/common/types"
)

// Block builds a block with n random transactions in generation order.
func (g *TxGenerator) Block(n int) *types.Block {
	var header types.BlockHeader
	header.Version = 1
	g.rng.Read(header.PrevBlock[:])
	header.Timestamp = g.rng.Uint64() >> 24
	header.Nonce = g.rng.Uint64()
	block := types.NewBlock(header, g.Generate(n)...)
	block.Header.TxRoot = block.CalcTxRoot()
	return block
}

// Local derives a receiver's local transaction set from block transactions:
// missing randomly chosen block transactions are left out and extra fresh
// transactions are added. The result is shuffled.
func (g *TxGenerator) Local(txs []*types.Transaction, missing, extra int) (local, absent, added []*types.Transaction) {
	perm := g.rng.Perm(len(txs))
	missing = min(missing, len(txs))
	for i, p := range perm {
		if i < missing {
			absent = append(absent, txs[p])
		} else {
			local = append(local, txs[p])
		}
	}
	added = g.Generate(extra)
	local = append(local, added...)
	g.rng.Shuffle(len(local), func(i, j int) { local[i], local[j] = local[j], local[i] })
	return local, absent, added
}
