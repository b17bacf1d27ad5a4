package types

import (
	"bytes"
	"fmt"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"
)

// BlockID is the hash of a block header.
type BlockID Hash32

// String implements fmt.Stringer.
func (id BlockID) String() string {
	return Hash32(id).ShortString()
}

// BlockHeader carries everything about a block except its transactions.
type BlockHeader struct {
	Version   uint32
	PrevBlock BlockID
	TxRoot    Hash32
	Timestamp uint64
	Nonce     uint64
}

// EncodeScale implements scale codec interface.
func (h *BlockHeader) EncodeScale(e *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact32(e, h.Version)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteArray(e, h.PrevBlock[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteArray(e, h.TxRoot[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(e, h.Timestamp)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(e, h.Nonce)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (h *BlockHeader) DecodeScale(d *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact32(d)
		if err != nil {
			return total, err
		}
		total += n
		h.Version = field
	}
	{
		n, err := scale.DecodeByteArray(d, h.PrevBlock[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.DecodeByteArray(d, h.TxRoot[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeCompact64(d)
		if err != nil {
			return total, err
		}
		total += n
		h.Timestamp = field
	}
	{
		field, n, err := scale.DecodeCompact64(d)
		if err != nil {
			return total, err
		}
		total += n
		h.Nonce = field
	}
	return total, nil
}

// ID returns the hash of the encoded header.
func (h *BlockHeader) ID() BlockID {
	var b bytes.Buffer
	if _, err := h.EncodeScale(scale.NewEncoder(&b)); err != nil {
		panic(fmt.Sprintf("encode block header: %v", err))
	}
	return BlockID(CalcHash32(b.Bytes()))
}

// Block is a header followed by an ordered list of transactions.
type Block struct {
	Header BlockHeader
	Txs    []*Transaction
}

// NewBlock creates a block by appending txs to the header in the given order.
func NewBlock(header BlockHeader, txs ...*Transaction) *Block {
	b := &Block{Header: header, Txs: make([]*Transaction, 0, len(txs))}
	for _, tx := range txs {
		b.AddTransaction(tx)
	}
	return b
}

// ID returns the block id.
func (b *Block) ID() BlockID {
	return b.Header.ID()
}

// AddTransaction appends tx to the block.
func (b *Block) AddTransaction(tx *Transaction) {
	b.Txs = append(b.Txs, tx)
}

// TxIDs returns ids of the block transactions in block order.
func (b *Block) TxIDs() []TransactionID {
	return ToTransactionIDs(b.Txs)
}

// CalcTxRoot computes the commitment to the ordered list of transaction ids.
func (b *Block) CalcTxRoot() Hash32 {
	return CalcTxRoot(b.TxIDs())
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (b *Block) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", b.ID().String())
	enc.AddString("prev", b.Header.PrevBlock.String())
	enc.AddInt("txs", len(b.Txs))
	return nil
}

// CalcTxRoot returns the sha256 sum of the concatenated ids, in the order given.
func CalcTxRoot(ids []TransactionID) Hash32 {
	chunks := make([][]byte, 0, len(ids))
	for i := range ids {
		chunks = append(chunks, ids[i][:])
	}
	if len(chunks) == 0 {
		return EmptyHash32
	}
	return CalcHash32(chunks...)
}
