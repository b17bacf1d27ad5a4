package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"
)

const (
	// TransactionIDSize in bytes.
	TransactionIDSize = Hash32Length

	// MaxScriptSize bounds input and output scripts.
	MaxScriptSize = 10_000
)

// ErrMalformedTx is returned by ParseTransaction for bytes that do not hold a transaction.
var ErrMalformedTx = errors.New("malformed transaction")

// TransactionID is a 32-byte sha256 sum of the serialized transaction, used as an identifier.
type TransactionID Hash32

// Hash32 returns the TransactionID as a Hash32.
func (id TransactionID) Hash32() Hash32 {
	return Hash32(id)
}

// ShortString returns the first 10 characters of the ID, for logging purposes.
func (id TransactionID) ShortString() string {
	return id.Hash32().ShortString()
}

// String implements fmt.Stringer.
func (id TransactionID) String() string {
	return id.Hash32().String()
}

// Bytes returns the TransactionID as a byte slice.
func (id TransactionID) Bytes() []byte {
	return id[:]
}

// Compare returns -1, 0 or 1 comparing ids lexicographically.
func (id TransactionID) Compare(other TransactionID) int {
	return bytes.Compare(id[:], other[:])
}

// EncodeScale implements scale codec interface.
func (id *TransactionID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *TransactionID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// OutPoint references an output of a prior transaction.
type OutPoint struct {
	PrevHash  TransactionID
	PrevIndex uint32
}

// EncodeScale implements scale codec interface.
func (o *OutPoint) EncodeScale(e *scale.Encoder) (total int, err error) {
	{
		n, err := o.PrevHash.EncodeScale(e)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(e, o.PrevIndex)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (o *OutPoint) DecodeScale(d *scale.Decoder) (total int, err error) {
	{
		n, err := o.PrevHash.DecodeScale(d)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeCompact32(d)
		if err != nil {
			return total, err
		}
		total += n
		o.PrevIndex = field
	}
	return total, nil
}

// TxIn spends a prior output.
type TxIn struct {
	Previous OutPoint
	Script   []byte
	Sequence uint32
}

// EncodeScale implements scale codec interface.
func (in *TxIn) EncodeScale(e *scale.Encoder) (total int, err error) {
	{
		n, err := in.Previous.EncodeScale(e)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteSliceWithLimit(e, in.Script, MaxScriptSize)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(e, in.Sequence)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (in *TxIn) DecodeScale(d *scale.Decoder) (total int, err error) {
	{
		n, err := in.Previous.DecodeScale(d)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeByteSliceWithLimit(d, MaxScriptSize)
		if err != nil {
			return total, err
		}
		total += n
		in.Script = field
	}
	{
		field, n, err := scale.DecodeCompact32(d)
		if err != nil {
			return total, err
		}
		total += n
		in.Sequence = field
	}
	return total, nil
}

// TxOut is a spendable output.
type TxOut struct {
	Value  uint64
	Script []byte
}

// EncodeScale implements scale codec interface.
func (out *TxOut) EncodeScale(e *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact64(e, out.Value)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteSliceWithLimit(e, out.Script, MaxScriptSize)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (out *TxOut) DecodeScale(d *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact64(d)
		if err != nil {
			return total, err
		}
		total += n
		out.Value = field
	}
	{
		field, n, err := scale.DecodeByteSliceWithLimit(d, MaxScriptSize)
		if err != nil {
			return total, err
		}
		total += n
		out.Script = field
	}
	return total, nil
}

// Transaction is an immutable transfer spending prior outputs.
// Transactions must be built with NewTransaction or ParseTransaction and must not be
// modified afterwards.
type Transaction struct {
	Version  uint32
	Inputs   []TxIn
	Outputs  []TxOut
	LockTime uint32

	raw []byte
	id  TransactionID
}

// NewTransaction builds a transaction and caches its serialization and id.
func NewTransaction(version uint32, inputs []TxIn, outputs []TxOut, lockTime uint32) *Transaction {
	tx := &Transaction{
		Version:  version,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: lockTime,
	}
	tx.seal()
	return tx
}

// ParseTransaction decodes a transaction from its canonical serialization.
// Bytes following the transaction (e.g. zero padding) are ignored.
func ParseTransaction(buf []byte) (*Transaction, error) {
	tx := &Transaction{}
	n, err := tx.DecodeScale(scale.NewDecoder(bytes.NewReader(buf)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTx, err)
	}
	tx.raw = bytes.Clone(buf[:n])
	tx.id = TransactionID(CalcHash32(tx.raw))
	return tx, nil
}

func (t *Transaction) seal() {
	var b bytes.Buffer
	if _, err := t.EncodeScale(scale.NewEncoder(&b)); err != nil {
		panic(fmt.Sprintf("encode transaction: %v", err))
	}
	t.raw = b.Bytes()
	t.id = TransactionID(CalcHash32(t.raw))
}

// Bytes returns the canonical serialization of the transaction.
// The returned slice must not be modified.
func (t *Transaction) Bytes() []byte {
	if t.raw != nil {
		return t.raw
	}
	var b bytes.Buffer
	if _, err := t.EncodeScale(scale.NewEncoder(&b)); err != nil {
		panic(fmt.Sprintf("encode transaction: %v", err))
	}
	return b.Bytes()
}

// ID returns the content hash of the transaction.
func (t *Transaction) ID() TransactionID {
	if t.raw != nil {
		return t.id
	}
	return TransactionID(CalcHash32(t.Bytes()))
}

// Hash32 returns the TransactionID as a Hash32.
func (t *Transaction) Hash32() Hash32 {
	return t.ID().Hash32()
}

// ShortString returns the first characters of the ID, for logging purposes.
func (t *Transaction) ShortString() string {
	return t.ID().ShortString()
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (t *Transaction) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", t.ID().ShortString())
	enc.AddInt("inputs", len(t.Inputs))
	enc.AddInt("outputs", len(t.Outputs))
	enc.AddInt("size", len(t.Bytes()))
	return nil
}

// EncodeScale implements scale codec interface.
func (t *Transaction) EncodeScale(e *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact32(e, t.Version)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSlice(e, t.Inputs)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSlice(e, t.Outputs)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(e, t.LockTime)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *Transaction) DecodeScale(d *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact32(d)
		if err != nil {
			return total, err
		}
		total += n
		t.Version = field
	}
	{
		field, n, err := scale.DecodeStructSlice[TxIn](d)
		if err != nil {
			return total, err
		}
		total += n
		t.Inputs = field
	}
	{
		field, n, err := scale.DecodeStructSlice[TxOut](d)
		if err != nil {
			return total, err
		}
		total += n
		t.Outputs = field
	}
	{
		field, n, err := scale.DecodeCompact32(d)
		if err != nil {
			return total, err
		}
		total += n
		t.LockTime = field
	}
	return total, nil
}

// ToTransactionIDs returns a slice of TransactionID corresponding to the given transactions.
func ToTransactionIDs(txs []*Transaction) []TransactionID {
	ids := make([]TransactionID, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID())
	}
	return ids
}
