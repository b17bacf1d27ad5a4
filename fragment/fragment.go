// Package fragment splits transactions into fixed-size addressable fragments and
// reassembles transactions from fragment groups.
//
// A fragment key is sha256(txid || salt) truncated to keySize-2 bytes followed by
// the big-endian 16-bit fragment index. All fragments of a transaction share the
// key prefix. The fragment value is a valueSize slice of the serialized
// transaction, the last one zero padded.
package fragment

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spacemeshos/go-blockrecon/common/types"
	"github.com/spacemeshos/go-blockrecon/hash"
)

const (
	// SaltSize is the required salt length.
	SaltSize = hash.Size
	// IndexSize is the number of trailing key bytes holding the fragment index.
	IndexSize = 2
	// MaxFragments is the maximum number of fragments per transaction.
	MaxFragments = 1 << (8 * IndexSize)

	minKeySize = IndexSize + 1
	maxKeySize = hash.Size + IndexSize
)

var (
	ErrBadSalt      = errors.New("fragment: salt must be 32 bytes")
	ErrBadKeySize   = errors.New("fragment: invalid key size")
	ErrBadValueSize = errors.New("fragment: invalid value size")
	ErrTooLarge     = errors.New("fragment: transaction requires too many fragments")
	ErrBadFragment  = errors.New("fragment: unexpected key or value size")

	ErrReassembly     = errors.New("fragment: reassembly failed")
	ErrFragmentGap    = errors.New("fragment group has gaps")
	ErrConflict       = errors.New("conflicting values for fragment index")
	ErrMalformed      = errors.New("malformed transaction bytes")
	ErrPrefixMismatch = errors.New("transaction id does not match key prefix")
)

// Kind selects a codec implementation.
type Kind string

const (
	// KindBytes selects ByteCodec.
	KindBytes Kind = "bytes"
	// KindInts selects IntCodec.
	KindInts Kind = "ints"
)

// Fragment is a single (key, value) slice of a transaction.
type Fragment struct {
	Key   []byte
	Value []byte
}

// Index returns the fragment index stored in the key.
func (f Fragment) Index() uint16 {
	return binary.BigEndian.Uint16(f.Key[len(f.Key)-IndexSize:])
}

// String implements fmt.Stringer.
func (f Fragment) String() string {
	return fmt.Sprintf("%s/%d", hex.EncodeToString(f.Key[:len(f.Key)-IndexSize]), f.Index())
}

// Codec converts transactions to fragments and back.
type Codec interface {
	// Encode fragments tx. If table is not nil, the complete fragment set is
	// recorded under the transaction's group key.
	Encode(tx *types.Transaction, table *Table) ([]Fragment, error)
	// Decode groups fragments by key prefix and reassembles one transaction per group.
	// Transactions are returned ordered by key prefix.
	Decode(frags []Fragment) ([]*types.Transaction, error)
	// GroupKey returns the key with the index bytes set to zero.
	GroupKey(key []byte) []byte
	KeySize() int
	ValueSize() int
}

// New creates a codec of the given kind.
func New(kind Kind, salt []byte, keySize, valueSize int) (Codec, error) {
	switch kind {
	case KindBytes, "":
		return NewByteCodec(salt, keySize, valueSize)
	case KindInts:
		return NewIntCodec(salt, keySize, valueSize)
	default:
		return nil, fmt.Errorf("fragment: unknown codec kind %q", kind)
	}
}

type params struct {
	salt      []byte
	keySize   int
	valueSize int
}

func newParams(salt []byte, keySize, valueSize int) (params, error) {
	if len(salt) != SaltSize {
		return params{}, fmt.Errorf("%w: got %d", ErrBadSalt, len(salt))
	}
	if keySize < minKeySize || keySize > maxKeySize {
		return params{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrBadKeySize, keySize, minKeySize, maxKeySize)
	}
	if valueSize < 1 {
		return params{}, fmt.Errorf("%w: %d", ErrBadValueSize, valueSize)
	}
	return params{
		salt:      bytes.Clone(salt),
		keySize:   keySize,
		valueSize: valueSize,
	}, nil
}

func (p params) KeySize() int   { return p.keySize }
func (p params) ValueSize() int { return p.valueSize }

func (p params) prefixLen() int {
	return p.keySize - IndexSize
}

// prefix returns sha256(id || salt) truncated to the key prefix length.
func (p params) prefix(id types.TransactionID) []byte {
	sum := hash.Sum(id[:], p.salt)
	return sum[:p.prefixLen()]
}

func (p params) GroupKey(key []byte) []byte {
	group := make([]byte, p.keySize)
	copy(group, key[:p.prefixLen()])
	return group
}

// count returns the number of fragments for a serialization of size n.
func (p params) count(n int) (int, error) {
	count := (n + p.valueSize - 1) / p.valueSize
	if count > MaxFragments {
		return 0, fmt.Errorf("%w: %d bytes need %d fragments of %d bytes",
			ErrTooLarge, n, count, p.valueSize)
	}
	return count, nil
}

func (p params) checkFragment(f Fragment) error {
	if len(f.Key) != p.keySize || len(f.Value) != p.valueSize {
		return fmt.Errorf("%w: key %d (want %d), value %d (want %d)",
			ErrBadFragment, len(f.Key), p.keySize, len(f.Value), p.valueSize)
	}
	return nil
}

// parse reassembles a transaction from buf and checks that it belongs to the group.
func (p params) parse(prefix, buf []byte) (*types.Transaction, error) {
	tx, err := types.ParseTransaction(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: group %x: %w", ErrReassembly, ErrMalformed, prefix, err)
	}
	if !bytes.Equal(p.prefix(tx.ID()), prefix) {
		return nil, fmt.Errorf("%w: %w: group %x tx %s", ErrReassembly, ErrPrefixMismatch, prefix, tx.ID().ShortString())
	}
	return tx, nil
}
