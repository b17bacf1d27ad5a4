package fragment

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/spacemeshos/go-blockrecon/common/types"
)

const (
	intKeySize = 8
	wordSize   = 8
)

// IntFragment is the integer form of a fragment: a 48-bit prefix and 16-bit index
// packed into Key, and the value as big-endian 64-bit words.
type IntFragment struct {
	Key   uint64
	Words []uint64
}

// Index returns the fragment index.
func (f IntFragment) Index() uint16 {
	return uint16(f.Key)
}

// Prefix returns the key without the index bits.
func (f IntFragment) Prefix() uint64 {
	return f.Key >> (8 * IndexSize)
}

// Fragment converts f to the byte form.
func (f IntFragment) Fragment() Fragment {
	key := make([]byte, intKeySize)
	binary.BigEndian.PutUint64(key, f.Key)
	value := make([]byte, len(f.Words)*wordSize)
	for i, w := range f.Words {
		binary.BigEndian.PutUint64(value[i*wordSize:], w)
	}
	return Fragment{Key: key, Value: value}
}

func toIntFragment(f Fragment) IntFragment {
	words := make([]uint64, len(f.Value)/wordSize)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(f.Value[i*wordSize:])
	}
	return IntFragment{Key: binary.BigEndian.Uint64(f.Key), Words: words}
}

// IntCodec is the integer-oriented Codec. Keys are 8 bytes and values a multiple
// of 8 bytes. It produces the same fragments as ByteCodec with equal parameters.
type IntCodec struct {
	params
	words int
}

var _ Codec = (*IntCodec)(nil)

// NewIntCodec creates an IntCodec.
func NewIntCodec(salt []byte, keySize, valueSize int) (*IntCodec, error) {
	p, err := newParams(salt, keySize, valueSize)
	if err != nil {
		return nil, err
	}
	if keySize != intKeySize {
		return nil, fmt.Errorf("%w: integer codec requires %d byte keys, got %d", ErrBadKeySize, intKeySize, keySize)
	}
	if valueSize%wordSize != 0 {
		return nil, fmt.Errorf("%w: integer codec requires a multiple of %d, got %d", ErrBadValueSize, wordSize, valueSize)
	}
	return &IntCodec{params: p, words: valueSize / wordSize}, nil
}

func (c *IntCodec) intPrefix(id types.TransactionID) uint64 {
	var kb [intKeySize]byte
	copy(kb[:], c.prefix(id))
	return binary.BigEndian.Uint64(kb[:]) >> (8 * IndexSize)
}

func prefixBytes(prefix uint64) []byte {
	var kb [intKeySize]byte
	binary.BigEndian.PutUint64(kb[:], prefix<<(8*IndexSize))
	return kb[:intKeySize-IndexSize]
}

// EncodeInts fragments tx into integer fragments.
func (c *IntCodec) EncodeInts(tx *types.Transaction, table *Table) ([]IntFragment, error) {
	raw := tx.Bytes()
	n, err := c.count(len(raw))
	if err != nil {
		return nil, fmt.Errorf("tx %s: %w", tx.ID().ShortString(), err)
	}
	prefix := c.intPrefix(tx.ID())
	var word [wordSize]byte
	frags := make([]IntFragment, n)
	for i := range frags {
		words := make([]uint64, c.words)
		for j := range words {
			off := (i*c.words + j) * wordSize
			if off < len(raw) {
				clear(word[:])
				copy(word[:], raw[off:])
				words[j] = binary.BigEndian.Uint64(word[:])
			}
		}
		frags[i] = IntFragment{Key: prefix<<(8*IndexSize) | uint64(i), Words: words}
	}
	if table != nil && n > 0 {
		converted := make([]Fragment, n)
		for i, f := range frags {
			converted[i] = f.Fragment()
		}
		table.add(c.GroupKey(converted[0].Key), converted)
	}
	return frags, nil
}

// Encode implements Codec.
func (c *IntCodec) Encode(tx *types.Transaction, table *Table) ([]Fragment, error) {
	ints, err := c.EncodeInts(tx, table)
	if err != nil {
		return nil, err
	}
	frags := make([]Fragment, len(ints))
	for i, f := range ints {
		frags[i] = f.Fragment()
	}
	return frags, nil
}

// Decode implements Codec.
func (c *IntCodec) Decode(frags []Fragment) ([]*types.Transaction, error) {
	ints := make([]IntFragment, 0, len(frags))
	for _, f := range frags {
		if err := c.checkFragment(f); err != nil {
			return nil, err
		}
		ints = append(ints, toIntFragment(f))
	}
	return c.DecodeInts(ints)
}

// DecodeInts reassembles transactions from integer fragments.
func (c *IntCodec) DecodeInts(frags []IntFragment) ([]*types.Transaction, error) {
	groups := make(map[uint64]map[uint16][]uint64)
	for _, f := range frags {
		if len(f.Words) != c.words {
			return nil, fmt.Errorf("%w: %d words (want %d)", ErrBadFragment, len(f.Words), c.words)
		}
		group, ok := groups[f.Prefix()]
		if !ok {
			group = make(map[uint16][]uint64)
			groups[f.Prefix()] = group
		}
		if prev, ok := group[f.Index()]; ok && !slices.Equal(prev, f.Words) {
			return nil, fmt.Errorf("%w: %w: group %012x index %d", ErrReassembly, ErrConflict, f.Prefix(), f.Index())
		}
		group[f.Index()] = f.Words
	}

	prefixes := make([]uint64, 0, len(groups))
	for prefix := range groups {
		prefixes = append(prefixes, prefix)
	}
	slices.Sort(prefixes)

	txs := make([]*types.Transaction, 0, len(groups))
	for _, prefix := range prefixes {
		tx, err := c.assemble(prefix, groups[prefix])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (c *IntCodec) assemble(prefix uint64, group map[uint16][]uint64) (*types.Transaction, error) {
	var last uint16
	for idx := range group {
		last = max(last, idx)
	}
	if len(group) != int(last)+1 {
		return nil, fmt.Errorf("%w: %w: group %012x has %d of %d fragments",
			ErrReassembly, ErrFragmentGap, prefix, len(group), int(last)+1)
	}
	buf := make([]byte, (int(last)+1)*c.valueSize)
	for idx, words := range group {
		off := int(idx) * c.valueSize
		for j, w := range words {
			binary.BigEndian.PutUint64(buf[off+j*wordSize:], w)
		}
	}
	return c.parse(prefixBytes(prefix), buf)
}
