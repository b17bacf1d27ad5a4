package fragment

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/spacemeshos/go-blockrecon/common/types"
)

// ByteCodec is the byte-oriented Codec.
type ByteCodec struct {
	params
}

var _ Codec = (*ByteCodec)(nil)

// NewByteCodec creates a ByteCodec. Salt must be SaltSize bytes.
func NewByteCodec(salt []byte, keySize, valueSize int) (*ByteCodec, error) {
	p, err := newParams(salt, keySize, valueSize)
	if err != nil {
		return nil, err
	}
	return &ByteCodec{params: p}, nil
}

// Encode implements Codec.
func (c *ByteCodec) Encode(tx *types.Transaction, table *Table) ([]Fragment, error) {
	raw := tx.Bytes()
	n, err := c.count(len(raw))
	if err != nil {
		return nil, fmt.Errorf("tx %s: %w", tx.ID().ShortString(), err)
	}
	prefix := c.prefix(tx.ID())
	frags := make([]Fragment, n)
	for i := range frags {
		key := make([]byte, c.keySize)
		copy(key, prefix)
		binary.BigEndian.PutUint16(key[c.prefixLen():], uint16(i))
		value := make([]byte, c.valueSize)
		copy(value, raw[i*c.valueSize:])
		frags[i] = Fragment{Key: key, Value: value}
	}
	if table != nil && n > 0 {
		table.add(c.GroupKey(frags[0].Key), frags)
	}
	return frags, nil
}

// Decode implements Codec.
func (c *ByteCodec) Decode(frags []Fragment) ([]*types.Transaction, error) {
	groups := make(map[string]map[uint16][]byte)
	for _, f := range frags {
		if err := c.checkFragment(f); err != nil {
			return nil, err
		}
		prefix := string(f.Key[:c.prefixLen()])
		group, ok := groups[prefix]
		if !ok {
			group = make(map[uint16][]byte)
			groups[prefix] = group
		}
		idx := f.Index()
		if prev, ok := group[idx]; ok && string(prev) != string(f.Value) {
			return nil, fmt.Errorf("%w: %w: group %x index %d", ErrReassembly, ErrConflict, prefix, idx)
		}
		group[idx] = f.Value
	}

	prefixes := make([]string, 0, len(groups))
	for prefix := range groups {
		prefixes = append(prefixes, prefix)
	}
	slices.Sort(prefixes)

	txs := make([]*types.Transaction, 0, len(groups))
	for _, prefix := range prefixes {
		tx, err := c.assemble([]byte(prefix), groups[prefix])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (c *ByteCodec) assemble(prefix []byte, group map[uint16][]byte) (*types.Transaction, error) {
	var last uint16
	for idx := range group {
		last = max(last, idx)
	}
	if len(group) != int(last)+1 {
		return nil, fmt.Errorf("%w: %w: group %x has %d of %d fragments",
			ErrReassembly, ErrFragmentGap, prefix, len(group), int(last)+1)
	}
	buf := make([]byte, (int(last)+1)*c.valueSize)
	for idx, value := range group {
		copy(buf[int(idx)*c.valueSize:], value)
	}
	return c.parse(prefix, buf)
}
