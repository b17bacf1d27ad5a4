// Package iblt implements an invertible Bloom lookup table over fixed-size keys
// and values.
//
// The table is a keyed multiset: Insert and Delete are exact inverses and may be
// applied in any order. ListEntries peels cells whose multiplicity has been
// reduced to one and reports the keys with a positive multiplicity (inserted
// but not deleted) as absent and the ones with a negative multiplicity as
// extra. Peeling succeeds only if the table holds few enough entries for its
// capacity; this is a probabilistic property of the configured cell and hash
// counts.
//
// Cells are split into HashCount equally sized subtables, every key occupies
// exactly one cell per subtable. Cell indices are derived with double hashing
// over sha256, cell checksums are blake3 sums of the key.
package iblt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/spacemeshos/go-blockrecon/hash"
)

const (
	domainIndex = 0xB1

	// MaxCells bounds the number of cells accepted from configuration and the wire.
	MaxCells = 1 << 24
	// MaxHashCount bounds the number of hash functions.
	MaxHashCount = 16
	// MaxFieldSize bounds key and value sizes.
	MaxFieldSize = 1 << 16
	// MaxTableBytes bounds the memory held by the cells of a table.
	MaxTableBytes = 1 << 28

	// count and checksum
	cellOverhead = 4 + 8
)

var (
	ErrBadConfig = errors.New("iblt: invalid configuration")
	ErrMalformed = errors.New("iblt: malformed table")
)

// Config is the shape of a table.
type Config struct {
	Cells     int `mapstructure:"cells"`
	HashCount int `mapstructure:"hash-count"`
	KeySize   int `mapstructure:"-"`
	ValueSize int `mapstructure:"-"`
}

func (c Config) validate() error {
	switch {
	case c.HashCount < 1 || c.HashCount > MaxHashCount:
		return fmt.Errorf("%w: hash count %d", ErrBadConfig, c.HashCount)
	case c.Cells < c.HashCount || c.Cells > MaxCells:
		return fmt.Errorf("%w: cells %d", ErrBadConfig, c.Cells)
	case c.KeySize < 1 || c.KeySize > MaxFieldSize:
		return fmt.Errorf("%w: key size %d", ErrBadConfig, c.KeySize)
	case c.ValueSize < 1 || c.ValueSize > MaxFieldSize:
		return fmt.Errorf("%w: value size %d", ErrBadConfig, c.ValueSize)
	case c.size() > MaxTableBytes:
		return fmt.Errorf("%w: %d cells of %d/%d bytes exceed %d bytes",
			ErrBadConfig, c.Cells, c.KeySize, c.ValueSize, MaxTableBytes)
	}
	return nil
}

// size returns the number of bytes allocated for the cells of a valid shape.
func (c Config) size() int64 {
	cells := int64((c.Cells + c.HashCount - 1) / c.HashCount * c.HashCount)
	return cells * int64(c.KeySize+c.ValueSize+cellOverhead)
}

// Entries is the result of a successful ListEntries call. Maps are keyed by
// string(key).
type Entries struct {
	Absent map[string][]byte
	Extra  map[string][]byte
}

// Table is an invertible Bloom lookup table.
// It is not safe for concurrent use.
type Table struct {
	keySize   int
	valueSize int
	hashCount int
	subSize   int

	counts []int32
	keys   []byte
	values []byte
	checks []uint64

	peeling bool
	dirty   []int
}

// New creates an empty table. Cells are rounded up to a multiple of HashCount.
func New(cfg Config) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	subSize := (cfg.Cells + cfg.HashCount - 1) / cfg.HashCount
	n := subSize * cfg.HashCount
	return &Table{
		keySize:   cfg.KeySize,
		valueSize: cfg.ValueSize,
		hashCount: cfg.HashCount,
		subSize:   subSize,
		counts:    make([]int32, n),
		keys:      make([]byte, n*cfg.KeySize),
		values:    make([]byte, n*cfg.ValueSize),
		checks:    make([]uint64, n),
	}, nil
}

// Config returns the shape of the table.
func (t *Table) Config() Config {
	return Config{
		Cells:     len(t.counts),
		HashCount: t.hashCount,
		KeySize:   t.keySize,
		ValueSize: t.valueSize,
	}
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	return &Table{
		keySize:   t.keySize,
		valueSize: t.valueSize,
		hashCount: t.hashCount,
		subSize:   t.subSize,
		counts:    slices.Clone(t.counts),
		keys:      slices.Clone(t.keys),
		values:    slices.Clone(t.values),
		checks:    slices.Clone(t.checks),
	}
}

// Equal returns true if both tables have the same shape and cell contents.
func (t *Table) Equal(other *Table) bool {
	return t.Config() == other.Config() &&
		slices.Equal(t.counts, other.counts) &&
		bytes.Equal(t.keys, other.keys) &&
		bytes.Equal(t.values, other.values) &&
		slices.Equal(t.checks, other.checks)
}

// Insert adds (key, value) to the table.
func (t *Table) Insert(key, value []byte) {
	t.apply(key, value, 1)
}

// Delete removes (key, value) from the table. It is the exact inverse of Insert.
func (t *Table) Delete(key, value []byte) {
	t.apply(key, value, -1)
}

// IsEmpty returns true if every cell is zero.
func (t *Table) IsEmpty() bool {
	for i := range t.counts {
		if !t.zero(i) {
			return false
		}
	}
	return true
}

func (t *Table) apply(key, value []byte, dir int32) {
	if len(key) != t.keySize || len(value) != t.valueSize {
		panic(fmt.Sprintf("BUG: iblt entry size %d/%d, table expects %d/%d",
			len(key), len(value), t.keySize, t.valueSize))
	}
	check := hash.Checksum64(key)
	for _, i := range t.indices(key) {
		t.counts[i] += dir
		xorInto(t.key(i), key)
		xorInto(t.value(i), value)
		t.checks[i] ^= check
		if t.peeling {
			t.dirty = append(t.dirty, i)
		}
	}
}

// indices returns one cell index per subtable for key.
func (t *Table) indices(key []byte) []int {
	sum := hash.Sum([]byte{domainIndex}, key)
	h1 := binary.BigEndian.Uint64(sum[0:8])
	h2 := binary.BigEndian.Uint64(sum[8:16])
	if h2 == 0 {
		h2 = 1
	}
	idx := make([]int, t.hashCount)
	for j := range idx {
		idx[j] = j*t.subSize + int((h1+uint64(j)*h2)%uint64(t.subSize))
	}
	return idx
}

func (t *Table) key(i int) []byte {
	return t.keys[i*t.keySize : (i+1)*t.keySize]
}

func (t *Table) value(i int) []byte {
	return t.values[i*t.valueSize : (i+1)*t.valueSize]
}

func (t *Table) zero(i int) bool {
	return t.counts[i] == 0 && t.checks[i] == 0 &&
		isZero(t.key(i)) && isZero(t.value(i))
}

// pure returns true if cell i holds exactly one entry with multiplicity 1 or -1.
func (t *Table) pure(i int) bool {
	if t.counts[i] != 1 && t.counts[i] != -1 {
		return false
	}
	key := t.key(i)
	if hash.Checksum64(key) != t.checks[i] {
		return false
	}
	return slices.Contains(t.indices(key), i)
}

// ListEntries peels the table in place. onAbsent, if not nil, is called for every
// absent entry right after it was removed from the table; it may Insert or Delete
// entries and the peeling picks up the affected cells.
// It returns false if the table could not be peeled completely, in which case
// the table contents are unspecified.
func (t *Table) ListEntries(onAbsent func(key, value []byte)) (*Entries, bool) {
	t.peeling = true
	defer func() {
		t.peeling = false
		t.dirty = nil
	}()
	entries := &Entries{
		Absent: make(map[string][]byte),
		Extra:  make(map[string][]byte),
	}
	queue := make([]int, len(t.counts))
	for i := range queue {
		queue[i] = i
	}
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if !t.pure(i) {
			continue
		}
		key := bytes.Clone(t.key(i))
		value := bytes.Clone(t.value(i))
		if t.counts[i] == 1 {
			t.apply(key, value, -1)
			entries.Absent[string(key)] = value
			if onAbsent != nil {
				onAbsent(key, value)
			}
		} else {
			t.apply(key, value, 1)
			entries.Extra[string(key)] = value
		}
		queue = append(queue, t.dirty...)
		t.dirty = t.dirty[:0]
	}
	if !t.IsEmpty() {
		return nil, false
	}
	return entries, true
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
