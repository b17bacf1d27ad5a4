package fragment_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-blockrecon/common/fixture"
	"github.com/spacemeshos/go-blockrecon/common/types"
	"github.com/spacemeshos/go-blockrecon/fragment"
)

func testSalt(seed byte) []byte {
	salt := make([]byte, fragment.SaltSize)
	for i := range salt {
		salt[i] = seed + byte(i)
	}
	return salt
}

func newCodec(tb testing.TB, kind fragment.Kind, keySize, valueSize int) fragment.Codec {
	tb.Helper()
	c, err := fragment.New(kind, testSalt(1), keySize, valueSize)
	require.NoError(tb, err)
	return c
}

func TestNew_Config(t *testing.T) {
	for _, tc := range []struct {
		desc      string
		kind      fragment.Kind
		salt      []byte
		keySize   int
		valueSize int
		err       error
	}{
		{desc: "short salt", kind: fragment.KindBytes, salt: make([]byte, 31), keySize: 8, valueSize: 8, err: fragment.ErrBadSalt},
		{desc: "long salt", kind: fragment.KindBytes, salt: make([]byte, 33), keySize: 8, valueSize: 8, err: fragment.ErrBadSalt},
		{desc: "nil salt", kind: fragment.KindInts, keySize: 8, valueSize: 8, err: fragment.ErrBadSalt},
		{desc: "key too short", kind: fragment.KindBytes, salt: testSalt(0), keySize: 2, valueSize: 8, err: fragment.ErrBadKeySize},
		{desc: "key too long", kind: fragment.KindBytes, salt: testSalt(0), keySize: 35, valueSize: 8, err: fragment.ErrBadKeySize},
		{desc: "zero value", kind: fragment.KindBytes, salt: testSalt(0), keySize: 8, valueSize: 0, err: fragment.ErrBadValueSize},
		{desc: "int key size", kind: fragment.KindInts, salt: testSalt(0), keySize: 10, valueSize: 8, err: fragment.ErrBadKeySize},
		{desc: "int value size", kind: fragment.KindInts, salt: testSalt(0), keySize: 8, valueSize: 12, err: fragment.ErrBadValueSize},
		{desc: "bytes ok", kind: fragment.KindBytes, salt: testSalt(0), keySize: 34, valueSize: 1},
		{desc: "ints ok", kind: fragment.KindInts, salt: testSalt(0), keySize: 8, valueSize: 64},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			c, err := fragment.New(tc.kind, tc.salt, tc.keySize, tc.valueSize)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				require.Nil(t, c)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.keySize, c.KeySize())
			require.Equal(t, tc.valueSize, c.ValueSize())
		})
	}
	_, err := fragment.New("words", testSalt(0), 8, 8)
	require.Error(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	gen := fixture.NewTxGenerator().WithSeed(101)
	for _, tc := range []struct {
		kind      fragment.Kind
		keySize   int
		valueSize int
	}{
		{fragment.KindBytes, 8, 1},
		{fragment.KindBytes, 8, 7},
		{fragment.KindBytes, 3, 32},
		{fragment.KindBytes, 34, 100},
		{fragment.KindBytes, 12, 4096},
		{fragment.KindInts, 8, 8},
		{fragment.KindInts, 8, 64},
	} {
		c := newCodec(t, tc.kind, tc.keySize, tc.valueSize)
		for range 20 {
			tx := gen.Next()
			frags, err := c.Encode(tx, nil)
			require.NoError(t, err)
			txs, err := c.Decode(frags)
			require.NoError(t, err)
			require.Len(t, txs, 1)
			require.Equal(t, tx.ID(), txs[0].ID())
			require.Equal(t, tx.Bytes(), txs[0].Bytes())
		}
	}
}

func TestCodec_FragmentCount(t *testing.T) {
	gen := fixture.NewTxGenerator().WithSeed(102)
	for _, valueSize := range []int{1, 5, 16, 33, 200} {
		c := newCodec(t, fragment.KindBytes, 10, valueSize)
		tx := gen.Next()
		frags, err := c.Encode(tx, nil)
		require.NoError(t, err)
		size := len(tx.Bytes())
		require.Len(t, frags, (size+valueSize-1)/valueSize)
		for i, f := range frags {
			require.Len(t, f.Key, 10)
			require.Len(t, f.Value, valueSize)
			require.EqualValues(t, i, f.Index())
			require.Equal(t, frags[0].Key[:8], f.Key[:8])
		}
		last := frags[len(frags)-1].Value
		tail := size - (len(frags)-1)*valueSize
		require.Equal(t, tx.Bytes()[size-tail:], last[:tail])
		require.Equal(t, make([]byte, valueSize-tail), last[tail:])
	}
}

func TestCodec_Deterministic(t *testing.T) {
	tx := fixture.NewTxGenerator().WithSeed(103).Next()
	a, err := newCodec(t, fragment.KindBytes, 8, 24).Encode(tx, nil)
	require.NoError(t, err)
	b, err := newCodec(t, fragment.KindBytes, 8, 24).Encode(tx, nil)
	require.NoError(t, err)
	require.Equal(t, a, b)

	other, err := fragment.NewByteCodec(testSalt(9), 8, 24)
	require.NoError(t, err)
	c, err := other.Encode(tx, nil)
	require.NoError(t, err)
	require.Len(t, c, len(a))
	require.NotEqual(t, a[0].Key, c[0].Key)
	require.Equal(t, a[0].Value, c[0].Value)
}

func TestCodec_IntsMatchBytes(t *testing.T) {
	gen := fixture.NewTxGenerator().WithSeed(104)
	bc := newCodec(t, fragment.KindBytes, 8, 16)
	ic := newCodec(t, fragment.KindInts, 8, 16)
	for range 10 {
		tx := gen.Next()
		bf, err := bc.Encode(tx, nil)
		require.NoError(t, err)
		ifr, err := ic.Encode(tx, nil)
		require.NoError(t, err)
		require.Equal(t, bf, ifr)

		txs, err := ic.Decode(bf)
		require.NoError(t, err)
		require.Equal(t, tx.ID(), txs[0].ID())
		txs, err = bc.Decode(ifr)
		require.NoError(t, err)
		require.Equal(t, tx.ID(), txs[0].ID())
	}
}

func TestIntCodec_IntegerForm(t *testing.T) {
	tx := fixture.NewTxGenerator().WithSeed(105).Next()
	c, err := fragment.NewIntCodec(testSalt(1), 8, 24)
	require.NoError(t, err)
	ints, err := c.EncodeInts(tx, nil)
	require.NoError(t, err)
	for i, f := range ints {
		require.EqualValues(t, i, f.Index())
		require.Equal(t, ints[0].Prefix(), f.Prefix())
		require.Len(t, f.Words, 3)
	}
	txs, err := c.DecodeInts(ints)
	require.NoError(t, err)
	require.Equal(t, tx.ID(), txs[0].ID())
}

func TestCodec_DecodeManyShuffled(t *testing.T) {
	gen := fixture.NewTxGenerator().WithSeed(106)
	for _, kind := range []fragment.Kind{fragment.KindBytes, fragment.KindInts} {
		c := newCodec(t, kind, 8, 32)
		txs := gen.Generate(25)
		var all []fragment.Fragment
		for _, tx := range txs {
			frags, err := c.Encode(tx, nil)
			require.NoError(t, err)
			all = append(all, frags...)
		}
		rng := rand.New(rand.NewSource(1))
		rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

		decoded, err := c.Decode(all)
		require.NoError(t, err)
		require.ElementsMatch(t, types.ToTransactionIDs(txs), types.ToTransactionIDs(decoded))

		again, err := c.Decode(all)
		require.NoError(t, err)
		require.Equal(t, types.ToTransactionIDs(decoded), types.ToTransactionIDs(again))
	}
}

func TestCodec_DuplicateFragments(t *testing.T) {
	tx := fixture.NewTxGenerator().WithSeed(107).Next()
	c := newCodec(t, fragment.KindBytes, 8, 16)
	frags, err := c.Encode(tx, nil)
	require.NoError(t, err)
	txs, err := c.Decode(append(frags, frags...))
	require.NoError(t, err)
	require.Len(t, txs, 1)

	conflicting := fragment.Fragment{Key: frags[0].Key, Value: bytes.Repeat([]byte{0xff}, 16)}
	_, err = c.Decode(append(frags, conflicting))
	require.ErrorIs(t, err, fragment.ErrReassembly)
	require.ErrorIs(t, err, fragment.ErrConflict)
}

func TestCodec_Gap(t *testing.T) {
	tx := fixture.NewTxGenerator().WithSeed(108).Next()
	for _, kind := range []fragment.Kind{fragment.KindBytes, fragment.KindInts} {
		c := newCodec(t, kind, 8, 8)
		frags, err := c.Encode(tx, nil)
		require.NoError(t, err)
		require.Greater(t, len(frags), 3)

		_, err = c.Decode(frags[1:])
		require.ErrorIs(t, err, fragment.ErrReassembly)
		require.ErrorIs(t, err, fragment.ErrFragmentGap)

		gapped := append([]fragment.Fragment{}, frags[:1]...)
		gapped = append(gapped, frags[2:]...)
		_, err = c.Decode(gapped)
		require.ErrorIs(t, err, fragment.ErrFragmentGap)
	}
}

func TestCodec_Truncated(t *testing.T) {
	tx := fixture.NewTxGenerator().WithSeed(109).Next()
	c := newCodec(t, fragment.KindBytes, 8, 8)
	frags, err := c.Encode(tx, nil)
	require.NoError(t, err)
	_, err = c.Decode(frags[:len(frags)/2])
	require.ErrorIs(t, err, fragment.ErrReassembly)
	require.ErrorIs(t, err, fragment.ErrMalformed)
}

func TestCodec_SaltMismatch(t *testing.T) {
	tx := fixture.NewTxGenerator().WithSeed(110).Next()
	enc, err := fragment.NewByteCodec(testSalt(1), 8, 32)
	require.NoError(t, err)
	dec, err := fragment.NewByteCodec(testSalt(2), 8, 32)
	require.NoError(t, err)
	frags, err := enc.Encode(tx, nil)
	require.NoError(t, err)
	_, err = dec.Decode(frags)
	require.ErrorIs(t, err, fragment.ErrPrefixMismatch)
}

func TestCodec_BadFragment(t *testing.T) {
	c := newCodec(t, fragment.KindBytes, 8, 16)
	_, err := c.Decode([]fragment.Fragment{{Key: make([]byte, 7), Value: make([]byte, 16)}})
	require.ErrorIs(t, err, fragment.ErrBadFragment)
	_, err = c.Decode([]fragment.Fragment{{Key: make([]byte, 8), Value: make([]byte, 15)}})
	require.ErrorIs(t, err, fragment.ErrBadFragment)
}

func TestCodec_TooLarge(t *testing.T) {
	gen := fixture.NewTxGenerator().WithSeed(111).
		WithInputs(1, 1).
		WithOutputs(8, 8).
		WithScriptSize(9000, 9000)
	tx := gen.Next()
	require.Greater(t, len(tx.Bytes()), fragment.MaxFragments)

	c := newCodec(t, fragment.KindBytes, 8, 1)
	_, err := c.Encode(tx, nil)
	require.ErrorIs(t, err, fragment.ErrTooLarge)

	c = newCodec(t, fragment.KindBytes, 8, 2)
	frags, err := c.Encode(tx, nil)
	require.NoError(t, err)
	require.LessOrEqual(t, len(frags), fragment.MaxFragments)
	txs, err := c.Decode(frags)
	require.NoError(t, err)
	require.Equal(t, tx.ID(), txs[0].ID())
}

func TestTable(t *testing.T) {
	gen := fixture.NewTxGenerator().WithSeed(112)
	for _, kind := range []fragment.Kind{fragment.KindBytes, fragment.KindInts} {
		c := newCodec(t, kind, 8, 16)
		tbl := fragment.NewTable()
		txs := gen.Generate(5)
		total := 0
		for _, tx := range txs {
			frags, err := c.Encode(tx, tbl)
			require.NoError(t, err)
			total += len(frags)

			for _, f := range frags {
				group := c.GroupKey(f.Key)
				require.Len(t, group, 8)
				require.Equal(t, []byte{0, 0}, group[6:])
				recorded, ok := tbl.Lookup(group)
				require.True(t, ok)
				require.Equal(t, frags, recorded)
			}
		}
		require.Equal(t, 5, tbl.Len())
		require.Equal(t, total, tbl.Fragments())
		_, ok := tbl.Lookup(make([]byte, 8))
		require.False(t, ok)
	}
}
