package recon_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spacemeshos/go-blockrecon/fragment"
	"github.com/spacemeshos/go-blockrecon/iblt"
	"github.com/spacemeshos/go-blockrecon/log/logtest"
	"github.com/spacemeshos/go-blockrecon/recon"
)

func TestSafeguard_CompletesGroupOnce(t *testing.T) {
	gen := newGenerator(20)
	tx := gen.Next()
	fc, err := fragment.New(fragment.KindBytes, testSalt(20), 8, 16)
	require.NoError(t, err)
	table := fragment.NewTable()
	frags, err := fc.Encode(tx, table)
	require.NoError(t, err)
	require.Greater(t, len(frags), 3)

	ctrl := gomock.NewController(t)
	agg := recon.NewMockAggregate(ctrl)
	trigger := frags[2]
	for i, f := range frags {
		if i == 2 {
			continue
		}
		agg.EXPECT().Delete(f.Key, f.Value)
	}

	sg := recon.NewSafeguard(logtest.New(t), fc, table, agg)
	sg.OnAbsent(trigger.Key, trigger.Value)
	// further fragments of the same transaction are ignored
	sg.OnAbsent(frags[0].Key, frags[0].Value)

	require.Equal(t, frags, sg.Fragments())
	require.Equal(t, 1, sg.Groups())
	require.Equal(t, len(frags)-1, sg.Recovered())

	decoded, err := fc.Decode(sg.Fragments())
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, tx.ID(), decoded[0].ID())
}

func TestSafeguard_UnknownGroup(t *testing.T) {
	fc, err := fragment.New(fragment.KindBytes, testSalt(21), 8, 16)
	require.NoError(t, err)
	ctrl := gomock.NewController(t)
	agg := recon.NewMockAggregate(ctrl)

	sg := recon.NewSafeguard(logtest.New(t), fc, fragment.NewTable(), agg)
	sg.OnAbsent(make([]byte, 8), make([]byte, 16))
	require.Empty(t, sg.Fragments())
	require.Zero(t, sg.Groups())
}

// With the safeguard installed as the listener of a real table, every absent
// transaction is recovered whole, and fragments the table delivers only
// through the safeguard are still accounted for.
func TestSafeguard_WithTable(t *testing.T) {
	gen := newGenerator(22)
	txs := gen.Generate(12)
	fc, err := fragment.New(fragment.KindBytes, testSalt(22), 8, 24)
	require.NoError(t, err)
	agg, err := iblt.New(iblt.Config{Cells: 600, HashCount: 3, KeySize: 8, ValueSize: 24})
	require.NoError(t, err)

	table := fragment.NewTable()
	for _, tx := range txs {
		frags, err := fc.Encode(tx, table)
		require.NoError(t, err)
		for _, f := range frags {
			agg.Insert(f.Key, f.Value)
		}
	}
	for _, tx := range txs[4:] {
		frags, err := fc.Encode(tx, nil)
		require.NoError(t, err)
		for _, f := range frags {
			agg.Delete(f.Key, f.Value)
		}
	}

	sg := recon.NewSafeguard(logtest.New(t), fc, table, agg)
	entries, ok := agg.ListEntries(sg.OnAbsent)
	require.True(t, ok)
	require.Len(t, entries.Absent, 4)
	require.Empty(t, entries.Extra)
	require.Equal(t, 4, sg.Groups())

	residual := recon.NewResidual(fc)
	require.NoError(t, residual.Add(entries))
	require.NoError(t, residual.AddRecovered(sg.Fragments()))
	absent, extra, err := residual.Transactions()
	require.NoError(t, err)
	require.Empty(t, extra)
	require.Len(t, absent, 4)
	ids := map[string]struct{}{}
	for _, tx := range absent {
		ids[tx.ID().String()] = struct{}{}
	}
	for _, tx := range txs[:4] {
		require.Contains(t, ids, tx.ID().String())
	}
	stats := residual.Stats(absent, extra)
	require.Equal(t, 4, stats.AbsentTxs)
	require.Equal(t, sg.Recovered(), stats.Recovered)
}
