package recon

import (
	"bytes"
	"fmt"
	"slices"

	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-blockrecon/common/types"
	"github.com/spacemeshos/go-blockrecon/fragment"
	"github.com/spacemeshos/go-blockrecon/iblt"
)

// ResidualStats describes the difference recovered by one decode.
type ResidualStats struct {
	AbsentFragments int
	ExtraFragments  int
	AbsentTxs       int
	ExtraTxs        int
	// Recovered is the number of absent fragments completed by the safeguard.
	Recovered int
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s ResidualStats) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("absent fragments", s.AbsentFragments)
	encoder.AddInt("extra fragments", s.ExtraFragments)
	encoder.AddInt("absent txs", s.AbsentTxs)
	encoder.AddInt("extra txs", s.ExtraTxs)
	encoder.AddInt("recovered", s.Recovered)
	return nil
}

// Residual accumulates the absent and extra fragments of one decode and
// reassembles them into transactions.
type Residual struct {
	codec     fragment.Codec
	absent    map[string][]byte
	extra     map[string][]byte
	recovered int
}

// NewResidual creates an empty residual.
func NewResidual(codec fragment.Codec) *Residual {
	return &Residual{
		codec:  codec,
		absent: make(map[string][]byte),
		extra:  make(map[string][]byte),
	}
}

// Add merges the result of an aggregate enumeration.
func (r *Residual) Add(entries *iblt.Entries) error {
	for key, value := range entries.Absent {
		if err := put(r.absent, key, value); err != nil {
			return err
		}
	}
	for key, value := range entries.Extra {
		if err := put(r.extra, key, value); err != nil {
			return err
		}
	}
	return nil
}

// AddRecovered merges absent fragments taken from the encode-side table.
func (r *Residual) AddRecovered(frags []fragment.Fragment) error {
	for _, f := range frags {
		if _, ok := r.absent[string(f.Key)]; !ok {
			r.recovered++
		}
		if err := put(r.absent, string(f.Key), f.Value); err != nil {
			return err
		}
	}
	return nil
}

func put(set map[string][]byte, key string, value []byte) error {
	if prev, ok := set[key]; ok && !bytes.Equal(prev, value) {
		return fmt.Errorf("%w: %w: key %x", ErrInconsistentResidual, fragment.ErrConflict, key)
	}
	set[key] = value
	return nil
}

// Transactions reassembles the absent and extra transactions.
// Both results are ordered by fragment key prefix.
func (r *Residual) Transactions() (absent, extra []*types.Transaction, err error) {
	for key := range r.absent {
		if _, ok := r.extra[key]; ok {
			return nil, nil, fmt.Errorf("%w: key %x is both absent and extra", ErrInconsistentResidual, key)
		}
	}
	absent, err = r.codec.Decode(fragments(r.absent))
	if err != nil {
		return nil, nil, fmt.Errorf("absent: %w", err)
	}
	extra, err = r.codec.Decode(fragments(r.extra))
	if err != nil {
		return nil, nil, fmt.Errorf("extra: %w", err)
	}
	return absent, extra, nil
}

// Stats reports the size of the residual and of the transactions reassembled from it.
func (r *Residual) Stats(absent, extra []*types.Transaction) ResidualStats {
	return ResidualStats{
		AbsentFragments: len(r.absent),
		ExtraFragments:  len(r.extra),
		AbsentTxs:       len(absent),
		ExtraTxs:        len(extra),
		Recovered:       r.recovered,
	}
}

func fragments(set map[string][]byte) []fragment.Fragment {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	frags := make([]fragment.Fragment, 0, len(keys))
	for _, key := range keys {
		frags = append(frags, fragment.Fragment{Key: []byte(key), Value: set[key]})
	}
	return frags
}
