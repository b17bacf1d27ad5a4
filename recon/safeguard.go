package recon

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-blockrecon/fragment"
)

// Safeguard completes transactions that were only partially enumerated.
//
// The aggregate peels fragments independently of the transaction they belong
// to, so a multi-fragment transaction may surface with only some of its
// fragments. OnAbsent is installed as the enumeration listener: on the first
// absent fragment of a group it records the whole fragment set of the
// transaction from the encode-side table and removes every sibling from the
// aggregate. An absent entry is held with multiplicity +1 after the receiver's
// deletions, so the siblings are removed with Delete, which frees the cells
// they occupied for the rest of the enumeration.
type Safeguard struct {
	logger *zap.Logger
	codec  fragment.Codec
	table  *fragment.Table
	agg    Aggregate

	seen      map[string]struct{}
	fragments []fragment.Fragment
	recovered int
	unknown   int
}

// NewSafeguard creates a safeguard for one decode pass.
func NewSafeguard(logger *zap.Logger, codec fragment.Codec, table *fragment.Table, agg Aggregate) *Safeguard {
	return &Safeguard{
		logger: logger,
		codec:  codec,
		table:  table,
		agg:    agg,
		seen:   make(map[string]struct{}),
	}
}

// OnAbsent is the aggregate enumeration listener.
func (s *Safeguard) OnAbsent(key, value []byte) {
	group := s.codec.GroupKey(key)
	if _, ok := s.seen[string(group)]; ok {
		return
	}
	s.seen[string(group)] = struct{}{}
	frags, ok := s.table.Lookup(group)
	if !ok {
		s.unknown++
		s.logger.Debug("absent fragment without table entry",
			zap.Binary("key", key),
		)
		return
	}
	s.fragments = append(s.fragments, frags...)
	for _, f := range frags {
		if bytes.Equal(f.Key, key) {
			continue
		}
		s.agg.Delete(f.Key, f.Value)
		s.recovered++
	}
}

// Fragments returns all fragments of every transaction seen by OnAbsent.
func (s *Safeguard) Fragments() []fragment.Fragment {
	return s.fragments
}

// Groups returns the number of transactions completed from the table.
func (s *Safeguard) Groups() int {
	return len(s.seen) - s.unknown
}

// Recovered returns the number of sibling fragments taken from the table.
func (s *Safeguard) Recovered() int {
	return s.recovered
}
