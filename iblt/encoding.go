package iblt

import (
	"fmt"

	"github.com/spacemeshos/go-scale"
)

// EncodeScale implements scale codec interface.
// The table is written as its shape followed by every cell.
func (t *Table) EncodeScale(e *scale.Encoder) (total int, err error) {
	for _, v := range []uint32{
		uint32(len(t.counts)),
		uint32(t.hashCount),
		uint32(t.keySize),
		uint32(t.valueSize),
	} {
		n, err := scale.EncodeCompact32(e, v)
		if err != nil {
			return total, err
		}
		total += n
	}
	for i := range t.counts {
		{
			n, err := scale.EncodeUint32(e, uint32(t.counts[i]))
			if err != nil {
				return total, err
			}
			total += n
		}
		{
			n, err := scale.EncodeByteArray(e, t.key(i))
			if err != nil {
				return total, err
			}
			total += n
		}
		{
			n, err := scale.EncodeByteArray(e, t.value(i))
			if err != nil {
				return total, err
			}
			total += n
		}
		{
			n, err := scale.EncodeCompact64(e, t.checks[i])
			if err != nil {
				return total, err
			}
			total += n
		}
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *Table) DecodeScale(d *scale.Decoder) (total int, err error) {
	var shape [4]uint32
	for i := range shape {
		v, n, err := scale.DecodeCompact32(d)
		if err != nil {
			return total, err
		}
		total += n
		shape[i] = v
	}
	cfg := Config{
		Cells:     int(shape[0]),
		HashCount: int(shape[1]),
		KeySize:   int(shape[2]),
		ValueSize: int(shape[3]),
	}
	if cfg.HashCount > 0 && cfg.Cells%cfg.HashCount != 0 {
		return total, fmt.Errorf("%w: %d cells not divisible by %d hashes", ErrMalformed, cfg.Cells, cfg.HashCount)
	}
	decoded, err := New(cfg)
	if err != nil {
		return total, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	for i := range decoded.counts {
		{
			v, n, err := scale.DecodeUint32(d)
			if err != nil {
				return total, err
			}
			total += n
			decoded.counts[i] = int32(v)
		}
		{
			n, err := scale.DecodeByteArray(d, decoded.key(i))
			if err != nil {
				return total, err
			}
			total += n
		}
		{
			n, err := scale.DecodeByteArray(d, decoded.value(i))
			if err != nil {
				return total, err
			}
			total += n
		}
		{
			v, n, err := scale.DecodeCompact64(d)
			if err != nil {
				return total, err
			}
			total += n
			decoded.checks[i] = v
		}
	}
	*t = *decoded
	return total, nil
}
