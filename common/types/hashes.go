// Package types defines the transaction and block model reconciled by this module.
package types

import (
	"bytes"
	"encoding/hex"

	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-blockrecon/hash"
)

// Hash32Length is the length of Hash32 in bytes.
const Hash32Length = 32

// Hash32 represents the 32-byte sha256 hash of arbitrary data.
type Hash32 [Hash32Length]byte

// EmptyHash32 is the zero hash.
var EmptyHash32 = Hash32{}

// CalcHash32 returns the 32-byte sha256 sum of the given chunks.
func CalcHash32(chunks ...[]byte) Hash32 {
	return hash.Sum(chunks...)
}

// Bytes gets the byte representation of the underlying hash.
func (h Hash32) Bytes() []byte { return h[:] }

// Hex converts a hash to a hex string.
func (h Hash32) Hex() string { return hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash32) String() string { return h.Hex() }

// ShortString returns the first 10 hex characters of the hash, for logging purposes.
func (h Hash32) ShortString() string {
	return hex.EncodeToString(h[:5])
}

// Compare orders hashes as unsigned 256-bit big-endian integers.
func (h Hash32) Compare(other Hash32) int {
	return bytes.Compare(h[:], other[:])
}

// EncodeScale implements scale codec interface.
func (h *Hash32) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, h[:])
}

// DecodeScale implements scale codec interface.
func (h *Hash32) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, h[:])
}
