// Package hash holds the hash primitives used for transaction ids, fragment keys
// and aggregate cell checksums.
package hash

import (
	"encoding/binary"

	"github.com/minio/sha256-simd"
)

// Size is an alias to minio sha256.Size (32 bytes).
const Size = sha256.Size

// New is an alias to minio sha256.New.
var New = sha256.New

// Sum computes sha256 over the concatenation of chunks.
func Sum(chunks ...[]byte) (rst [Size]byte) {
	if len(chunks) == 1 {
		return sha256.Sum256(chunks[0])
	}
	h := sha256.New()
	for _, chunk := range chunks {
		h.Write(chunk)
	}
	h.Sum(rst[:0])
	return rst
}

// Checksum64 returns the first 8 bytes of the blake3 sum of data as a big-endian uint64.
func Checksum64(data []byte) uint64 {
	hasher := GetHasher()
	defer func() {
		hasher.Reset()
		PutHasher(hasher)
	}()
	hasher.Write(data)
	var sum [32]byte
	hasher.Sum(sum[:0])
	return binary.BigEndian.Uint64(sum[:8])
}
