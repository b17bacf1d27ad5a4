package hash

import (
	"sync"

	"github.com/zeebo/blake3"
)

var pool = &sync.Pool{
	New: func() any {
		return blake3.New()
	},
}

// GetHasher will get a blake3 hasher from the pool.
// Consumers are expected to call Reset() on the hasher before putting it back.
func GetHasher() *blake3.Hasher {
	return pool.Get().(*blake3.Hasher)
}

// PutHasher returns the hasher back to the pool.
func PutHasher(hasher *blake3.Hasher) {
	pool.Put(hasher)
}
