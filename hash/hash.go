// Package hash implements the pluggable key hashers used by the
// hash-partition engine. It only needs good lower-bit avalanche, not a
// pinned algorithm, so callers select a Kind and get back a [Hasher]
// they can reuse across an entire run.
package hash

import (
	"fmt"
	"hash/crc32"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// Kind selects which 64-bit hash algorithm a Hasher implements.
type Kind int

const (
	KindCRC Kind = iota
	KindXXH3
	KindCity
)

func (k Kind) String() string {
	switch k {
	case KindCRC:
		return "crc"
	case KindXXH3:
		return "xxh3"
	case KindCity:
		return "city"
	default:
		return fmt.Sprintf("hash.Kind(%d)", int(k))
	}
}

// Hasher computes a 64-bit hash of an 8-byte key. Implementations must be
// safe for concurrent use by multiple goroutines reading the same
// instance — none hold mutable state per call.
type Hasher interface {
	Hash64(key uint64) uint64
}

// New builds the Hasher for kind. Unrecognized kinds fall back to XXH3,
// a solid general-purpose hash with good avalanche and no setup cost.
func New(kind Kind) Hasher {
	switch kind {
	case KindCRC:
		return crcHasher{}
	case KindCity:
		return newCityHasher()
	default:
		return xxh3Hasher{}
	}
}

func keyBytes(key uint64) [8]byte {
	var b [8]byte
	b[0] = byte(key)
	b[1] = byte(key >> 8)
	b[2] = byte(key >> 16)
	b[3] = byte(key >> 24)
	b[4] = byte(key >> 32)
	b[5] = byte(key >> 40)
	b[6] = byte(key >> 48)
	b[7] = byte(key >> 56)
	return b
}

// crcHasher hashes with the Castagnoli CRC32C table — the runtime
// dispatches this to the hardware CRC32 instruction on amd64/arm64.
type crcHasher struct{}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func (crcHasher) Hash64(key uint64) uint64 {
	b := keyBytes(key)
	return uint64(crc32.Checksum(b[:], castagnoli))
}

// xxh3Hasher wraps cespare/xxhash/v2, an XXH3-family hash good for
// small fixed-size keys.
type xxh3Hasher struct{}

func (xxh3Hasher) Hash64(key uint64) uint64 {
	b := keyBytes(key)
	return xxhash.Sum64(b[:])
}

// cityHasher uses stdlib hash/maphash's already-vetted avalanche mix,
// seeded once at construction so every key in a run hashes under the
// same seed.
type cityHasher struct {
	seed maphash.Seed
}

func newCityHasher() cityHasher {
	return cityHasher{seed: maphash.MakeSeed()}
}

func (h cityHasher) Hash64(key uint64) uint64 {
	b := keyBytes(key)
	var mh maphash.Hash
	mh.SetSeed(h.seed)
	mh.Write(b[:])
	return mh.Sum64()
}
