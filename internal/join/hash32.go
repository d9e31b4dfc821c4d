package join

import (
	"encoding/binary"
	"math/bits"
)

const (
	murmurC1 uint32 = 0xcc9e2d51
	murmurC2 uint32 = 0x1b873593
)

// Hash32 is MurmurHash3 x86_32 over data with the given seed.
// It is bit-identical to the reference implementation.
func Hash32(data []byte, seed uint32) uint32 {
	h := seed
	n := len(data)

	// body: 4-byte little-endian blocks
	i := 0
	for ; i+4 <= n; i += 4 {
		k := binary.LittleEndian.Uint32(data[i:])
		k *= murmurC1
		k = bits.RotateLeft32(k, 15)
		k *= murmurC2

		h ^= k
		h = bits.RotateLeft32(h, 13)
		h = h*5 + 0xe6546b64
	}

	// tail: 1-3 remaining bytes
	var k uint32
	switch n - i {
	case 3:
		k ^= uint32(data[i+2]) << 16
		fallthrough
	case 2:
		k ^= uint32(data[i+1]) << 8
		fallthrough
	case 1:
		k ^= uint32(data[i])
		k *= murmurC1
		k = bits.RotateLeft32(k, 15)
		k *= murmurC2
		h ^= k
	}

	return fmix32(h ^ uint32(n))
}

// Sum32 is Hash32 with seed 0.
func Sum32(data []byte) uint32 {
	return Hash32(data, 0)
}

func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
