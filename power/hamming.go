package power

import (
	"math/bits"
)

// HammingWeight returns the number of bits set in v.
func HammingWeight(v uint64) uint64 {
	return uint64(bits.OnesCount64(v))
}

// HammingDistance returns the number of bit positions where a and b
// differ.
func HammingDistance(a, b uint64) uint64 {
	return uint64(bits.OnesCount64(a ^ b))
}
