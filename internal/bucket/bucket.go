// Package bucket derives bucket ids from a query key via a permutation,
// per spec section 4.1. It contains no state of its own; each index
// variant owns the entry store and boundary vector the ids index into.
package bucket

import (
	"math/bits"

	"github.com/hupe1980/hamidx/permutation"
)

// PrefixBits returns the width of the high-order prefix a permuted key is
// bucketed by, given the total splitter width and how many low bits (if
// any) are reserved for a secondary partition (0 for the simple variant,
// distanceBits for the triangle variant).
func PrefixBits(splitterBits, reservedBits int) int {
	return splitterBits - reservedBits
}

// Simple returns the prefix bucket id for key x: the top splitterBits
// bits of its permuted form.
func Simple(perm permutation.Permuter, splitterBits int, x uint64) uint64 {
	return perm.Forward(x) >> uint(64-splitterBits)
}

func trianglePrefix(perm permutation.Permuter, splitterBits, distanceBits int, x uint64) uint64 {
	return perm.Forward(x) >> uint(64-PrefixBits(splitterBits, distanceBits))
}

// Triangle returns the composite bucket id (prefix<<distanceBits |
// popcount(x)) used by the triangle variant's counting-sort construction.
func Triangle(perm permutation.Permuter, splitterBits, distanceBits int, x uint64) uint64 {
	prefix := trianglePrefix(perm, splitterBits, distanceBits, x)
	return prefix<<uint(distanceBits) | uint64(bits.OnesCount64(x))
}

// TriangleLeft returns the bucket id at the low end of the cardinality
// range a query with error bound k must scan: same prefix, cardinality
// clamped to max(popcount(x)-k, 0).
func TriangleLeft(perm permutation.Permuter, splitterBits, distanceBits int, x uint64, k int) uint64 {
	prefix := trianglePrefix(perm, splitterBits, distanceBits, x)
	cardin := bits.OnesCount64(x) - k
	if cardin < 0 {
		cardin = 0
	}
	return prefix<<uint(distanceBits) | uint64(cardin)
}

// TriangleRight returns the bucket id at the high end of the cardinality
// range: same prefix, cardinality clamped to min(popcount(x)+k, 64).
func TriangleRight(perm permutation.Permuter, splitterBits, distanceBits int, x uint64, k int) uint64 {
	prefix := trianglePrefix(perm, splitterBits, distanceBits, x)
	cardin := bits.OnesCount64(x) + k
	if cardin > 64 {
		cardin = 64
	}
	return prefix<<uint(distanceBits) | uint64(cardin)
}
