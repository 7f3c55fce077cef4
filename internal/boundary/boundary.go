// Package boundary implements the bucket boundary vector C described in
// spec section 4.2: a bit vector of length U+n with exactly U one-bits,
// the i-th one marking the end of bucket i-1, paired with a select-1
// oracle that turns a bucket id into the half-open entry-store slice
// [l, r) covering it.
package boundary

import "io"

// Vector is a bucket boundary vector with a select-1 oracle. Two
// representations are provided: Dense (backed by bits-and-blooms/bitset)
// and Sparse (backed by RoaringBitmap, whose Select is itself a select-1
// oracle — standing in for the Elias-Fano-style sparse representation the
// core's configuration parameters call out).
type Vector interface {
	// Select1 returns the 0-indexed position of the i-th one-bit, where i
	// is 1-indexed (Select1(1) is the first one). i must be in [1, NumOnes()].
	Select1(i uint64) uint64

	// NumOnes returns U, the number of one-bits (buckets) in the vector.
	NumOnes() uint64

	// Len returns U+n, the total bit length of the vector.
	Len() uint64

	// WriteTo serializes the vector (and its select support) to w.
	WriteTo(w io.Writer) (int64, error)
}

// Positions computes the 0-indexed bit positions of the U one-bits given,
// for each of the U buckets in id order, how many entries (zeros) precede
// its terminating one. This realizes the encoding loop in spec section
// 4.4 step 3 ("for each bucket in id order, append that many zero bits
// followed by one one bit") without materializing the intermediate zero
// runs: the k-th one (0-indexed) sits at position (sum of counts[0:k+1]) + k.
func Positions(counts []uint64) (ones []uint64, total uint64) {
	ones = make([]uint64, len(counts))
	var cursor uint64
	for i, c := range counts {
		cursor += c
		ones[i] = cursor + uint64(i)
	}
	if len(counts) == 0 {
		return ones, 0
	}
	total = ones[len(ones)-1] + 1
	return ones, total
}

// Cursors derives the counting-sort write-cursor array from the same
// per-bucket counts, per spec section 4.4 step 5: prefix_sums[i] becomes
// the dense write offset for bucket i (the "-bucket" subtraction in step 6
// is applied by the caller when indexing into the entry store, since the
// cursor here still carries the "+i" sentinel offset baked into Positions).
func Cursors(counts []uint64) []uint64 {
	cursors := make([]uint64, len(counts))
	var sum uint64
	for i, c := range counts {
		cursors[i] = sum + uint64(i)
		sum += c
	}
	return cursors
}

// Bounds returns the half-open entry-store slice [l, r) covering bucket id
// b, given a select-1 oracle over the U+n boundary vector.
func Bounds(v Vector, b uint64) (l, r uint64) {
	if b == 0 {
		l = 0
	} else {
		l = v.Select1(b) - b + 1
	}
	r = v.Select1(b+1) - (b + 1) + 1
	return l, r
}

// RangeBounds returns the half-open entry-store slice [l, r) covering the
// inclusive bucket range [bLeft, bRight], as used by the triangle index's
// cardinality-ranged query (spec section 4.2).
func RangeBounds(v Vector, bLeft, bRight uint64) (l, r uint64) {
	if bLeft == 0 {
		l = 0
	} else {
		l = v.Select1(bLeft) - bLeft + 1
	}
	r = v.Select1(bRight+1) - (bRight + 1) + 1
	return l, r
}
