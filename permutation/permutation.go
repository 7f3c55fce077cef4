// Package permutation defines the collaborator contract a multi-index
// driver supplies to a bucketed core index: a bijection on 64-bit words
// (and its inverse), partitioned into meta-symbols whose top few widths
// form the splitter. Choosing which permutation backs which instance id,
// and guaranteeing the match-filter property across the family, is the
// outer driver's responsibility and stays out of this package's scope; it
// only needs one concrete, testable implementation to exercise the core
// index against.
package permutation

import "math/rand"

// Permuter is the contract the core index (index/simple, index/triangle)
// requires from its permutation collaborator.
type Permuter interface {
	// Forward maps a key into this instance's permuted key space.
	Forward(x uint64) uint64
	// Inverse undoes Forward: Inverse(Forward(x)) == x for all x.
	Inverse(y uint64) uint64
	// BlockWidths returns the widths (summing to 64) of the meta-symbols
	// the permuted key is partitioned into, ordered most-significant first.
	BlockWidths() []uint8
	// MatchLen returns how many of the top meta-symbols form the splitter.
	MatchLen() int
}

// SplitterBits returns the sum of the top p.MatchLen() block widths: the
// number of high-order bits of a permuted key that select its prefix
// bucket (spec section 3's "splitter_bits").
func SplitterBits(p Permuter) int {
	widths := p.BlockWidths()
	n := 0
	for i := 0; i < p.MatchLen(); i++ {
		n += int(widths[i])
	}
	return n
}

// BlockPermuter implements Permuter as a keyed rearrangement of fixed-width
// meta-symbols: the 64-bit word is sliced into contiguous blocks per
// widths (most-significant first), and a seed-derived permutation of block
// positions decides which block ends up forming the splitter. Because it
// only ever exchanges whole blocks between fixed slots, it is trivially its
// own invertible bijection — Inverse runs the same table in reverse.
type BlockPermuter struct {
	widths    []uint8 // original block widths, block i at index i
	outWidths []uint8 // block widths after permutation, block order[i] at index order[i]
	order     []int   // order[i] = output slot of original block i
	matchLen  int

	origShift []int // origShift[i]: right-shift to bring original block i to the LSB
	outShift  []int // outShift[j]: right-shift to bring output block j to the LSB
}

// NewBlockPermuter builds a BlockPermuter over meta-symbols of the given
// widths (which must sum to 64), with the top matchLen widths (in the
// permuted/output layout) forming the splitter. seed deterministically
// selects which block-position permutation this instance uses; distinct
// seeds are how an outer multi-index driver gives each instance a distinct
// permutation.
func NewBlockPermuter(widths []uint8, matchLen int, seed uint64) *BlockPermuter {
	var total int
	for _, w := range widths {
		total += int(w)
	}
	if total != 64 {
		panic("permutation: block widths must sum to 64")
	}
	if matchLen < 0 || matchLen > len(widths) {
		panic("permutation: matchLen out of range")
	}

	order := make([]int, len(widths))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(int64(seed)))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	outWidths := make([]uint8, len(widths))
	for i, w := range widths {
		outWidths[order[i]] = w
	}

	origShift := shiftsFor(widths)
	outShift := shiftsFor(outWidths)

	return &BlockPermuter{
		widths:    widths,
		outWidths: outWidths,
		order:     order,
		matchLen:  matchLen,
		origShift: origShift,
		outShift:  outShift,
	}
}

// shiftsFor returns, for a contiguous MSB-first block layout of the given
// widths, the right-shift that brings each block down to the LSB.
func shiftsFor(widths []uint8) []int {
	shifts := make([]int, len(widths))
	cum := 0
	for i, w := range widths {
		shifts[i] = 64 - cum - int(w)
		cum += int(w)
	}
	return shifts
}

func blockMask(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

func (p *BlockPermuter) Forward(x uint64) uint64 {
	var y uint64
	for i, w := range p.widths {
		mask := blockMask(w)
		value := (x >> uint(p.origShift[i])) & mask
		j := p.order[i]
		y |= value << uint(p.outShift[j])
	}
	return y
}

func (p *BlockPermuter) Inverse(y uint64) uint64 {
	var x uint64
	for i, w := range p.widths {
		mask := blockMask(w)
		j := p.order[i]
		value := (y >> uint(p.outShift[j])) & mask
		x |= value << uint(p.origShift[i])
	}
	return x
}

func (p *BlockPermuter) BlockWidths() []uint8 {
	return p.outWidths
}

func (p *BlockPermuter) MatchLen() int {
	return p.matchLen
}
