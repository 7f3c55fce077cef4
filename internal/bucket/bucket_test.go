package bucket

import (
	"math/bits"
	"testing"

	"github.com/hupe1980/hamidx/permutation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPerm(t *testing.T) *permutation.BlockPermuter {
	t.Helper()
	p := permutation.NewBlockPermuter([]uint8{16, 16, 16, 16}, 2, 42)
	require.NotNil(t, p)
	return p
}

func TestSimpleMatchesPrefixOfForward(t *testing.T) {
	p := testPerm(t)
	x := uint64(0x0123456789abcdef)

	got := Simple(p, 8, x)
	want := p.Forward(x) >> 56
	assert.Equal(t, want, got)
}

func TestTriangleCardinalityIsPopcountOfRawKey(t *testing.T) {
	p := testPerm(t)
	x := uint64(0xffff000000000000) // 16 ones

	id := Triangle(p, 16, 6, x)
	assert.Equal(t, uint64(16), id&0x3f)
	assert.Equal(t, bits.OnesCount64(x), 16)
}

func TestTriangleLeftClampsAtZero(t *testing.T) {
	p := testPerm(t)
	x := uint64(0) // popcount 0

	id := TriangleLeft(p, 16, 6, x, 5)
	assert.Equal(t, uint64(0), id&0x3f)
}

func TestTriangleRightClampsAt64(t *testing.T) {
	p := testPerm(t)
	x := ^uint64(0) // popcount 64

	id := TriangleRight(p, 16, 6, x, 5)
	// Cardinality 64 does not fit in the 6-bit field, so the whole id is
	// compared against prefix<<6 | 64 rather than its low 6 bits.
	prefix := p.Forward(x) >> (64 - 10)
	assert.Equal(t, prefix<<6|64, id)
}

func TestTriangleLeftRightBracketExactBucket(t *testing.T) {
	p := testPerm(t)
	x := uint64(0x00000000ffffffff) // popcount 32
	k := 3

	left := TriangleLeft(p, 16, 6, x, k)
	right := TriangleRight(p, 16, 6, x, k)
	exact := Triangle(p, 16, 6, x)

	assert.LessOrEqual(t, left, exact)
	assert.GreaterOrEqual(t, right, exact)
	assert.Equal(t, uint64(29), left&0x3f)
	assert.Equal(t, uint64(35), right&0x3f)
}

func TestPrefixBits(t *testing.T) {
	assert.Equal(t, 16, PrefixBits(16, 0))
	assert.Equal(t, 10, PrefixBits(16, 6))
}
