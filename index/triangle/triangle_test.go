package triangle

import (
	"bytes"
	"context"
	"math/bits"
	"math/rand"
	"sort"
	"testing"

	"github.com/hupe1980/hamidx"
	"github.com/hupe1980/hamidx/permutation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func newTestPerm() *permutation.BlockPermuter {
	return permutation.NewBlockPermuter([]uint8{16, 16, 16, 16}, 1, 11)
}

func bruteForce(keys []uint64, q uint64, k int) []uint64 {
	var out []uint64
	for _, x := range keys {
		if bits.OnesCount64(q^x) <= k {
			out = append(out, x)
		}
	}
	return out
}

func sortedU64(xs []uint64) []uint64 {
	out := append([]uint64(nil), xs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// nearNeighbor returns a key exactly flips bits away from q that shares q's
// splitter prefix under perm: it flips flips distinct low-order bits of q's
// permuted form (leaving the splitter's top bits untouched) and permutes
// back. Bit permutation preserves Hamming weight of the XOR, so the result
// is at distance exactly flips from q, which by the triangle inequality
// also keeps its raw popcount within flips of popcount(q) — inside the
// cardinality sub-bucket range Match widens to for that k.
func nearNeighbor(rng *rand.Rand, perm *permutation.BlockPermuter, splitterBits int, q uint64, flips int) uint64 {
	lowBits := 64 - splitterBits
	permQ := perm.Forward(q)
	positions := rng.Perm(lowBits)[:flips]
	for _, p := range positions {
		permQ ^= uint64(1) << uint(p)
	}
	return perm.Inverse(permQ)
}

func TestEmptyInput(t *testing.T) {
	idx := New(ctx, nil, newTestPerm(), DefaultOptions)
	assert.Equal(t, uint64(0), idx.Size())

	results, candidates, err := idx.Match(ctx, 0x1234, 0, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), candidates)
	assert.Empty(t, results)
}

func TestExactMatchKZero(t *testing.T) {
	perm := newTestPerm()
	keys := []uint64{0x1111111111111111, 0x2222222222222222, 0x3333333333333333}
	idx := New(ctx, keys, perm, DefaultOptions)

	results, candidates, err := idx.Match(ctx, 0x2222222222222222, 0, false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, candidates, uint64(1))
	assert.Equal(t, []uint64{0x2222222222222222}, results)
}

func TestMatchesBruteForceOnRandomKeys(t *testing.T) {
	perm := newTestPerm()
	splitterBits := permutation.SplitterBits(perm)
	rng := rand.New(rand.NewSource(5))

	for trial := 0; trial < 25; trial++ {
		k := trial % 5

		keys := make([]uint64, 800)
		for i := range keys {
			keys[i] = rng.Uint64()
		}
		q := rng.Uint64()
		// Plant a genuine within-distance neighbor sharing q's bucket so
		// completeness, not just vacuous emptiness, is exercised.
		if k > 0 {
			keys = append(keys, nearNeighbor(rng, perm, splitterBits, q, k))
		}

		idx := New(ctx, keys, perm, Options{MaxK: 4, Dense: true})

		got, _, err := idx.Match(ctx, q, k, false)
		require.NoError(t, err)

		want := bruteForce(keys, q, k)
		assert.Equal(t, sortedU64(want), sortedU64(got))
		if k > 0 {
			assert.NotEmpty(t, got, "planted neighbor within distance %d of q was not found", k)
		}
	}
}

func TestAllOnesKeyDoesNotPanic(t *testing.T) {
	perm := newTestPerm()
	keys := []uint64{^uint64(0), 0, 0x0f0f0f0f0f0f0f0f}

	assert.NotPanics(t, func() {
		idx := New(ctx, keys, perm, DefaultOptions)
		_, _, err := idx.Match(ctx, ^uint64(0), 0, false)
		require.NoError(t, err)
	})
}

func TestCandidatesOnlyReturnsNoResults(t *testing.T) {
	perm := newTestPerm()
	rng := rand.New(rand.NewSource(6))
	keys := make([]uint64, 300)
	for i := range keys {
		keys[i] = rng.Uint64()
	}
	idx := New(ctx, keys, perm, DefaultOptions)

	q := rng.Uint64()
	results, candidates, err := idx.Match(ctx, q, 2, true)
	require.NoError(t, err)
	assert.Nil(t, results)

	_, wantCandidates, err := idx.Match(ctx, q, 2, false)
	require.NoError(t, err)
	assert.Equal(t, wantCandidates, candidates)
}

func TestMatchRejectsKAboveMaxK(t *testing.T) {
	idx := New(ctx, []uint64{1, 2, 3}, newTestPerm(), Options{MaxK: 1, Dense: true})

	_, _, err := idx.Match(ctx, 1, 2, false)
	assert.ErrorIs(t, err, hamidx.ErrKTooLarge)
}

func TestCandidateCountGrowsWithK(t *testing.T) {
	perm := newTestPerm()
	rng := rand.New(rand.NewSource(7))
	keys := make([]uint64, 1000)
	for i := range keys {
		keys[i] = rng.Uint64()
	}
	idx := New(ctx, keys, perm, Options{MaxK: 4, Dense: true})
	q := rng.Uint64()

	var prev uint64
	for k := 0; k <= 4; k++ {
		_, candidates, err := idx.Match(ctx, q, k, true)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, candidates, prev)
		prev = candidates
	}
}

func TestSparseAgreesWithDense(t *testing.T) {
	perm := newTestPerm()
	rng := rand.New(rand.NewSource(8))
	keys := make([]uint64, 500)
	for i := range keys {
		keys[i] = rng.Uint64()
	}
	dense := New(ctx, keys, perm, Options{MaxK: 3, Dense: true})
	sparse := New(ctx, keys, perm, Options{MaxK: 3, Dense: false})

	for trial := 0; trial < 10; trial++ {
		q := rng.Uint64()
		gotDense, _, err := dense.Match(ctx, q, 3, false)
		require.NoError(t, err)
		gotSparse, _, err := sparse.Match(ctx, q, 3, false)
		require.NoError(t, err)
		assert.Equal(t, sortedU64(gotDense), sortedU64(gotSparse))
	}
}

func TestRoundTrip(t *testing.T) {
	perm := newTestPerm()
	rng := rand.New(rand.NewSource(9))
	keys := make([]uint64, 200)
	for i := range keys {
		keys[i] = rng.Uint64()
	}
	idx := New(ctx, keys, perm, Options{MaxK: 3, Dense: true})

	var buf bytes.Buffer
	_, err := idx.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := Load(&buf, perm, true, nil)
	require.NoError(t, err)
	assert.Equal(t, idx.Size(), loaded.Size())

	for trial := 0; trial < 10; trial++ {
		q := rng.Uint64()
		want, _, err := idx.Match(ctx, q, 3, false)
		require.NoError(t, err)
		got, _, err := loaded.Match(ctx, q, 3, false)
		require.NoError(t, err)
		assert.Equal(t, sortedU64(want), sortedU64(got))
	}
}
