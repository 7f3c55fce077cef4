// Package triangle implements the cardinality-sub-bucketed index of spec
// section 4: within each prefix bucket, entries are further grouped by
// popcount(x), so a query only scans the cardinality range the triangle
// inequality permits, and a packed low/mid 32-bit popcount pre-filter
// narrows candidates before a full 64-bit verification.
package triangle

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"time"

	"github.com/hupe1980/hamidx"
	"github.com/hupe1980/hamidx/internal/bitutil"
	"github.com/hupe1980/hamidx/internal/boundary"
	"github.com/hupe1980/hamidx/internal/bucket"
	"github.com/hupe1980/hamidx/internal/simd"
	"github.com/hupe1980/hamidx/permutation"
)

// distanceBits is the width reserved, within each prefix bucket, for the
// cardinality sub-bucket id (popcount(x) in [0, 64]).
const distanceBits = 6

// lowBits is the width of the packed low entry the SIMD filter scans.
// Kept a power of two and word-aligned, per the layout it is grounded on.
const lowBits = 32

// Options configures an Index at construction time.
type Options struct {
	// MaxK is the largest error bound Match will accept; queries with a
	// larger k fail with hamidx.ErrKTooLarge (spec section 7).
	MaxK int
	// Dense selects the bucket boundary vector's backing representation:
	// true for internal/boundary.Dense, false for internal/boundary.Sparse.
	Dense bool
	// Logger receives build/match telemetry. A nil Logger is treated as
	// hamidx.NoopLogger(), following vecgo's own Options default.
	Logger *hamidx.Logger
}

// DefaultOptions mirrors Options used throughout this module's index
// variants: a conservative error bound and the dense boundary vector.
var DefaultOptions = Options{MaxK: 3, Dense: true, Logger: hamidx.NoopLogger()}

// Index is a cardinality-sub-bucketed leaf index over one permutation P.
type Index[P permutation.Permuter] struct {
	perm         P
	splitterBits int
	midBits      int
	highShift    int
	lowMask      uint64
	midMask      uint64

	n          uint64
	lowEntries []uint32 // low_xor = low(permuted) XOR mid(permuted), bucket order
	midEntries []uint32 // mid(permuted), bucket order
	boundary   boundary.Vector
	maxK       int
	logger     *hamidx.Logger
}

func layout(splitterBits int) (midBits, highShift int, lowMask, midMask uint64) {
	if splitterBits <= distanceBits {
		panic("triangle: splitterBits must exceed distanceBits")
	}
	midBits = 64 - (lowBits + splitterBits - distanceBits)
	if midBits < 0 || midBits > 32 {
		panic("triangle: splitterBits yields an out-of-range mid width")
	}
	highShift = 64 - splitterBits + distanceBits
	return midBits, highShift, bitutil.MaskLow(lowBits), bitutil.MaskLow(midBits)
}

// New builds an Index over keys using perm to derive bucket ids. The
// single-pass counting sort tallies per-(prefix, cardinality) bucket
// counts, derives the boundary vector and write cursors, then places each
// permuted key's packed low/mid fields at its cursor.
func New[P permutation.Permuter](ctx context.Context, keys []uint64, perm P, opts Options) *Index[P] {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = hamidx.NoopLogger()
	}

	splitterBits := permutation.SplitterBits(perm)
	midBits, highShift, lowMask, midMask := layout(splitterBits)
	prefixBits := bucket.PrefixBits(splitterBits, distanceBits)
	// A popcount of 64 does not fit in distanceBits bits: ORed into the id it
	// sets the prefix's lowest bit, so it lands in the cardinality-0 slot of
	// the same prefix (odd prefix) or of the next prefix (even prefix). Ids
	// therefore stay below 1<<(prefixBits+distanceBits); the extra
	// distanceBits-wide block below is slack that no bucket id reaches.
	numBuckets := ((uint64(1) << uint(prefixBits)) << distanceBits) + (uint64(1) << distanceBits)

	counts := make([]uint64, numBuckets)
	for _, x := range keys {
		b := bucket.Triangle(perm, splitterBits, distanceBits, x)
		counts[b]++
	}

	ones, total := boundary.Positions(counts)
	cursors := boundary.Cursors(counts)

	var vec boundary.Vector
	if opts.Dense {
		vec = boundary.NewDense(ones, total)
	} else {
		vec = boundary.NewSparse(ones, total)
	}

	lowEntries := make([]uint32, len(keys))
	midEntries := make([]uint32, len(keys))
	for _, x := range keys {
		b := bucket.Triangle(perm, splitterBits, distanceBits, x)
		pos := cursors[b] - b

		permuted := perm.Forward(x)
		lowItem := permuted & lowMask
		midItem := (permuted >> uint(lowBits)) & midMask
		lowEntries[pos] = uint32(lowItem ^ midItem)
		midEntries[pos] = uint32(midItem)

		cursors[b]++
	}

	logger.LogBuild(ctx, len(keys), splitterBits, float64(time.Since(start).Microseconds())/1000)
	logger.InfoContext(ctx, "triangle filter ready", "filter_isa", simd.FilterISA().String())

	return &Index[P]{
		perm:         perm,
		splitterBits: splitterBits,
		midBits:      midBits,
		highShift:    highShift,
		lowMask:      lowMask,
		midMask:      midMask,
		n:            uint64(len(keys)),
		lowEntries:   lowEntries,
		midEntries:   midEntries,
		boundary:     vec,
		maxK:         opts.MaxK,
		logger:       logger,
	}
}

// Size returns the number of keys the index holds.
func (idx *Index[P]) Size() uint64 {
	return idx.n
}

// Match returns every key x indexed by Index with popcount(q XOR x) <= k.
// If candidatesOnly is true, the cardinality range is sized but never
// scanned, and results is always nil. Match returns hamidx.ErrKTooLarge if
// k exceeds the maxK the index was built with.
func (idx *Index[P]) Match(ctx context.Context, q uint64, k int, candidatesOnly bool) (results []uint64, candidates uint64, err error) {
	if k > idx.maxK {
		return nil, 0, hamidx.ErrKTooLarge
	}

	bLeft := bucket.TriangleLeft(idx.perm, idx.splitterBits, distanceBits, q, k)
	bRight := bucket.TriangleRight(idx.perm, idx.splitterBits, distanceBits, q, k)
	l, r := boundary.RangeBounds(idx.boundary, bLeft, bRight)
	candidates = r - l
	if candidatesOnly || candidates == 0 {
		idx.logger.LogMatch(ctx, k, candidates, 0)
		return nil, candidates, nil
	}

	permQ := idx.perm.Forward(q)
	qHigh := (permQ >> uint(idx.highShift)) << uint(idx.highShift)
	qLow := uint32(permQ & idx.lowMask)
	qMid := uint32((permQ >> uint(lowBits)) & idx.midMask)
	qXor := qLow ^ qMid

	results = make([]uint64, 0, candidates)
	simd.PopcountFilter32(qXor, idx.lowEntries[l:r], uint32(k+1), func(i int) {
		pos := l + uint64(i)
		itemMid := idx.midEntries[pos]
		itemXor := idx.lowEntries[pos]
		itemLow := itemXor ^ itemMid
		currEl := qHigh | (uint64(itemMid) << uint(lowBits)) | uint64(itemLow)
		if bits.OnesCount64(permQ^currEl) <= k {
			results = append(results, idx.perm.Inverse(currEl))
		}
	})

	idx.logger.LogMatch(ctx, k, candidates, uint64(len(results)))
	return results, candidates, nil
}

// WriteTo serializes the index: entry count, splitter width, maxK and the
// number of entries, then the low entries, the mid entries, and the
// boundary vector's own framing.
func (idx *Index[P]) WriteTo(w io.Writer) (int64, error) {
	var written int64

	for _, v := range []uint64{idx.n, uint64(idx.splitterBits), uint64(idx.maxK), uint64(len(idx.lowEntries))} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return written, err
		}
		written += 8
	}

	for _, e := range idx.lowEntries {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return written, err
		}
		written += 4
	}
	for _, e := range idx.midEntries {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return written, err
		}
		written += 4
	}

	n, err := idx.boundary.WriteTo(w)
	written += n
	return written, err
}

// Load deserializes an index previously written by WriteTo. perm must be
// the same permutation (or an equivalent one, keyed the same way) used at
// construction time; it is not itself persisted. dense selects which
// boundary vector representation to expect. A nil logger is treated as
// hamidx.NoopLogger().
func Load[P permutation.Permuter](r io.Reader, perm P, dense bool, logger *hamidx.Logger) (*Index[P], error) {
	var n, splitterBits64, maxK64, numEntries uint64
	for _, dst := range []*uint64{&n, &splitterBits64, &maxK64, &numEntries} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, hamidx.WrapCorrupt(err)
		}
	}

	lowEntries := make([]uint32, numEntries)
	for i := range lowEntries {
		if err := binary.Read(r, binary.LittleEndian, &lowEntries[i]); err != nil {
			return nil, hamidx.WrapCorrupt(fmt.Errorf("low entry %d: %w", i, err))
		}
	}
	midEntries := make([]uint32, numEntries)
	for i := range midEntries {
		if err := binary.Read(r, binary.LittleEndian, &midEntries[i]); err != nil {
			return nil, hamidx.WrapCorrupt(fmt.Errorf("mid entry %d: %w", i, err))
		}
	}

	var vec boundary.Vector
	if dense {
		dv, _, err := boundary.ReadDense(r)
		if err != nil {
			return nil, hamidx.WrapCorrupt(err)
		}
		vec = dv
	} else {
		sv, _, err := boundary.ReadSparse(r)
		if err != nil {
			return nil, hamidx.WrapCorrupt(err)
		}
		vec = sv
	}

	if logger == nil {
		logger = hamidx.NoopLogger()
	}

	splitterBits := int(splitterBits64)
	midBits, highShift, lowMask, midMask := layout(splitterBits)

	return &Index[P]{
		perm:         perm,
		splitterBits: splitterBits,
		midBits:      midBits,
		highShift:    highShift,
		lowMask:      lowMask,
		midMask:      midMask,
		n:            n,
		lowEntries:   lowEntries,
		midEntries:   midEntries,
		boundary:     vec,
		maxK:         int(maxK64),
		logger:       logger,
	}, nil
}
