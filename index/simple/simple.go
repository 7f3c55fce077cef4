// Package simple implements the prefix-bucketed index of spec section 4:
// keys are partitioned by the high-order bits of a permuted key, and a
// query scans its bucket's candidates with a linear popcount sweep.
package simple

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
	"github.com/hupe1980/hamidx/permutation"
)

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

// DefaultOptions mirrors the defaults of this module's ambient config
// pattern: a conservative error bound and the dense boundary vector.
var DefaultOptions = Options{MaxK: 3, Dense: true, Logger: hamidx.NoopLogger()}

// Index is a prefix-bucketed leaf index over one permutation P.
type Index[P permutation.Permuter] struct {
	perm         P
	splitterBits int
	lowBits      int
	n            uint64
	entries      []uint64 // low lowBits bits of each permuted key, bucket order
	boundaryVec  boundary.Vector
	maxK         int
	logger       *hamidx.Logger
}

// New builds an Index over keys using perm to derive bucket ids. It
// performs the single-pass counting sort of spec section 4.4: one pass to
// tally per-bucket counts, derive the boundary vector and write cursors,
// then a second pass to place each permuted key's low bits at its cursor.
func New[P permutation.Permuter](ctx context.Context, keys []uint64, perm P, opts Options) *Index[P] {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = hamidx.NoopLogger()
	}

	splitterBits := permutation.SplitterBits(perm)
	lowBits := 64 - splitterBits
	numBuckets := uint64(1) << uint(splitterBits)

	counts := make([]uint64, numBuckets)
	for _, x := range keys {
		b := bucket.Simple(perm, splitterBits, x)
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

	entries := make([]uint64, len(keys))
	low := bitutil.MaskLow(lowBits)
	for _, x := range keys {
		b := bucket.Simple(perm, splitterBits, x)
		pos := cursors[b] - b
		entries[pos] = perm.Forward(x) & low
		cursors[b]++
	}

	logger.LogBuild(ctx, len(keys), splitterBits, float64(time.Since(start).Microseconds())/1000)

	return &Index[P]{
		perm:         perm,
		splitterBits: splitterBits,
		lowBits:      lowBits,
		n:            uint64(len(keys)),
		entries:      entries,
		boundaryVec:  vec,
		maxK:         opts.MaxK,
		logger:       logger,
	}
}

// Size returns the number of keys the index holds.
func (idx *Index[P]) Size() uint64 {
	return idx.n
}

// Match returns every key x indexed by Index with popcount(q XOR x) <= k.
// If candidatesOnly is true, the candidate bucket is sized but never
// scanned, and results is always nil. Match returns hamidx.ErrKTooLarge if
// k exceeds the maxK the index was built with.
func (idx *Index[P]) Match(ctx context.Context, q uint64, k int, candidatesOnly bool) (results []uint64, candidates uint64, err error) {
	if k > idx.maxK {
		return nil, 0, hamidx.ErrKTooLarge
	}

	b := bucket.Simple(idx.perm, idx.splitterBits, q)
	l, r := boundary.Bounds(idx.boundaryVec, b)
	candidates = r - l
	if candidatesOnly || candidates == 0 {
		idx.logger.LogMatch(ctx, k, candidates, 0)
		return nil, candidates, nil
	}

	permQ := idx.perm.Forward(q)
	high := permQ &^ bitutil.MaskLow(idx.lowBits)
	qLow := permQ & bitutil.MaskLow(idx.lowBits)

	results = make([]uint64, 0, candidates)
	for _, e := range idx.entries[l:r] {
		if bits.OnesCount64(qLow^e) <= k {
			results = append(results, idx.perm.Inverse(high|e))
		}
	}
	idx.logger.LogMatch(ctx, k, candidates, uint64(len(results)))
	return results, candidates, nil
}

// WriteTo serializes the index: entry count, splitter width, maxK and the
// number of entries, then the entries, then the boundary vector's own framing (spec section 6's "persisted and reloaded without
// recomputation").
func (idx *Index[P]) WriteTo(w io.Writer) (int64, error) {
	var written int64

	if err := binary.Write(w, binary.LittleEndian, idx.n); err != nil {
		return written, err
	}
	written += 8

	if err := binary.Write(w, binary.LittleEndian, uint64(idx.splitterBits)); err != nil {
		return written, err
	}
	written += 8

	if err := binary.Write(w, binary.LittleEndian, uint64(idx.maxK)); err != nil {
		return written, err
	}
	written += 8

	if err := binary.Write(w, binary.LittleEndian, uint64(len(idx.entries))); err != nil {
		return written, err
	}
	written += 8
	for _, e := range idx.entries {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return written, err
		}
		written += 8
	}

	n, err := idx.boundaryVec.WriteTo(w)
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

	entries := make([]uint64, numEntries)
	for i := range entries {
		if err := binary.Read(r, binary.LittleEndian, &entries[i]); err != nil {
			return nil, hamidx.WrapCorrupt(fmt.Errorf("entry %d: %w", i, err))
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
	return &Index[P]{
		perm:         perm,
		splitterBits: splitterBits,
		lowBits:      64 - splitterBits,
		n:            n,
		entries:      entries,
		boundaryVec:  vec,
		maxK:         int(maxK64),
		logger:       logger,
	}, nil
}
