package boundary

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Sparse is the "Elias-Fano style" bit vector representation named in the
// core index's configuration parameters: a roaring.Bitmap whose Select
// method is itself a select-1 oracle, used here instead of hand-rolling
// Elias-Fano bit-packing (see DESIGN.md for why roaring stands in for it).
//
// Positions are stored as uint32, so a Sparse vector covers at most
// 2^32-1 total bits (U+n). Callers targeting larger universes must use
// Dense instead.
type Sparse struct {
	bm    *roaring.Bitmap
	total uint64
}

var _ Vector = (*Sparse)(nil)

// NewSparse builds a Sparse boundary vector from the one-bit positions
// produced by Positions. It panics if total exceeds the uint32 domain
// roaring.Bitmap addresses; callers should pick Dense for that case.
func NewSparse(ones []uint64, total uint64) *Sparse {
	if total > math.MaxUint32 {
		panic("boundary: sparse representation requires U+n <= math.MaxUint32")
	}
	bm := roaring.New()
	for _, p := range ones {
		bm.Add(uint32(p))
	}
	bm.RunOptimize()
	return &Sparse{bm: bm, total: total}
}

func (s *Sparse) Select1(i uint64) uint64 {
	// roaring's Select is 0-indexed rank; spec's select_1 is 1-indexed.
	v, err := s.bm.Select(uint32(i - 1))
	if err != nil {
		panic(fmt.Sprintf("boundary: select1(%d) out of range: %v", i, err))
	}
	return uint64(v)
}

func (s *Sparse) NumOnes() uint64 {
	return s.bm.GetCardinality()
}

func (s *Sparse) Len() uint64 {
	return s.total
}

// Clone deep-copies the vector so a reassignment never shares mutable
// roaring state with its source (see Dense.Clone's doc comment).
func (s *Sparse) Clone() *Sparse {
	return &Sparse{bm: s.bm.Clone(), total: s.total}
}

func (s *Sparse) WriteTo(w io.Writer) (int64, error) {
	var written int64
	if err := binary.Write(w, binary.LittleEndian, s.total); err != nil {
		return written, err
	}
	written += 8

	n, err := s.bm.WriteTo(w)
	written += n
	return written, err
}

// ReadSparse deserializes a Sparse boundary vector written by WriteTo.
func ReadSparse(r io.Reader) (*Sparse, int64, error) {
	var read int64

	var total uint64
	if err := binary.Read(r, binary.LittleEndian, &total); err != nil {
		return nil, read, err
	}
	read += 8

	bm := roaring.New()
	n, err := bm.ReadFrom(r)
	read += n
	if err != nil {
		return nil, read, fmt.Errorf("boundary: reading roaring bitmap: %w", err)
	}

	return &Sparse{bm: bm, total: total}, read, nil
}
