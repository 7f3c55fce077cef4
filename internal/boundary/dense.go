package boundary

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"
)

// Dense is the "plain dense bit vector" representation named in the core
// index's configuration parameters. The bit vector itself is a
// bits-and-blooms/bitset.BitSet; since that library exposes no native
// select-1, the select support is a materialized position cache built once
// at construction time (spec section 4.4 builds the boundary vector in a
// single counting-sort pass, so the cache costs nothing extra to derive).
type Dense struct {
	bits *bitset.BitSet
	ones []uint64
}

var _ Vector = (*Dense)(nil)

// NewDense builds a Dense boundary vector from the one-bit positions
// produced by Positions.
func NewDense(ones []uint64, total uint64) *Dense {
	bs := bitset.New(uint(total))
	for _, p := range ones {
		bs.Set(uint(p))
	}
	cache := make([]uint64, len(ones))
	copy(cache, ones)
	return &Dense{bits: bs, ones: cache}
}

func (d *Dense) Select1(i uint64) uint64 {
	return d.ones[i-1]
}

func (d *Dense) NumOnes() uint64 {
	return uint64(len(d.ones))
}

func (d *Dense) Len() uint64 {
	return uint64(d.bits.Len())
}

// Clone deep-copies the vector and its select cache. Per spec section 4.2,
// reassigning a boundary vector must rebuild the select support so it is
// never left bound to another instance's backing storage; Clone realizes
// that by owning an independent copy of both from the start.
func (d *Dense) Clone() *Dense {
	cloned := d.bits.Clone()
	cache := make([]uint64, len(d.ones))
	copy(cache, d.ones)
	return &Dense{bits: cloned, ones: cache}
}

func (d *Dense) WriteTo(w io.Writer) (int64, error) {
	var written int64

	if err := binary.Write(w, binary.LittleEndian, uint64(len(d.ones))); err != nil {
		return written, err
	}
	written += 8

	n, err := d.bits.WriteTo(w)
	written += n
	if err != nil {
		return written, err
	}

	for _, p := range d.ones {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
			return written, err
		}
		written += 8
	}

	return written, nil
}

// ReadDense deserializes a Dense boundary vector written by WriteTo.
func ReadDense(r io.Reader) (*Dense, int64, error) {
	var read int64

	var numOnes uint64
	if err := binary.Read(r, binary.LittleEndian, &numOnes); err != nil {
		return nil, read, err
	}
	read += 8

	bs := &bitset.BitSet{}
	n, err := bs.ReadFrom(r)
	read += n
	if err != nil {
		return nil, read, fmt.Errorf("boundary: reading dense bitset: %w", err)
	}

	ones := make([]uint64, numOnes)
	for i := range ones {
		if err := binary.Read(r, binary.LittleEndian, &ones[i]); err != nil {
			return nil, read, fmt.Errorf("boundary: reading select cache: %w", err)
		}
		read += 8
	}

	return &Dense{bits: bs, ones: ones}, read, nil
}
