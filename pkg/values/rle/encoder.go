package rle

import (
	"encoding/binary"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/bitpack"
)

// maxGroupsPerRun keeps bit-packed run headers to a single byte, matching the
// layout produced by parquet-mr.
const maxGroupsPerRun = 63

// Encoder writes a hybrid stream.
//
// Values are buffered in groups of 8. A value repeated at least 8 times in a
// row becomes a run-length run; everything else is bit packed, with
// consecutive groups appended to the same bit-packed run. Bit-packed runs are
// held in memory until they end since their header precedes their groups.
type Encoder struct {
	w     values.Writer
	width int

	prev   uint64
	repeat int

	buf  [8]uint64
	nbuf int

	packed []byte // Groups of the open bit-packed run.
	groups int

	scratch [binary.MaxVarintLen64]byte
}

// NewEncoder creates an encoder writing values of width bits to w.
func NewEncoder(w values.Writer, width int) *Encoder {
	return &Encoder{w: w, width: width}
}

// BitWidth returns the width of values in the stream.
func (e *Encoder) BitWidth() int { return e.width }

// Reset discards buffered values and switches the encoder to w.
func (e *Encoder) Reset(w values.Writer) {
	*e = Encoder{w: w, width: e.width, packed: e.packed[:0]}
}

// Write appends v to the stream. Values wider than the bit width fail with
// [values.ErrValueTooLarge].
func (e *Encoder) Write(v uint64) error {
	if e.width < 0 || e.width > bitpack.MaxWidth {
		return values.Formatf("bit width %d out of range", e.width)
	}
	if v > bitpack.Mask(e.width) {
		return values.ErrValueTooLarge
	}

	if v == e.prev {
		e.repeat++
		if e.repeat >= 8 {
			// The run-length run keeps growing; nothing to buffer.
			return nil
		}
	} else {
		if e.repeat >= 8 {
			if err := e.writeRunLength(); err != nil {
				return err
			}
		}
		e.repeat = 1
		e.prev = v
	}

	e.buf[e.nbuf] = v
	e.nbuf++
	if e.nbuf == 8 {
		return e.appendGroup()
	}
	return nil
}

// Flush ends the stream, writing any pending run. A partial final group is
// padded with zeros. Writing after Flush starts a new run.
func (e *Encoder) Flush() error {
	if e.repeat >= 8 {
		if err := e.writeRunLength(); err != nil {
			return err
		}
	} else if e.nbuf > 0 {
		clear(e.buf[e.nbuf:])
		e.nbuf = 8
		if err := e.appendGroup(); err != nil {
			return err
		}
	}
	if err := e.endBitPacked(); err != nil {
		return err
	}
	e.prev, e.repeat = 0, 0
	return nil
}

func (e *Encoder) appendGroup() error {
	if e.groups >= maxGroupsPerRun {
		if err := e.endBitPacked(); err != nil {
			return err
		}
	}
	e.packed = bitpack.Pack(e.packed, e.buf[:], e.width)
	e.groups++
	e.nbuf = 0
	e.repeat = 0
	return nil
}

func (e *Encoder) endBitPacked() error {
	if e.groups == 0 {
		return nil
	}
	if err := e.writeUvarint(uint64(e.groups)<<1 | 1); err != nil {
		return err
	}
	if _, err := e.w.Write(e.packed); err != nil {
		return err
	}
	e.packed = e.packed[:0]
	e.groups = 0
	return nil
}

func (e *Encoder) writeRunLength() error {
	if err := e.endBitPacked(); err != nil {
		return err
	}
	if err := e.writeUvarint(uint64(e.repeat) << 1); err != nil {
		return err
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], e.prev)
	if _, err := e.w.Write(b[:bitpack.ByteWidth(e.width)]); err != nil {
		return err
	}
	e.repeat = 0
	e.nbuf = 0
	return nil
}

func (e *Encoder) writeUvarint(v uint64) error {
	n := binary.PutUvarint(e.scratch[:], v)
	_, err := e.w.Write(e.scratch[:n])
	return err
}
