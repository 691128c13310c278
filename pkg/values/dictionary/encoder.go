package dictionary

import (
	"fmt"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/rle"
)

// IndexEncoder writes the data page of a dictionary-encoded column: the
// index bit width byte followed by the hybrid-encoded indices. Indices are
// written as int32 values and must be smaller than the dictionary size.
type IndexEncoder struct {
	enc     values.Encoding
	typ     values.Type
	size    int
	w       values.Writer
	idx     *rle.Encoder
	started bool
}

var _ values.Int32Encoder = (*IndexEncoder)(nil)

// NewIndexEncoder creates an encoder for indices into dict, labelled with
// enc.
func NewIndexEncoder(w values.Writer, enc values.Encoding, dict Dictionary) *IndexEncoder {
	return &IndexEncoder{
		enc:  enc,
		typ:  dict.Type(),
		size: dict.Len(),
		w:    w,
		idx:  rle.NewEncoder(w, BitWidth(dict.Len())),
	}
}

func (e *IndexEncoder) Encoding() values.Encoding { return e.enc }

// Type returns the type of the dictionary values.
func (e *IndexEncoder) Type() values.Type { return e.typ }

// BitWidth returns the index bit width written to the page.
func (e *IndexEncoder) BitWidth() int { return e.idx.BitWidth() }

func (e *IndexEncoder) Reset(w values.Writer) {
	e.w = w
	e.idx.Reset(w)
	e.started = false
}

// WriteInt32 appends index i. Indices outside the dictionary fail with
// [values.ErrInvalidIndex].
func (e *IndexEncoder) WriteInt32(i int32) error {
	if i < 0 || int(i) >= e.size {
		err := fmt.Errorf("%w: index %d, dictionary has %d values", values.ErrInvalidIndex, i, e.size)
		return values.NewDecodingError(e.enc, e.typ, values.OpWrite, err)
	}
	if err := e.start(); err != nil {
		return values.NewDecodingError(e.enc, e.typ, values.OpWrite, err)
	}
	return values.NewDecodingError(e.enc, e.typ, values.OpWrite, e.idx.Write(uint64(i)))
}

// Flush ends the index stream. A page with no indices still gets its bit
// width byte.
func (e *IndexEncoder) Flush() error {
	if err := e.start(); err != nil {
		return values.NewDecodingError(e.enc, e.typ, values.OpFlush, err)
	}
	return values.NewDecodingError(e.enc, e.typ, values.OpFlush, e.idx.Flush())
}

func (e *IndexEncoder) start() error {
	if e.started {
		return nil
	}
	e.started = true
	return e.w.WriteByte(byte(e.idx.BitWidth()))
}
