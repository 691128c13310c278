package codec

import (
	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/delta"
	"github.com/jacques-n/parquet-mr/pkg/values/rle"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// Layout describes the structure of a page's data section. Only the fields
// that apply to the page's encoding are set.
type Layout struct {
	LengthPrefix  int           `json:"length_prefix,omitempty"`   // RLE boolean stream length
	IndexBitWidth int           `json:"index_bit_width,omitempty"` // Leading width byte of dictionary pages
	Runs          []rle.Run     `json:"runs,omitempty"`
	Delta         *delta.Header `json:"delta,omitempty"` // Values, lengths or prefix lengths
}

// Layout walks the headers of the data section without decoding values. On
// a malformed page it returns what it read before the fault.
func (p *Page) Layout() (*Layout, error) {
	l := &Layout{}
	w := window.Of(p.Data)
	n := int(p.ValueCount)

	fail := func(err error) (*Layout, error) {
		return l, values.NewDecodingError(p.Encoding, p.Type, values.OpInit, err)
	}

	switch {
	case p.Encoding == values.RLE && p.Type == values.Boolean:
		if n == 0 && w.Remaining() == 0 {
			return l, nil
		}
		size, err := w.ReadUint32()
		if err != nil {
			return fail(err)
		}
		l.LengthPrefix = int(size)
		sub, err := w.Sub(int(size))
		if err != nil {
			return fail(err)
		}
		if l.Runs, err = rle.Runs(sub, 1, n); err != nil {
			return fail(err)
		}
	case p.Encoding == values.RLE:
		var err error
		if l.Runs, err = rle.Runs(w, int(p.BitWidth), n); err != nil {
			return fail(err)
		}
	case p.Encoding.IsDictionary():
		if n == 0 && w.Remaining() == 0 {
			return l, nil
		}
		width, err := w.ReadByte()
		if err != nil {
			return fail(err)
		}
		l.IndexBitWidth = int(width)
		if l.Runs, err = rle.Runs(w, int(width), n); err != nil {
			return fail(err)
		}
	case p.Encoding == values.DeltaBinaryPacked,
		p.Encoding == values.DeltaLengthByteArray,
		p.Encoding == values.DeltaByteArray:
		h, err := delta.ReadHeader(w)
		if err != nil {
			return fail(err)
		}
		l.Delta = &h
	}
	return l, nil
}
