// Package plain implements the PLAIN encoding.
//
// Fixed-width values are stored back to back as their little-endian byte
// representation: 4 bytes for int32 and float, 8 bytes for int64 and double,
// and the declared length for fixed-length byte arrays. Booleans are
// bit-packed eight per byte, least significant bit first. Variable-length
// byte arrays are stored as a 4-byte little-endian length followed by that
// many bytes.
package plain

import (
	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// base holds the state shared by every PLAIN decoder.
type base struct {
	typ   values.Type
	limit values.Limit
	w     *window.Window
}

func (b *base) Encoding() values.Encoding { return values.Plain }

func (b *base) Type() values.Type { return b.typ }

func (b *base) Remaining() int { return b.limit.Remaining() }

func (b *base) init(valueCount int, w *window.Window) error {
	if err := b.limit.Init(valueCount); err != nil {
		return b.fail(values.OpInit, err)
	}
	if w == nil {
		w = window.Of(nil)
	}
	b.w = w
	return nil
}

func (b *base) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.Plain, b.typ, op, err)
}

// fixed reserves up to n values of size bytes each and returns their bytes.
// If the window ends first, it returns the whole values that fit along with
// the error a value-at-a-time read would have hit.
func (b *base) fixed(n, size int) ([]byte, int, error) {
	if n == 0 {
		return nil, 0, nil
	}
	m := n
	if avail := b.w.Remaining() / size; avail < m {
		m = avail
	}
	buf, err := b.w.ReadBytes(m * size)
	if err != nil {
		return nil, 0, err
	}
	if m < n {
		_, err = b.w.ReadBytes(size)
		b.limit.Release(n - m - 1)
	}
	return buf, m, err
}

// encBase holds the state shared by every PLAIN encoder.
type encBase struct {
	typ values.Type
	w   values.Writer
}

func (e *encBase) Encoding() values.Encoding { return values.Plain }

func (e *encBase) Type() values.Type { return e.typ }

func (e *encBase) Reset(w values.Writer) { e.w = w }

// Flush is a no-op for every PLAIN encoder except booleans.
func (e *encBase) Flush() error { return nil }

func (e *encBase) fail(err error) error {
	return values.NewDecodingError(values.Plain, e.typ, values.OpWrite, err)
}

func (e *encBase) write(b []byte) error {
	_, err := e.w.Write(b)
	return e.fail(err)
}
