package plain

import (
	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// BooleanDecoder decodes PLAIN booleans, packed eight per byte starting at the
// least significant bit.
type BooleanDecoder struct {
	base
	cur byte
	bit uint8 // Next bit of cur to return; 8 means cur is used up.
}

var _ values.BooleanDecoder = (*BooleanDecoder)(nil)

// NewBooleanDecoder creates a BooleanDecoder. Call InitFromPage before use.
func NewBooleanDecoder() *BooleanDecoder {
	return &BooleanDecoder{base: base{typ: values.Boolean}}
}

func (d *BooleanDecoder) InitFromPage(valueCount int, w *window.Window) error {
	if err := d.init(valueCount, w); err != nil {
		return err
	}
	d.cur, d.bit = 0, 8
	return nil
}

func (d *BooleanDecoder) next() (bool, error) {
	if d.bit == 8 {
		b, err := d.w.ReadByte()
		if err != nil {
			return false, err
		}
		d.cur, d.bit = b, 0
	}
	v := d.cur>>d.bit&1 == 1
	d.bit++
	return v, nil
}

// Skip advances one bit. A new byte is consumed only after the eight bits of
// the current one have been used.
func (d *BooleanDecoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	_, err := d.next()
	return d.fail(values.OpSkip, err)
}

// ReadBoolean decodes the next value.
func (d *BooleanDecoder) ReadBoolean() (bool, error) {
	if err := d.limit.Next(); err != nil {
		return false, d.fail(values.OpRead, err)
	}
	v, err := d.next()
	if err != nil {
		return false, d.fail(values.OpRead, err)
	}
	return v, nil
}

// ReadBooleans decodes len(dst) values.
func (d *BooleanDecoder) ReadBooleans(dst []bool) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	for i := 0; i < n; i++ {
		v, err := d.next()
		if err != nil {
			d.limit.Release(n - i - 1)
			return i, d.fail(values.OpRead, err)
		}
		dst[i] = v
	}
	return n, d.fail(values.OpRead, limitErr)
}

// BooleanEncoder encodes PLAIN booleans. The final partial byte is written,
// zero padded, by Flush.
type BooleanEncoder struct {
	encBase
	cur  byte
	bits uint8
}

var _ values.BooleanEncoder = (*BooleanEncoder)(nil)

// NewBooleanEncoder creates a BooleanEncoder writing to w.
func NewBooleanEncoder(w values.Writer) *BooleanEncoder {
	return &BooleanEncoder{encBase: encBase{typ: values.Boolean, w: w}}
}

// WriteBoolean appends v.
func (e *BooleanEncoder) WriteBoolean(v bool) error {
	if v {
		e.cur |= 1 << e.bits
	}
	e.bits++
	if e.bits < 8 {
		return nil
	}
	return e.emit()
}

// Flush writes the pending partial byte, if any.
func (e *BooleanEncoder) Flush() error {
	if e.bits == 0 {
		return nil
	}
	if err := e.emit(); err != nil {
		return values.NewDecodingError(values.Plain, values.Boolean, values.OpFlush, err)
	}
	return nil
}

// Reset drops any pending bits and switches to w.
func (e *BooleanEncoder) Reset(w values.Writer) {
	e.w = w
	e.cur, e.bits = 0, 0
}

func (e *BooleanEncoder) emit() error {
	b := e.cur
	e.cur, e.bits = 0, 0
	return e.fail(e.w.WriteByte(b))
}
