package rle

import (
	"bytes"
	"encoding/binary"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// Int32Decoder decodes RLE int32 values, such as definition and repetition
// levels. The page holds a bare hybrid stream.
type Int32Decoder struct {
	limit values.Limit
	dec   Decoder
	width int
}

var _ values.Int32Decoder = (*Int32Decoder)(nil)

// NewInt32Decoder creates a decoder for values of width bits.
func NewInt32Decoder(width int) *Int32Decoder {
	return &Int32Decoder{width: width}
}

func (d *Int32Decoder) Encoding() values.Encoding { return values.RLE }

func (d *Int32Decoder) Type() values.Type { return values.Int32 }

func (d *Int32Decoder) Remaining() int { return d.limit.Remaining() }

// InitFromPage fails with [values.ErrFormat] if the bit width is outside
// [0, 32].
func (d *Int32Decoder) InitFromPage(valueCount int, w *window.Window) error {
	if err := d.limit.Init(valueCount); err != nil {
		return d.fail(values.OpInit, err)
	}
	if d.width > 32 {
		return d.fail(values.OpInit, values.Formatf("bit width %d exceeds 32", d.width))
	}
	return d.fail(values.OpInit, d.dec.Reset(w, d.width))
}

func (d *Int32Decoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.dec.Skip())
}

func (d *Int32Decoder) ReadInt32() (int32, error) {
	if err := d.limit.Next(); err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	v, err := d.dec.Next()
	if err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	return int32(v), nil
}

func (d *Int32Decoder) ReadInt32s(dst []int32) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	var buf [64]uint64
	for done := 0; done < n; {
		m, err := d.dec.Read(buf[:min(len(buf), n-done)])
		for i := 0; i < m; i++ {
			dst[done+i] = int32(buf[i])
		}
		done += m
		if err != nil {
			d.limit.Release(n - done - 1)
			return done, d.fail(values.OpRead, err)
		}
	}
	return n, d.fail(values.OpRead, limitErr)
}

func (d *Int32Decoder) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.RLE, values.Int32, op, err)
}

// Int32Encoder encodes RLE int32 values of a fixed bit width.
type Int32Encoder struct {
	enc *Encoder
}

var _ values.Int32Encoder = (*Int32Encoder)(nil)

// NewInt32Encoder creates an encoder writing values of width bits to w.
func NewInt32Encoder(w values.Writer, width int) *Int32Encoder {
	return &Int32Encoder{enc: NewEncoder(w, width)}
}

func (e *Int32Encoder) Encoding() values.Encoding { return values.RLE }

func (e *Int32Encoder) Type() values.Type { return values.Int32 }

func (e *Int32Encoder) Reset(w values.Writer) { e.enc.Reset(w) }

// WriteInt32 appends v. Negative values fail with [values.ErrValueTooLarge].
func (e *Int32Encoder) WriteInt32(v int32) error {
	if v < 0 {
		return e.fail(values.OpWrite, values.ErrValueTooLarge)
	}
	return e.fail(values.OpWrite, e.enc.Write(uint64(v)))
}

func (e *Int32Encoder) Flush() error {
	return e.fail(values.OpFlush, e.enc.Flush())
}

func (e *Int32Encoder) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.RLE, values.Int32, op, err)
}

// BooleanDecoder decodes RLE booleans: a 4-byte little-endian length followed
// by a hybrid stream of that many bytes at bit width 1.
type BooleanDecoder struct {
	limit values.Limit
	dec   Decoder
}

var _ values.BooleanDecoder = (*BooleanDecoder)(nil)

// NewBooleanDecoder creates a BooleanDecoder. Call InitFromPage before use.
func NewBooleanDecoder() *BooleanDecoder { return &BooleanDecoder{} }

func (d *BooleanDecoder) Encoding() values.Encoding { return values.RLE }

func (d *BooleanDecoder) Type() values.Type { return values.Boolean }

func (d *BooleanDecoder) Remaining() int { return d.limit.Remaining() }

func (d *BooleanDecoder) InitFromPage(valueCount int, w *window.Window) error {
	if err := d.limit.Init(valueCount); err != nil {
		return d.fail(values.OpInit, err)
	}
	if w == nil {
		w = window.Of(nil)
	}
	if valueCount == 0 && w.Remaining() == 0 {
		return d.fail(values.OpInit, d.dec.Reset(w, 1))
	}
	n, err := w.ReadUint32()
	if err != nil {
		return d.fail(values.OpInit, err)
	}
	sub, err := w.Sub(int(n))
	if err != nil {
		return d.fail(values.OpInit, err)
	}
	return d.fail(values.OpInit, d.dec.Reset(sub, 1))
}

func (d *BooleanDecoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.dec.Skip())
}

func (d *BooleanDecoder) ReadBoolean() (bool, error) {
	if err := d.limit.Next(); err != nil {
		return false, d.fail(values.OpRead, err)
	}
	v, err := d.dec.Next()
	if err != nil {
		return false, d.fail(values.OpRead, err)
	}
	return v == 1, nil
}

func (d *BooleanDecoder) ReadBooleans(dst []bool) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	var buf [64]uint64
	for done := 0; done < n; {
		m, err := d.dec.Read(buf[:min(len(buf), n-done)])
		for i := 0; i < m; i++ {
			dst[done+i] = buf[i] == 1
		}
		done += m
		if err != nil {
			d.limit.Release(n - done - 1)
			return done, d.fail(values.OpRead, err)
		}
	}
	return n, d.fail(values.OpRead, limitErr)
}

func (d *BooleanDecoder) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.RLE, values.Boolean, op, err)
}

// BooleanEncoder encodes RLE booleans. The stream is held in memory until
// Flush, which writes the length prefix followed by the stream.
type BooleanEncoder struct {
	w   values.Writer
	buf bytes.Buffer
	enc *Encoder
}

var _ values.BooleanEncoder = (*BooleanEncoder)(nil)

// NewBooleanEncoder creates a BooleanEncoder writing to w.
func NewBooleanEncoder(w values.Writer) *BooleanEncoder {
	e := &BooleanEncoder{w: w}
	e.enc = NewEncoder(&e.buf, 1)
	return e
}

func (e *BooleanEncoder) Encoding() values.Encoding { return values.RLE }

func (e *BooleanEncoder) Type() values.Type { return values.Boolean }

func (e *BooleanEncoder) Reset(w values.Writer) {
	e.w = w
	e.buf.Reset()
	e.enc.Reset(&e.buf)
}

func (e *BooleanEncoder) WriteBoolean(v bool) error {
	var bit uint64
	if v {
		bit = 1
	}
	return e.fail(values.OpWrite, e.enc.Write(bit))
}

func (e *BooleanEncoder) Flush() error {
	if err := e.enc.Flush(); err != nil {
		return e.fail(values.OpFlush, err)
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(e.buf.Len()))
	if _, err := e.w.Write(hdr[:]); err != nil {
		return e.fail(values.OpFlush, err)
	}
	_, err := e.w.Write(e.buf.Bytes())
	e.buf.Reset()
	return e.fail(values.OpFlush, err)
}

func (e *BooleanEncoder) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.RLE, values.Boolean, op, err)
}
