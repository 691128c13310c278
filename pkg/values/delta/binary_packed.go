package delta

import (
	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// intDecoder decodes a DELTA_BINARY_PACKED page. The page may stop early:
// when the stream holds fewer values than declared, decoding ends at the
// smaller count.
type intDecoder[T integer] struct {
	typ   values.Type
	bits  int
	limit values.Limit
	r     reader[T]
}

func (d *intDecoder[T]) Encoding() values.Encoding { return values.DeltaBinaryPacked }

func (d *intDecoder[T]) Type() values.Type { return d.typ }

func (d *intDecoder[T]) Remaining() int { return d.limit.Remaining() }

func (d *intDecoder[T]) InitFromPage(valueCount int, w *window.Window) error {
	if err := d.limit.Init(valueCount); err != nil {
		return d.fail(values.OpInit, err)
	}
	if w == nil {
		w = window.Of(nil)
	}
	if valueCount == 0 && w.Remaining() == 0 {
		return nil
	}
	if err := d.r.init(w, d.bits); err != nil {
		return d.fail(values.OpInit, err)
	}
	d.limit.Shrink(d.r.total)
	return nil
}

func (d *intDecoder[T]) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	_, err := d.r.next()
	return d.fail(values.OpSkip, err)
}

func (d *intDecoder[T]) read() (T, error) {
	if err := d.limit.Next(); err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	v, err := d.r.next()
	if err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	return v, nil
}

func (d *intDecoder[T]) readBatch(dst []T) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	for i := 0; i < n; i++ {
		v, err := d.r.next()
		if err != nil {
			d.limit.Release(n - i - 1)
			return i, d.fail(values.OpRead, err)
		}
		dst[i] = v
	}
	return n, d.fail(values.OpRead, limitErr)
}

func (d *intDecoder[T]) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.DeltaBinaryPacked, d.typ, op, err)
}

// Int32Decoder decodes DELTA_BINARY_PACKED int32 values.
type Int32Decoder struct{ intDecoder[int32] }

var _ values.Int32Decoder = (*Int32Decoder)(nil)

// NewInt32Decoder creates an Int32Decoder. Call InitFromPage before use.
func NewInt32Decoder() *Int32Decoder {
	return &Int32Decoder{intDecoder[int32]{typ: values.Int32, bits: 32}}
}

func (d *Int32Decoder) ReadInt32() (int32, error) { return d.read() }

func (d *Int32Decoder) ReadInt32s(dst []int32) (int, error) { return d.readBatch(dst) }

// Int64Decoder decodes DELTA_BINARY_PACKED int64 values.
type Int64Decoder struct{ intDecoder[int64] }

var _ values.Int64Decoder = (*Int64Decoder)(nil)

// NewInt64Decoder creates an Int64Decoder. Call InitFromPage before use.
func NewInt64Decoder() *Int64Decoder {
	return &Int64Decoder{intDecoder[int64]{typ: values.Int64, bits: 64}}
}

func (d *Int64Decoder) ReadInt64() (int64, error) { return d.read() }

func (d *Int64Decoder) ReadInt64s(dst []int64) (int, error) { return d.readBatch(dst) }

// intEncoder buffers values until Flush since the header carries the total
// value count.
type intEncoder[T integer] struct {
	typ     values.Type
	bits    int
	cfg     config
	w       values.Writer
	vals    []T
	buf     []byte
	flushed bool
}

func (e *intEncoder[T]) Encoding() values.Encoding { return values.DeltaBinaryPacked }

func (e *intEncoder[T]) Type() values.Type { return e.typ }

func (e *intEncoder[T]) Reset(w values.Writer) {
	e.w = w
	e.vals = e.vals[:0]
	e.flushed = false
}

func (e *intEncoder[T]) write(v T) error {
	e.vals = append(e.vals, v)
	e.flushed = false
	return nil
}

// Flush writes the buffered values as one stream. Flushing an encoder that
// was never written to produces an empty stream.
func (e *intEncoder[T]) Flush() error {
	if e.flushed {
		return nil
	}
	if err := checkBlockSize(uint64(e.cfg.blockSize), uint64(e.cfg.miniBlocks)); err != nil {
		return values.NewDecodingError(values.DeltaBinaryPacked, e.typ, values.OpFlush, err)
	}
	e.buf = appendBinaryPacked(e.buf[:0], e.vals, e.bits, e.cfg)
	e.vals = e.vals[:0]
	e.flushed = true
	_, err := e.w.Write(e.buf)
	return values.NewDecodingError(values.DeltaBinaryPacked, e.typ, values.OpFlush, err)
}

// Int32Encoder encodes DELTA_BINARY_PACKED int32 values.
type Int32Encoder struct{ intEncoder[int32] }

var _ values.Int32Encoder = (*Int32Encoder)(nil)

// NewInt32Encoder creates an Int32Encoder writing to w.
func NewInt32Encoder(w values.Writer, opts ...Option) *Int32Encoder {
	return &Int32Encoder{intEncoder[int32]{typ: values.Int32, bits: 32, cfg: newConfig(opts), w: w}}
}

func (e *Int32Encoder) WriteInt32(v int32) error { return e.write(v) }

// Int64Encoder encodes DELTA_BINARY_PACKED int64 values.
type Int64Encoder struct{ intEncoder[int64] }

var _ values.Int64Encoder = (*Int64Encoder)(nil)

// NewInt64Encoder creates an Int64Encoder writing to w.
func NewInt64Encoder(w values.Writer, opts ...Option) *Int64Encoder {
	return &Int64Encoder{intEncoder[int64]{typ: values.Int64, bits: 64, cfg: newConfig(opts), w: w}}
}

func (e *Int64Encoder) WriteInt64(v int64) error { return e.write(v) }
