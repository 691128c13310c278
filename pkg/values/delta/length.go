package delta

import (
	"math"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// lengthStream reads DELTA_LENGTH_BYTE_ARRAY data: the value lengths as one
// DELTA_BINARY_PACKED stream, then the values back to back. Lengths are
// decoded as values are read.
type lengthStream struct {
	lengths reader[int32]
	w       *window.Window
}

func (s *lengthStream) init(w *window.Window) error {
	*s = lengthStream{w: w}
	return s.lengths.initSkipping(w, 32)
}

func (s *lengthStream) count() int { return s.lengths.total }

func (s *lengthStream) nextLength() (int, error) { return nextLength(&s.lengths) }

func (s *lengthStream) next() ([]byte, error) {
	n, err := s.nextLength()
	if err != nil {
		return nil, err
	}
	return s.w.ReadBytes(n)
}

func (s *lengthStream) skip() error {
	n, err := s.nextLength()
	if err != nil {
		return err
	}
	return s.w.Skip(n)
}

// nextLength reads the next value of a stream of lengths.
func nextLength(r *reader[int32]) (int, error) {
	i := r.produced
	n, err := r.next()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, values.Formatf("negative length %d for value %d", n, i)
	}
	return int(n), nil
}

// LengthByteArrayDecoder decodes DELTA_LENGTH_BYTE_ARRAY values. Values
// borrow from the page buffer.
type LengthByteArrayDecoder struct {
	limit values.Limit
	s     lengthStream
}

var _ values.ByteArrayDecoder = (*LengthByteArrayDecoder)(nil)

// NewLengthByteArrayDecoder creates a LengthByteArrayDecoder. Call
// InitFromPage before use.
func NewLengthByteArrayDecoder() *LengthByteArrayDecoder {
	return &LengthByteArrayDecoder{}
}

func (d *LengthByteArrayDecoder) Encoding() values.Encoding { return values.DeltaLengthByteArray }

func (d *LengthByteArrayDecoder) Type() values.Type { return values.ByteArray }

func (d *LengthByteArrayDecoder) Remaining() int { return d.limit.Remaining() }

func (d *LengthByteArrayDecoder) InitFromPage(valueCount int, w *window.Window) error {
	if err := d.limit.Init(valueCount); err != nil {
		return d.fail(values.OpInit, err)
	}
	if w == nil {
		w = window.Of(nil)
	}
	if valueCount == 0 && w.Remaining() == 0 {
		return nil
	}
	if err := d.s.init(w); err != nil {
		return d.fail(values.OpInit, err)
	}
	d.limit.Shrink(d.s.count())
	return nil
}

func (d *LengthByteArrayDecoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.s.skip())
}

func (d *LengthByteArrayDecoder) ReadByteArray() ([]byte, error) {
	if err := d.limit.Next(); err != nil {
		return nil, d.fail(values.OpRead, err)
	}
	v, err := d.s.next()
	if err != nil {
		return nil, d.fail(values.OpRead, err)
	}
	return v, nil
}

func (d *LengthByteArrayDecoder) ReadByteArrays(dst [][]byte) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	for i := 0; i < n; i++ {
		v, err := d.s.next()
		if err != nil {
			d.limit.Release(n - i - 1)
			return i, d.fail(values.OpRead, err)
		}
		dst[i] = v
	}
	return n, d.fail(values.OpRead, limitErr)
}

func (d *LengthByteArrayDecoder) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.DeltaLengthByteArray, values.ByteArray, op, err)
}

// lengthBuffer accumulates DELTA_LENGTH_BYTE_ARRAY output.
type lengthBuffer struct {
	lengths []int32
	data    []byte
}

func (b *lengthBuffer) add(v []byte) error {
	if len(v) > math.MaxInt32 {
		return values.ErrValueTooLarge
	}
	b.lengths = append(b.lengths, int32(len(v)))
	b.data = append(b.data, v...)
	return nil
}

func (b *lengthBuffer) appendTo(dst []byte, c config) []byte {
	dst = appendBinaryPacked(dst, b.lengths, 32, c)
	return append(dst, b.data...)
}

func (b *lengthBuffer) reset() {
	b.lengths = b.lengths[:0]
	b.data = b.data[:0]
}

// LengthByteArrayEncoder encodes DELTA_LENGTH_BYTE_ARRAY values. Values are
// copied and held until Flush.
type LengthByteArrayEncoder struct {
	w       values.Writer
	cfg     config
	vals    lengthBuffer
	buf     []byte
	flushed bool
}

var _ values.ByteArrayEncoder = (*LengthByteArrayEncoder)(nil)

// NewLengthByteArrayEncoder creates a LengthByteArrayEncoder writing to w.
// The options configure the blocks of the length stream.
func NewLengthByteArrayEncoder(w values.Writer, opts ...Option) *LengthByteArrayEncoder {
	return &LengthByteArrayEncoder{w: w, cfg: newConfig(opts)}
}

func (e *LengthByteArrayEncoder) Encoding() values.Encoding { return values.DeltaLengthByteArray }

func (e *LengthByteArrayEncoder) Type() values.Type { return values.ByteArray }

func (e *LengthByteArrayEncoder) Reset(w values.Writer) {
	e.w = w
	e.vals.reset()
	e.flushed = false
}

func (e *LengthByteArrayEncoder) WriteByteArray(v []byte) error {
	e.flushed = false
	return e.fail(values.OpWrite, e.vals.add(v))
}

func (e *LengthByteArrayEncoder) Flush() error {
	if e.flushed {
		return nil
	}
	if err := checkBlockSize(uint64(e.cfg.blockSize), uint64(e.cfg.miniBlocks)); err != nil {
		return e.fail(values.OpFlush, err)
	}
	e.buf = e.vals.appendTo(e.buf[:0], e.cfg)
	e.vals.reset()
	e.flushed = true
	_, err := e.w.Write(e.buf)
	return e.fail(values.OpFlush, err)
}

func (e *LengthByteArrayEncoder) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.DeltaLengthByteArray, values.ByteArray, op, err)
}
