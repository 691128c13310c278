package delta

import (
	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// ByteArrayDecoder decodes DELTA_BYTE_ARRAY values, also known as
// incremental encoding. The page holds the length of the prefix each value
// shares with its predecessor as a DELTA_BINARY_PACKED stream, followed by
// the remaining suffixes as DELTA_LENGTH_BYTE_ARRAY data.
//
// Values with an empty prefix borrow from the page buffer; others are
// freshly allocated. Skip must still rebuild the value since the next one
// may share its prefix.
type ByteArrayDecoder struct {
	typ      values.Type
	length   int
	limit    values.Limit
	prefixes reader[int32]
	suffixes lengthStream
	prev     []byte
}

var _ values.ByteArrayDecoder = (*ByteArrayDecoder)(nil)

// NewByteArrayDecoder creates a decoder for variable-length byte arrays.
func NewByteArrayDecoder() *ByteArrayDecoder {
	return &ByteArrayDecoder{typ: values.ByteArray}
}

// NewFixedLenByteArrayDecoder creates a decoder for byte arrays of length
// bytes. Values of any other length fail with [values.ErrFormat].
func NewFixedLenByteArrayDecoder(length int) *ByteArrayDecoder {
	return &ByteArrayDecoder{typ: values.FixedLenByteArray, length: length}
}

func (d *ByteArrayDecoder) Encoding() values.Encoding { return values.DeltaByteArray }

func (d *ByteArrayDecoder) Type() values.Type { return d.typ }

func (d *ByteArrayDecoder) Remaining() int { return d.limit.Remaining() }

func (d *ByteArrayDecoder) InitFromPage(valueCount int, w *window.Window) error {
	if err := d.limit.Init(valueCount); err != nil {
		return d.fail(values.OpInit, err)
	}
	if d.typ == values.FixedLenByteArray && d.length <= 0 {
		return d.fail(values.OpInit, values.Formatf("invalid fixed length %d", d.length))
	}
	if w == nil {
		w = window.Of(nil)
	}
	if valueCount == 0 && w.Remaining() == 0 {
		return nil
	}

	if err := d.prefixes.initSkipping(w, 32); err != nil {
		return d.fail(values.OpInit, err)
	}
	if err := d.suffixes.init(w); err != nil {
		return d.fail(values.OpInit, err)
	}
	if d.suffixes.count() != d.prefixes.total {
		err := values.Formatf("%d prefix lengths but %d suffixes", d.prefixes.total, d.suffixes.count())
		return d.fail(values.OpInit, err)
	}
	d.limit.Shrink(d.prefixes.total)
	return nil
}

func (d *ByteArrayDecoder) next() ([]byte, error) {
	i := d.prefixes.produced
	p, err := nextLength(&d.prefixes)
	if err != nil {
		return nil, err
	}
	if p > len(d.prev) {
		return nil, values.Formatf("prefix length %d of value %d exceeds previous value of %d bytes", p, i, len(d.prev))
	}
	suffix, err := d.suffixes.next()
	if err != nil {
		return nil, err
	}

	v := suffix
	if p > 0 {
		v = make([]byte, p+len(suffix))
		copy(v, d.prev[:p])
		copy(v[p:], suffix)
	}
	if d.typ == values.FixedLenByteArray && len(v) != d.length {
		return nil, values.Formatf("value of %d bytes, fixed length is %d", len(v), d.length)
	}
	d.prev = v
	return v, nil
}

func (d *ByteArrayDecoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	_, err := d.next()
	return d.fail(values.OpSkip, err)
}

func (d *ByteArrayDecoder) ReadByteArray() ([]byte, error) {
	if err := d.limit.Next(); err != nil {
		return nil, d.fail(values.OpRead, err)
	}
	v, err := d.next()
	if err != nil {
		return nil, d.fail(values.OpRead, err)
	}
	return v, nil
}

func (d *ByteArrayDecoder) ReadByteArrays(dst [][]byte) (int, error) {
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

func (d *ByteArrayDecoder) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.DeltaByteArray, d.typ, op, err)
}

// ByteArrayEncoder encodes DELTA_BYTE_ARRAY values. Values are copied and
// held until Flush.
type ByteArrayEncoder struct {
	typ      values.Type
	length   int
	w        values.Writer
	cfg      config
	prefixes []int32
	suffixes lengthBuffer
	prev     []byte
	buf      []byte
	flushed  bool
}

var _ values.ByteArrayEncoder = (*ByteArrayEncoder)(nil)

// NewByteArrayEncoder creates an encoder for variable-length byte arrays.
func NewByteArrayEncoder(w values.Writer, opts ...Option) *ByteArrayEncoder {
	return &ByteArrayEncoder{typ: values.ByteArray, w: w, cfg: newConfig(opts)}
}

// NewFixedLenByteArrayEncoder creates an encoder for byte arrays of length
// bytes.
func NewFixedLenByteArrayEncoder(w values.Writer, length int, opts ...Option) *ByteArrayEncoder {
	return &ByteArrayEncoder{typ: values.FixedLenByteArray, length: length, w: w, cfg: newConfig(opts)}
}

func (e *ByteArrayEncoder) Encoding() values.Encoding { return values.DeltaByteArray }

func (e *ByteArrayEncoder) Type() values.Type { return e.typ }

func (e *ByteArrayEncoder) Reset(w values.Writer) {
	e.w = w
	e.reset()
	e.flushed = false
}

func (e *ByteArrayEncoder) reset() {
	e.prefixes = e.prefixes[:0]
	e.suffixes.reset()
	e.prev = e.prev[:0]
}

func (e *ByteArrayEncoder) WriteByteArray(v []byte) error {
	if e.typ == values.FixedLenByteArray && len(v) != e.length {
		return e.fail(values.OpWrite, values.Formatf("value of %d bytes, fixed length is %d", len(v), e.length))
	}
	p := commonPrefix(e.prev, v)
	if err := e.suffixes.add(v[p:]); err != nil {
		return e.fail(values.OpWrite, err)
	}
	e.prefixes = append(e.prefixes, int32(p))
	e.prev = append(e.prev[:0], v...)
	e.flushed = false
	return nil
}

func (e *ByteArrayEncoder) Flush() error {
	if e.flushed {
		return nil
	}
	if err := checkBlockSize(uint64(e.cfg.blockSize), uint64(e.cfg.miniBlocks)); err != nil {
		return e.fail(values.OpFlush, err)
	}
	e.buf = appendBinaryPacked(e.buf[:0], e.prefixes, 32, e.cfg)
	e.buf = e.suffixes.appendTo(e.buf, e.cfg)
	e.reset()
	e.flushed = true
	_, err := e.w.Write(e.buf)
	return e.fail(values.OpFlush, err)
}

func (e *ByteArrayEncoder) fail(op values.Op, err error) error {
	return values.NewDecodingError(values.DeltaByteArray, e.typ, op, err)
}

func commonPrefix(a, b []byte) int {
	n := min(len(a), len(b), 1<<31-1)
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
