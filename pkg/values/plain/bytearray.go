package plain

import (
	"encoding/binary"
	"math"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// ByteArrayDecoder decodes PLAIN variable-length byte arrays. Returned slices
// borrow from the page buffer.
type ByteArrayDecoder struct{ base }

var _ values.ByteArrayDecoder = (*ByteArrayDecoder)(nil)

// NewByteArrayDecoder creates a ByteArrayDecoder. Call InitFromPage before use.
func NewByteArrayDecoder() *ByteArrayDecoder {
	return &ByteArrayDecoder{base{typ: values.ByteArray}}
}

func (d *ByteArrayDecoder) InitFromPage(valueCount int, w *window.Window) error {
	return d.init(valueCount, w)
}

func (d *ByteArrayDecoder) next() ([]byte, error) {
	n, err := d.w.ReadUint32()
	if err != nil {
		return nil, err
	}
	return d.w.ReadBytes(int(n))
}

// Skip reads the length of the next value and advances past its bytes.
func (d *ByteArrayDecoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	n, err := d.w.ReadUint32()
	if err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.w.Skip(int(n)))
}

// ReadByteArray decodes the next value.
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

// ReadByteArrays decodes len(dst) values.
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

// FixedLenByteArrayDecoder decodes PLAIN fixed-length byte arrays of a
// declared length. Returned slices borrow from the page buffer.
type FixedLenByteArrayDecoder struct {
	base
	length int
}

var _ values.ByteArrayDecoder = (*FixedLenByteArrayDecoder)(nil)

// NewFixedLenByteArrayDecoder creates a decoder for values of length bytes.
func NewFixedLenByteArrayDecoder(length int) *FixedLenByteArrayDecoder {
	return &FixedLenByteArrayDecoder{base: base{typ: values.FixedLenByteArray}, length: length}
}

// InitFromPage fails with [values.ErrFormat] if the declared length is not
// positive.
func (d *FixedLenByteArrayDecoder) InitFromPage(valueCount int, w *window.Window) error {
	if d.length <= 0 {
		return d.fail(values.OpInit, values.Formatf("invalid fixed length %d", d.length))
	}
	return d.init(valueCount, w)
}

// Skip advances past one value.
func (d *FixedLenByteArrayDecoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.w.Skip(d.length))
}

// ReadByteArray decodes the next value.
func (d *FixedLenByteArrayDecoder) ReadByteArray() ([]byte, error) {
	if err := d.limit.Next(); err != nil {
		return nil, d.fail(values.OpRead, err)
	}
	v, err := d.w.ReadBytes(d.length)
	if err != nil {
		return nil, d.fail(values.OpRead, err)
	}
	return v, nil
}

// ReadByteArrays decodes len(dst) values.
func (d *FixedLenByteArrayDecoder) ReadByteArrays(dst [][]byte) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	buf, m, err := d.fixed(n, d.length)
	for i := 0; i < m; i++ {
		off := i * d.length
		dst[i] = buf[off : off+d.length : off+d.length]
	}
	if err != nil {
		return m, d.fail(values.OpRead, err)
	}
	return m, d.fail(values.OpRead, limitErr)
}

// ByteArrayEncoder encodes PLAIN variable-length byte arrays.
type ByteArrayEncoder struct {
	encBase
	hdr [4]byte
}

var _ values.ByteArrayEncoder = (*ByteArrayEncoder)(nil)

// NewByteArrayEncoder creates a ByteArrayEncoder writing to w.
func NewByteArrayEncoder(w values.Writer) *ByteArrayEncoder {
	return &ByteArrayEncoder{encBase: encBase{typ: values.ByteArray, w: w}}
}

// WriteByteArray appends v. Values longer than math.MaxUint32 bytes fail with
// [values.ErrValueTooLarge].
func (e *ByteArrayEncoder) WriteByteArray(v []byte) error {
	if uint64(len(v)) > math.MaxUint32 {
		return e.fail(values.ErrValueTooLarge)
	}
	binary.LittleEndian.PutUint32(e.hdr[:], uint32(len(v)))
	if err := e.write(e.hdr[:]); err != nil {
		return err
	}
	return e.write(v)
}

// FixedLenByteArrayEncoder encodes PLAIN fixed-length byte arrays.
type FixedLenByteArrayEncoder struct {
	encBase
	length int
}

var _ values.ByteArrayEncoder = (*FixedLenByteArrayEncoder)(nil)

// NewFixedLenByteArrayEncoder creates an encoder for values of length bytes.
func NewFixedLenByteArrayEncoder(w values.Writer, length int) *FixedLenByteArrayEncoder {
	return &FixedLenByteArrayEncoder{encBase: encBase{typ: values.FixedLenByteArray, w: w}, length: length}
}

// WriteByteArray appends v, which must be exactly the declared length.
func (e *FixedLenByteArrayEncoder) WriteByteArray(v []byte) error {
	if len(v) != e.length {
		return e.fail(values.Formatf("value of %d bytes, fixed length is %d", len(v), e.length))
	}
	return e.write(v)
}
