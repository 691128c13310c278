package dictionary

import (
	"fmt"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/rle"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// decoder resolves hybrid-encoded indices against dict. The exported
// decoders below instantiate it once per primitive type.
type decoder[T any] struct {
	enc   values.Encoding
	typ   values.Type
	dict  []T
	limit values.Limit
	idx   rle.Decoder
}

func (d *decoder[T]) Encoding() values.Encoding { return d.enc }

func (d *decoder[T]) Type() values.Type { return d.typ }

func (d *decoder[T]) Remaining() int { return d.limit.Remaining() }

// BitWidth returns the index bit width read from the page.
func (d *decoder[T]) BitWidth() int { return d.idx.BitWidth() }

// InitFromPage reads the index bit width and binds the index stream. Widths
// above [MaxBitWidth] fail with [values.ErrFormat]. A page declaring no
// values may be empty.
func (d *decoder[T]) InitFromPage(valueCount int, w *window.Window) error {
	if err := d.limit.Init(valueCount); err != nil {
		return d.fail(values.OpInit, err)
	}
	if w == nil {
		w = window.Of(nil)
	}
	if valueCount == 0 && w.Remaining() == 0 {
		return d.fail(values.OpInit, d.idx.Reset(w, 0))
	}
	width, err := w.ReadByte()
	if err != nil {
		return d.fail(values.OpInit, err)
	}
	if width > MaxBitWidth {
		return d.fail(values.OpInit, values.Formatf("index bit width %d exceeds %d", width, MaxBitWidth))
	}
	return d.fail(values.OpInit, d.idx.Reset(w, int(width)))
}

// Skip advances past one index without resolving it.
func (d *decoder[T]) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.idx.Skip())
}

func (d *decoder[T]) read() (T, error) {
	var zero T
	if err := d.limit.Next(); err != nil {
		return zero, d.fail(values.OpRead, err)
	}
	i, err := d.idx.Next()
	if err != nil {
		return zero, d.fail(values.OpRead, err)
	}
	if i >= uint64(len(d.dict)) {
		return zero, d.fail(values.OpRead, d.invalid(i))
	}
	return d.dict[i], nil
}

func (d *decoder[T]) readBatch(dst []T) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	var buf [64]uint64
	for done := 0; done < n; {
		m, err := d.idx.Read(buf[:min(len(buf), n-done)])
		for k := 0; k < m; k++ {
			i := buf[k]
			if i >= uint64(len(d.dict)) {
				d.limit.Release(n - done - k - 1)
				return done + k, d.fail(values.OpRead, d.invalid(i))
			}
			dst[done+k] = d.dict[i]
		}
		done += m
		if err != nil {
			d.limit.Release(n - done - 1)
			return done, d.fail(values.OpRead, err)
		}
	}
	return n, d.fail(values.OpRead, limitErr)
}

func (d *decoder[T]) invalid(i uint64) error {
	return fmt.Errorf("%w: index %d, dictionary has %d values", values.ErrInvalidIndex, i, len(d.dict))
}

func (d *decoder[T]) fail(op values.Op, err error) error {
	return values.NewDecodingError(d.enc, d.typ, op, err)
}

// Int32Decoder resolves indices against an int32 dictionary.
type Int32Decoder struct{ decoder[int32] }

var _ values.Int32Decoder = (*Int32Decoder)(nil)

// NewInt32Decoder creates a decoder labelled with enc, which is either
// PLAIN_DICTIONARY or RLE_DICTIONARY.
func NewInt32Decoder(enc values.Encoding, dict Int32Values) *Int32Decoder {
	return &Int32Decoder{decoder[int32]{enc: enc, typ: values.Int32, dict: dict}}
}

func (d *Int32Decoder) ReadInt32() (int32, error) { return d.read() }

func (d *Int32Decoder) ReadInt32s(dst []int32) (int, error) { return d.readBatch(dst) }

// Int64Decoder resolves indices against an int64 dictionary.
type Int64Decoder struct{ decoder[int64] }

var _ values.Int64Decoder = (*Int64Decoder)(nil)

func NewInt64Decoder(enc values.Encoding, dict Int64Values) *Int64Decoder {
	return &Int64Decoder{decoder[int64]{enc: enc, typ: values.Int64, dict: dict}}
}

func (d *Int64Decoder) ReadInt64() (int64, error) { return d.read() }

func (d *Int64Decoder) ReadInt64s(dst []int64) (int, error) { return d.readBatch(dst) }

// FloatDecoder resolves indices against a float dictionary.
type FloatDecoder struct{ decoder[float32] }

var _ values.FloatDecoder = (*FloatDecoder)(nil)

func NewFloatDecoder(enc values.Encoding, dict FloatValues) *FloatDecoder {
	return &FloatDecoder{decoder[float32]{enc: enc, typ: values.Float, dict: dict}}
}

func (d *FloatDecoder) ReadFloat() (float32, error) { return d.read() }

func (d *FloatDecoder) ReadFloats(dst []float32) (int, error) { return d.readBatch(dst) }

// DoubleDecoder resolves indices against a double dictionary.
type DoubleDecoder struct{ decoder[float64] }

var _ values.DoubleDecoder = (*DoubleDecoder)(nil)

func NewDoubleDecoder(enc values.Encoding, dict DoubleValues) *DoubleDecoder {
	return &DoubleDecoder{decoder[float64]{enc: enc, typ: values.Double, dict: dict}}
}

func (d *DoubleDecoder) ReadDouble() (float64, error) { return d.read() }

func (d *DoubleDecoder) ReadDoubles(dst []float64) (int, error) { return d.readBatch(dst) }

// ByteArrayDecoder resolves indices against a byte array dictionary. The
// returned slices are shared with the dictionary and must not be modified.
type ByteArrayDecoder struct{ decoder[[]byte] }

var _ values.ByteArrayDecoder = (*ByteArrayDecoder)(nil)

func NewByteArrayDecoder(enc values.Encoding, dict ByteArrayValues) *ByteArrayDecoder {
	return &ByteArrayDecoder{decoder[[]byte]{enc: enc, typ: values.ByteArray, dict: dict}}
}

// NewFixedLenByteArrayDecoder creates a decoder over a fixed-length byte
// array dictionary.
func NewFixedLenByteArrayDecoder(enc values.Encoding, dict FixedLenByteArrayValues) *ByteArrayDecoder {
	return &ByteArrayDecoder{decoder[[]byte]{enc: enc, typ: values.FixedLenByteArray, dict: dict}}
}

func (d *ByteArrayDecoder) ReadByteArray() ([]byte, error) { return d.read() }

func (d *ByteArrayDecoder) ReadByteArrays(dst [][]byte) (int, error) { return d.readBatch(dst) }
