package plain

import (
	"encoding/binary"
	"math"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// Int32Decoder decodes PLAIN int32 values.
type Int32Decoder struct{ base }

var _ values.Int32Decoder = (*Int32Decoder)(nil)

// NewInt32Decoder creates an Int32Decoder. Call InitFromPage before use.
func NewInt32Decoder() *Int32Decoder {
	return &Int32Decoder{base{typ: values.Int32}}
}

func (d *Int32Decoder) InitFromPage(valueCount int, w *window.Window) error {
	return d.init(valueCount, w)
}

// Skip advances past one value.
func (d *Int32Decoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.w.Skip(4))
}

// ReadInt32 decodes the next value.
func (d *Int32Decoder) ReadInt32() (int32, error) {
	if err := d.limit.Next(); err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	v, err := d.w.ReadInt32()
	if err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	return v, nil
}

// ReadInt32s decodes len(dst) values.
func (d *Int32Decoder) ReadInt32s(dst []int32) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	buf, m, err := d.fixed(n, 4)
	for i := 0; i < m; i++ {
		dst[i] = int32(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	if err != nil {
		return m, d.fail(values.OpRead, err)
	}
	return m, d.fail(values.OpRead, limitErr)
}

// Int64Decoder decodes PLAIN int64 values.
type Int64Decoder struct{ base }

var _ values.Int64Decoder = (*Int64Decoder)(nil)

// NewInt64Decoder creates an Int64Decoder. Call InitFromPage before use.
func NewInt64Decoder() *Int64Decoder {
	return &Int64Decoder{base{typ: values.Int64}}
}

func (d *Int64Decoder) InitFromPage(valueCount int, w *window.Window) error {
	return d.init(valueCount, w)
}

// Skip advances past one value.
func (d *Int64Decoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.w.Skip(8))
}

// ReadInt64 decodes the next value.
func (d *Int64Decoder) ReadInt64() (int64, error) {
	if err := d.limit.Next(); err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	v, err := d.w.ReadInt64()
	if err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	return v, nil
}

// ReadInt64s decodes len(dst) values.
func (d *Int64Decoder) ReadInt64s(dst []int64) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	buf, m, err := d.fixed(n, 8)
	for i := 0; i < m; i++ {
		dst[i] = int64(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	if err != nil {
		return m, d.fail(values.OpRead, err)
	}
	return m, d.fail(values.OpRead, limitErr)
}

// FloatDecoder decodes PLAIN float values.
type FloatDecoder struct{ base }

var _ values.FloatDecoder = (*FloatDecoder)(nil)

// NewFloatDecoder creates a FloatDecoder. Call InitFromPage before use.
func NewFloatDecoder() *FloatDecoder {
	return &FloatDecoder{base{typ: values.Float}}
}

func (d *FloatDecoder) InitFromPage(valueCount int, w *window.Window) error {
	return d.init(valueCount, w)
}

// Skip advances past one value.
func (d *FloatDecoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.w.Skip(4))
}

// ReadFloat decodes the next value.
func (d *FloatDecoder) ReadFloat() (float32, error) {
	if err := d.limit.Next(); err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	v, err := d.w.ReadFloat32()
	if err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	return v, nil
}

// ReadFloats decodes len(dst) values.
func (d *FloatDecoder) ReadFloats(dst []float32) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	buf, m, err := d.fixed(n, 4)
	for i := 0; i < m; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	if err != nil {
		return m, d.fail(values.OpRead, err)
	}
	return m, d.fail(values.OpRead, limitErr)
}

// DoubleDecoder decodes PLAIN double values.
type DoubleDecoder struct{ base }

var _ values.DoubleDecoder = (*DoubleDecoder)(nil)

// NewDoubleDecoder creates a DoubleDecoder. Call InitFromPage before use.
func NewDoubleDecoder() *DoubleDecoder {
	return &DoubleDecoder{base{typ: values.Double}}
}

func (d *DoubleDecoder) InitFromPage(valueCount int, w *window.Window) error {
	return d.init(valueCount, w)
}

// Skip advances past one value.
func (d *DoubleDecoder) Skip() error {
	if err := d.limit.Next(); err != nil {
		return d.fail(values.OpSkip, err)
	}
	return d.fail(values.OpSkip, d.w.Skip(8))
}

// ReadDouble decodes the next value.
func (d *DoubleDecoder) ReadDouble() (float64, error) {
	if err := d.limit.Next(); err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	v, err := d.w.ReadFloat64()
	if err != nil {
		return 0, d.fail(values.OpRead, err)
	}
	return v, nil
}

// ReadDoubles decodes len(dst) values.
func (d *DoubleDecoder) ReadDoubles(dst []float64) (int, error) {
	n, limitErr := d.limit.Take(len(dst))
	buf, m, err := d.fixed(n, 8)
	for i := 0; i < m; i++ {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	if err != nil {
		return m, d.fail(values.OpRead, err)
	}
	return m, d.fail(values.OpRead, limitErr)
}
