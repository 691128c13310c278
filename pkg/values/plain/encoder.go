package plain

import (
	"encoding/binary"
	"math"

	"github.com/jacques-n/parquet-mr/pkg/values"
)

// Int32Encoder encodes PLAIN int32 values.
type Int32Encoder struct {
	encBase
	buf [4]byte
}

var _ values.Int32Encoder = (*Int32Encoder)(nil)

// NewInt32Encoder creates an Int32Encoder writing to w.
func NewInt32Encoder(w values.Writer) *Int32Encoder {
	return &Int32Encoder{encBase: encBase{typ: values.Int32, w: w}}
}

func (e *Int32Encoder) WriteInt32(v int32) error {
	binary.LittleEndian.PutUint32(e.buf[:], uint32(v))
	return e.write(e.buf[:])
}

// Int64Encoder encodes PLAIN int64 values.
type Int64Encoder struct {
	encBase
	buf [8]byte
}

var _ values.Int64Encoder = (*Int64Encoder)(nil)

// NewInt64Encoder creates an Int64Encoder writing to w.
func NewInt64Encoder(w values.Writer) *Int64Encoder {
	return &Int64Encoder{encBase: encBase{typ: values.Int64, w: w}}
}

func (e *Int64Encoder) WriteInt64(v int64) error {
	binary.LittleEndian.PutUint64(e.buf[:], uint64(v))
	return e.write(e.buf[:])
}

// FloatEncoder encodes PLAIN float values.
type FloatEncoder struct {
	encBase
	buf [4]byte
}

var _ values.FloatEncoder = (*FloatEncoder)(nil)

// NewFloatEncoder creates a FloatEncoder writing to w.
func NewFloatEncoder(w values.Writer) *FloatEncoder {
	return &FloatEncoder{encBase: encBase{typ: values.Float, w: w}}
}

func (e *FloatEncoder) WriteFloat(v float32) error {
	binary.LittleEndian.PutUint32(e.buf[:], math.Float32bits(v))
	return e.write(e.buf[:])
}

// DoubleEncoder encodes PLAIN double values.
type DoubleEncoder struct {
	encBase
	buf [8]byte
}

var _ values.DoubleEncoder = (*DoubleEncoder)(nil)

// NewDoubleEncoder creates a DoubleEncoder writing to w.
func NewDoubleEncoder(w values.Writer) *DoubleEncoder {
	return &DoubleEncoder{encBase: encBase{typ: values.Double, w: w}}
}

func (e *DoubleEncoder) WriteDouble(v float64) error {
	binary.LittleEndian.PutUint64(e.buf[:], math.Float64bits(v))
	return e.write(e.buf[:])
}
