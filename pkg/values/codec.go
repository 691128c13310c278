package values

import (
	"io"

	"github.com/jacques-n/parquet-mr/pkg/window"
)

// Writer is the destination of encoded values.
type Writer interface {
	io.Writer
	io.ByteWriter
}

// A Decoder reads a sequence of values of one primitive type from one page.
// Concrete decoders additionally implement exactly one of the typed
// interfaces below.
type Decoder interface {
	// Encoding returns the encoding handled by the decoder.
	Encoding() Encoding

	// Type returns the primitive type produced by the decoder.
	Type() Type

	// InitFromPage binds the decoder to w and declares how many values the
	// page holds. It must be called exactly once, before any other
	// operation.
	InitFromPage(valueCount int, w *window.Window) error

	// Skip advances past one value without materialising it.
	Skip() error

	// Remaining returns how many declared values have not been read or
	// skipped yet.
	Remaining() int
}

// BooleanDecoder decodes boolean values.
type BooleanDecoder interface {
	Decoder
	ReadBoolean() (bool, error)

	// ReadBooleans fills dst and returns the number of values decoded. It is
	// equivalent to calling ReadBoolean len(dst) times.
	ReadBooleans(dst []bool) (int, error)
}

// Int32Decoder decodes int32 values.
type Int32Decoder interface {
	Decoder
	ReadInt32() (int32, error)
	ReadInt32s(dst []int32) (int, error)
}

// Int64Decoder decodes int64 values.
type Int64Decoder interface {
	Decoder
	ReadInt64() (int64, error)
	ReadInt64s(dst []int64) (int, error)
}

// FloatDecoder decodes float32 values.
type FloatDecoder interface {
	Decoder
	ReadFloat() (float32, error)
	ReadFloats(dst []float32) (int, error)
}

// DoubleDecoder decodes float64 values.
type DoubleDecoder interface {
	Decoder
	ReadDouble() (float64, error)
	ReadDoubles(dst []float64) (int, error)
}

// ByteArrayDecoder decodes variable-length and fixed-length byte arrays.
// Unless documented otherwise by the implementation, returned slices borrow
// from the page buffer.
type ByteArrayDecoder interface {
	Decoder
	ReadByteArray() ([]byte, error)
	ReadByteArrays(dst [][]byte) (int, error)
}

// An Encoder writes values of one primitive type to a [Writer].
type Encoder interface {
	Encoding() Encoding
	Type() Type

	// Flush writes any buffered values. Encoders that need the full value
	// sequence before emitting a header (delta encodings) write everything
	// on Flush.
	Flush() error

	// Reset discards buffered state without flushing and switches the
	// encoder to w.
	Reset(w Writer)
}

// BooleanEncoder encodes boolean values.
type BooleanEncoder interface {
	Encoder
	WriteBoolean(v bool) error
}

// Int32Encoder encodes int32 values.
type Int32Encoder interface {
	Encoder
	WriteInt32(v int32) error
}

// Int64Encoder encodes int64 values.
type Int64Encoder interface {
	Encoder
	WriteInt64(v int64) error
}

// FloatEncoder encodes float32 values.
type FloatEncoder interface {
	Encoder
	WriteFloat(v float32) error
}

// DoubleEncoder encodes float64 values.
type DoubleEncoder interface {
	Encoder
	WriteDouble(v float64) error
}

// ByteArrayEncoder encodes variable-length and fixed-length byte arrays.
type ByteArrayEncoder interface {
	Encoder
	WriteByteArray(v []byte) error
}
