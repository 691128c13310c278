// Package dictionary implements the PLAIN_DICTIONARY and RLE_DICTIONARY
// encodings.
//
// A dictionary-encoded data page holds indices into a dictionary page
// delivered separately. The data page starts with one byte giving the bit
// width of the indices, followed by the indices as an RLE/bit-packing hybrid
// stream. Both encoding identifiers share this layout.
//
// Building a dictionary is left to writers; this package only resolves
// indices against a dictionary it is given.
package dictionary

import (
	"fmt"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/bitpack"
	"github.com/jacques-n/parquet-mr/pkg/values/plain"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// MaxBitWidth is the widest index bit width accepted in a data page.
const MaxBitWidth = 32

// Dictionary is an index-addressable sequence of values of one type.
type Dictionary interface {
	Type() values.Type
	Len() int
}

type (
	Int32Values             []int32
	Int64Values             []int64
	FloatValues             []float32
	DoubleValues            []float64
	ByteArrayValues         [][]byte
	FixedLenByteArrayValues [][]byte
)

func (d Int32Values) Type() values.Type             { return values.Int32 }
func (d Int64Values) Type() values.Type             { return values.Int64 }
func (d FloatValues) Type() values.Type             { return values.Float }
func (d DoubleValues) Type() values.Type            { return values.Double }
func (d ByteArrayValues) Type() values.Type         { return values.ByteArray }
func (d FixedLenByteArrayValues) Type() values.Type { return values.FixedLenByteArray }

func (d Int32Values) Len() int             { return len(d) }
func (d Int64Values) Len() int             { return len(d) }
func (d FloatValues) Len() int             { return len(d) }
func (d DoubleValues) Len() int            { return len(d) }
func (d ByteArrayValues) Len() int         { return len(d) }
func (d FixedLenByteArrayValues) Len() int { return len(d) }

// BitWidth returns the index bit width needed for a dictionary of n values.
func BitWidth(n int) int {
	if n <= 1 {
		return 0
	}
	return bitpack.Width(uint64(n - 1))
}

// Read decodes a PLAIN dictionary page of count values. typeLength is only
// used for fixed-length byte arrays. Byte array values are copied out of the
// page so the dictionary may outlive the page buffer.
func Read(typ values.Type, typeLength, count int, w *window.Window) (Dictionary, error) {
	var (
		dict Dictionary
		err  error
	)
	if count < 0 {
		return nil, values.NewDecodingError(values.Plain, typ, values.OpInit, values.Formatf("negative dictionary size %d", count))
	}
	if w == nil {
		w = window.Of(nil)
	}
	if size := encodedSize(typ, typeLength); size > 0 && w.Remaining()/size < count {
		err := fmt.Errorf("%w: %d values need at least %d bytes, dictionary page has %d",
			values.ErrTruncated, count, count*size, w.Remaining())
		return nil, values.NewDecodingError(values.Plain, typ, values.OpInit, err)
	}
	switch typ {
	case values.Int32:
		dst := make(Int32Values, count)
		d := plain.NewInt32Decoder()
		err = readAll(d, count, w, func() (int, error) { return d.ReadInt32s(dst) })
		dict = dst
	case values.Int64:
		dst := make(Int64Values, count)
		d := plain.NewInt64Decoder()
		err = readAll(d, count, w, func() (int, error) { return d.ReadInt64s(dst) })
		dict = dst
	case values.Float:
		dst := make(FloatValues, count)
		d := plain.NewFloatDecoder()
		err = readAll(d, count, w, func() (int, error) { return d.ReadFloats(dst) })
		dict = dst
	case values.Double:
		dst := make(DoubleValues, count)
		d := plain.NewDoubleDecoder()
		err = readAll(d, count, w, func() (int, error) { return d.ReadDoubles(dst) })
		dict = dst
	case values.ByteArray:
		dst := make([][]byte, count)
		d := plain.NewByteArrayDecoder()
		err = readAll(d, count, w, func() (int, error) { return d.ReadByteArrays(dst) })
		dict = ByteArrayValues(own(dst))
	case values.FixedLenByteArray:
		dst := make([][]byte, count)
		d := plain.NewFixedLenByteArrayDecoder(typeLength)
		err = readAll(d, count, w, func() (int, error) { return d.ReadByteArrays(dst) })
		dict = FixedLenByteArrayValues(own(dst))
	default:
		err = values.NewDecodingError(values.PlainDictionary, typ, values.OpInit, values.ErrUnsupportedEncoding)
	}
	if err != nil {
		return nil, err
	}
	return dict, nil
}

// encodedSize is the fewest PLAIN bytes one value of typ occupies.
func encodedSize(typ values.Type, typeLength int) int {
	switch typ {
	case values.Int32, values.Float, values.ByteArray:
		return 4
	case values.Int64, values.Double:
		return 8
	case values.FixedLenByteArray:
		return typeLength
	}
	return 0
}

func readAll(d values.Decoder, count int, w *window.Window, read func() (int, error)) error {
	if err := d.InitFromPage(count, w); err != nil {
		return err
	}
	_, err := read()
	return err
}

// own copies borrowed values into a single allocation.
func own(vals [][]byte) [][]byte {
	size := 0
	for _, v := range vals {
		size += len(v)
	}
	arena := make([]byte, 0, size)
	for i, v := range vals {
		start := len(arena)
		arena = append(arena, v...)
		vals[i] = arena[start:len(arena):len(arena)]
	}
	return vals
}
