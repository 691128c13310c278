package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/delta"
	"github.com/jacques-n/parquet-mr/pkg/values/dictionary"
	"github.com/jacques-n/parquet-mr/pkg/values/dispatch"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// ErrValueType is returned when a value cannot be converted to the column
// type.
var ErrValueType = errors.New("value does not match column type")

// PageSpec describes a page to build.
type PageSpec struct {
	Encoding   values.Encoding `json:"encoding"`
	Type       values.Type     `json:"type"`
	BitWidth   int             `json:"bit_width,omitempty"`
	TypeLength int             `json:"type_length,omitempty"`

	// Delta block layout; zero selects the encoder defaults.
	DeltaBlockSize  int `json:"delta_block_size,omitempty"`
	DeltaMiniBlocks int `json:"delta_mini_blocks,omitempty"`

	// Dictionary holds the dictionary values of dictionary encodings. When
	// set, the values passed to Build are indices into it. When empty, the
	// dictionary is built from the distinct values in first-seen order.
	Dictionary []any `json:"dictionary,omitempty"`
}

func (s PageSpec) options() []dispatch.Option {
	opts := []dispatch.Option{
		dispatch.WithBitWidth(s.BitWidth),
		dispatch.WithTypeLength(s.TypeLength),
	}
	if s.DeltaBlockSize > 0 {
		mini := s.DeltaMiniBlocks
		if mini == 0 {
			mini = delta.DefaultMiniBlocks
		}
		opts = append(opts, dispatch.WithDeltaBlock(s.DeltaBlockSize, mini))
	}
	return opts
}

// Build encodes vals into a page described by spec.
func Build(spec PageSpec, vals []any) (*Page, error) {
	if !dispatch.Supported(spec.Encoding, spec.Type) {
		return nil, values.NewDecodingError(spec.Encoding, spec.Type, values.OpInit, values.ErrUnsupportedEncoding)
	}
	if spec.BitWidth < 0 || spec.BitWidth > 32 {
		return nil, fmt.Errorf("bit width %d out of range: %w", spec.BitWidth, values.ErrFormat)
	}
	if uint64(len(vals)) > math.MaxUint32 || spec.TypeLength < 0 {
		return nil, fmt.Errorf("invalid page shape: %w", values.ErrValueTooLarge)
	}

	p := &Page{
		Version:    Version,
		Encoding:   spec.Encoding,
		Type:       spec.Type,
		TypeLength: uint32(spec.TypeLength),
		ValueCount: uint32(len(vals)),
	}
	opts := spec.options()

	switch {
	case spec.Encoding.IsDictionary():
		dict, idx := spec.Dictionary, vals
		if len(dict) == 0 {
			var err error
			if dict, idx, err = distinct(spec.Type, vals); err != nil {
				return nil, err
			}
		}
		d, page, err := encodeDictionary(spec, dict)
		if err != nil {
			return nil, fmt.Errorf("failed to encode dictionary: %w", err)
		}
		p.Dictionary = page
		p.DictionaryCount = uint32(len(dict))
		p.BitWidth = uint8(dictionary.BitWidth(len(dict)))
		opts = append(opts, dispatch.WithDictionary(d))
		vals = idx
	case spec.Encoding == values.RLE && spec.Type == values.Int32:
		width := spec.BitWidth
		if width == 0 {
			w, err := requiredWidth(vals)
			if err != nil {
				return nil, err
			}
			width = w
			opts = append(opts, dispatch.WithBitWidth(width))
		}
		p.BitWidth = uint8(width)
	}

	var buf bytes.Buffer
	enc, err := dispatch.NewEncoder(spec.Encoding, spec.Type, &buf, opts...)
	if err != nil {
		return nil, err
	}
	if err := EncodeValues(enc, vals); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	p.Data = buf.Bytes()
	return p, nil
}

func encodeDictionary(spec PageSpec, dict []any) (dictionary.Dictionary, []byte, error) {
	var buf bytes.Buffer
	enc, err := dispatch.NewEncoder(values.Plain, spec.Type, &buf, dispatch.WithTypeLength(spec.TypeLength))
	if err != nil {
		return nil, nil, err
	}
	if err := EncodeValues(enc, dict); err != nil {
		return nil, nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, nil, err
	}
	d, err := dictionary.Read(spec.Type, spec.TypeLength, len(dict), window.Of(buf.Bytes()))
	if err != nil {
		return nil, nil, err
	}
	return d, buf.Bytes(), nil
}

// distinct splits vals into the distinct values and the index of each value.
func distinct(typ values.Type, vals []any) ([]any, []any, error) {
	var (
		dict []any
		idx  = make([]any, len(vals))
		seen = make(map[any]int32)
	)
	for i, v := range vals {
		k, err := normalize(typ, v)
		if err != nil {
			return nil, nil, fmt.Errorf("value %d: %w", i, err)
		}
		pos, ok := seen[k]
		if !ok {
			pos = int32(len(dict))
			seen[k] = pos
			dict = append(dict, k)
		}
		idx[i] = pos
	}
	return dict, idx, nil
}

// normalize converts v to the comparable Go value of typ. Byte arrays
// become strings.
func normalize(typ values.Type, v any) (any, error) {
	switch typ {
	case values.Int32:
		return toInt32(v)
	case values.Int64:
		return toInt64(v)
	case values.Float:
		f, err := toFloat64(v)
		return float32(f), err
	case values.Double:
		return toFloat64(v)
	case values.ByteArray, values.FixedLenByteArray:
		b, err := toBytes(v)
		return string(b), err
	default:
		return nil, fmt.Errorf("%w: no dictionary for %s", ErrValueType, typ)
	}
}

func requiredWidth(vals []any) (int, error) {
	var set uint64
	for i, v := range vals {
		n, err := toInt32(v)
		if err != nil {
			return 0, fmt.Errorf("value %d: %w", i, err)
		}
		set |= uint64(uint32(n))
	}
	width := 0
	for set != 0 {
		width++
		set >>= 1
	}
	return width, nil
}

// EncodeValues writes vals through enc. Dictionary index encoders take
// indices. Numbers may be any Go numeric type or json.Number; byte arrays
// may be strings or byte slices.
func EncodeValues(enc values.Encoder, vals []any) error {
	for i, v := range vals {
		if err := encodeValue(enc, v); err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
	}
	return nil
}

func encodeValue(enc values.Encoder, v any) error {
	switch e := enc.(type) {
	case values.BooleanEncoder:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %T is not a boolean", ErrValueType, v)
		}
		return e.WriteBoolean(b)
	case values.Int32Encoder:
		n, err := toInt32(v)
		if err != nil {
			return err
		}
		return e.WriteInt32(n)
	case values.Int64Encoder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		return e.WriteInt64(n)
	case values.FloatEncoder:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		return e.WriteFloat(float32(f))
	case values.DoubleEncoder:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		return e.WriteDouble(f)
	case values.ByteArrayEncoder:
		b, err := toBytes(v)
		if err != nil {
			return err
		}
		return e.WriteByteArray(b)
	default:
		return fmt.Errorf("%w: no writer for %T", values.ErrUnsupportedEncoding, enc)
	}
}

// DecodeValues reads every remaining value of dec. Byte arrays holding
// valid UTF-8 are returned as strings, others as copied byte slices.
func DecodeValues(dec values.Decoder) ([]any, error) {
	n := dec.Remaining()
	switch d := dec.(type) {
	case values.BooleanDecoder:
		return collect(n, d.ReadBooleans, identity[bool])
	case values.Int32Decoder:
		return collect(n, d.ReadInt32s, identity[int32])
	case values.Int64Decoder:
		return collect(n, d.ReadInt64s, identity[int64])
	case values.FloatDecoder:
		return collect(n, d.ReadFloats, identity[float32])
	case values.DoubleDecoder:
		return collect(n, d.ReadDoubles, identity[float64])
	case values.ByteArrayDecoder:
		return collect(n, d.ReadByteArrays, byteValue)
	default:
		return nil, fmt.Errorf("%w: no reader for %T", values.ErrUnsupportedEncoding, dec)
	}
}

// decodeChunk bounds the values decoded per batch read; allocations grow
// with the values actually decoded, not with the declared count.
const decodeChunk = 4096

func collect[T any](n int, read func([]T) (int, error), conv func(T) any) ([]any, error) {
	buf := make([]T, min(n, decodeChunk))
	out := make([]any, 0, len(buf))
	for len(out) < n {
		got, err := read(buf[:min(len(buf), n-len(out))])
		for _, v := range buf[:got] {
			out = append(out, conv(v))
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func identity[T any](v T) any { return v }

func byteValue(b []byte) any {
	if utf8.Valid(b) {
		return string(b)
	}
	return bytes.Clone(b)
}

func toInt32(v any) (int32, error) {
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d overflows int32", values.ErrValueTooLarge, n)
	}
	return int32(n), nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", values.ErrValueTooLarge, n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrValueType, n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrValueType, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrValueType, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrValueType, err)
		}
		return f, nil
	default:
		i, err := toInt64(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %T is not a number", ErrValueType, v)
		}
		return float64(i), nil
	}
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a byte array", ErrValueType, v)
	}
}
