// Package dispatch selects the codec for an encoding and primitive type.
//
// Selection is a lookup in a static table; it performs no I/O. Decoders are
// returned uninitialised and the caller must still call InitFromPage with
// the page's window and value count.
package dispatch

import (
	"fmt"
	"sort"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/delta"
	"github.com/jacques-n/parquet-mr/pkg/values/dictionary"
	"github.com/jacques-n/parquet-mr/pkg/values/plain"
	"github.com/jacques-n/parquet-mr/pkg/values/rle"
)

type options struct {
	bitWidth   int
	typeLength int
	dict       dictionary.Dictionary
	delta      []delta.Option
}

// Option supplies an out-of-band codec parameter.
type Option func(*options)

// WithBitWidth sets the bit width of RLE streams.
func WithBitWidth(width int) Option {
	return func(o *options) { o.bitWidth = width }
}

// WithTypeLength sets the length of fixed-length byte arrays.
func WithTypeLength(n int) Option {
	return func(o *options) { o.typeLength = n }
}

// WithDictionary sets the dictionary resolved by dictionary encodings.
func WithDictionary(d dictionary.Dictionary) Option {
	return func(o *options) { o.dict = d }
}

// WithDeltaBlock sets the block layout written by delta encoders.
func WithDeltaBlock(blockSize, miniBlocks int) Option {
	return func(o *options) { o.delta = append(o.delta, delta.WithBlockSize(blockSize, miniBlocks)) }
}

type key struct {
	enc values.Encoding
	typ values.Type
}

type (
	decoderFunc func(o *options) (values.Decoder, error)
	encoderFunc func(w values.Writer, o *options) (values.Encoder, error)
)

func plainDecoders() map[key]decoderFunc {
	return map[key]decoderFunc{
		{values.Plain, values.Boolean}: func(*options) (values.Decoder, error) { return plain.NewBooleanDecoder(), nil },
		{values.Plain, values.Int32}:   func(*options) (values.Decoder, error) { return plain.NewInt32Decoder(), nil },
		{values.Plain, values.Int64}:   func(*options) (values.Decoder, error) { return plain.NewInt64Decoder(), nil },
		{values.Plain, values.Float}:   func(*options) (values.Decoder, error) { return plain.NewFloatDecoder(), nil },
		{values.Plain, values.Double}:  func(*options) (values.Decoder, error) { return plain.NewDoubleDecoder(), nil },
		{values.Plain, values.ByteArray}: func(*options) (values.Decoder, error) {
			return plain.NewByteArrayDecoder(), nil
		},
		{values.Plain, values.FixedLenByteArray}: func(o *options) (values.Decoder, error) {
			return plain.NewFixedLenByteArrayDecoder(o.typeLength), nil
		},
	}
}

var decoders = func() map[key]decoderFunc {
	m := plainDecoders()

	m[key{values.RLE, values.Boolean}] = func(*options) (values.Decoder, error) { return rle.NewBooleanDecoder(), nil }
	m[key{values.RLE, values.Int32}] = func(o *options) (values.Decoder, error) { return rle.NewInt32Decoder(o.bitWidth), nil }

	m[key{values.DeltaBinaryPacked, values.Int32}] = func(*options) (values.Decoder, error) { return delta.NewInt32Decoder(), nil }
	m[key{values.DeltaBinaryPacked, values.Int64}] = func(*options) (values.Decoder, error) { return delta.NewInt64Decoder(), nil }
	m[key{values.DeltaLengthByteArray, values.ByteArray}] = func(*options) (values.Decoder, error) {
		return delta.NewLengthByteArrayDecoder(), nil
	}
	m[key{values.DeltaByteArray, values.ByteArray}] = func(*options) (values.Decoder, error) { return delta.NewByteArrayDecoder(), nil }
	m[key{values.DeltaByteArray, values.FixedLenByteArray}] = func(o *options) (values.Decoder, error) {
		return delta.NewFixedLenByteArrayDecoder(o.typeLength), nil
	}

	for _, enc := range []values.Encoding{values.PlainDictionary, values.RLEDictionary} {
		enc := enc
		m[key{enc, values.Int32}] = func(o *options) (values.Decoder, error) {
			d, err := dictionaryOf[dictionary.Int32Values](o, values.Int32)
			return dictionary.NewInt32Decoder(enc, d), err
		}
		m[key{enc, values.Int64}] = func(o *options) (values.Decoder, error) {
			d, err := dictionaryOf[dictionary.Int64Values](o, values.Int64)
			return dictionary.NewInt64Decoder(enc, d), err
		}
		m[key{enc, values.Float}] = func(o *options) (values.Decoder, error) {
			d, err := dictionaryOf[dictionary.FloatValues](o, values.Float)
			return dictionary.NewFloatDecoder(enc, d), err
		}
		m[key{enc, values.Double}] = func(o *options) (values.Decoder, error) {
			d, err := dictionaryOf[dictionary.DoubleValues](o, values.Double)
			return dictionary.NewDoubleDecoder(enc, d), err
		}
		m[key{enc, values.ByteArray}] = func(o *options) (values.Decoder, error) {
			d, err := dictionaryOf[dictionary.ByteArrayValues](o, values.ByteArray)
			return dictionary.NewByteArrayDecoder(enc, d), err
		}
		m[key{enc, values.FixedLenByteArray}] = func(o *options) (values.Decoder, error) {
			d, err := dictionaryOf[dictionary.FixedLenByteArrayValues](o, values.FixedLenByteArray)
			return dictionary.NewFixedLenByteArrayDecoder(enc, d), err
		}
	}
	return m
}()

var encoders = func() map[key]encoderFunc {
	m := map[key]encoderFunc{
		{values.Plain, values.Boolean}: func(w values.Writer, _ *options) (values.Encoder, error) {
			return plain.NewBooleanEncoder(w), nil
		},
		{values.Plain, values.Int32}: func(w values.Writer, _ *options) (values.Encoder, error) {
			return plain.NewInt32Encoder(w), nil
		},
		{values.Plain, values.Int64}: func(w values.Writer, _ *options) (values.Encoder, error) {
			return plain.NewInt64Encoder(w), nil
		},
		{values.Plain, values.Float}: func(w values.Writer, _ *options) (values.Encoder, error) {
			return plain.NewFloatEncoder(w), nil
		},
		{values.Plain, values.Double}: func(w values.Writer, _ *options) (values.Encoder, error) {
			return plain.NewDoubleEncoder(w), nil
		},
		{values.Plain, values.ByteArray}: func(w values.Writer, _ *options) (values.Encoder, error) {
			return plain.NewByteArrayEncoder(w), nil
		},
		{values.Plain, values.FixedLenByteArray}: func(w values.Writer, o *options) (values.Encoder, error) {
			return plain.NewFixedLenByteArrayEncoder(w, o.typeLength), nil
		},
		{values.RLE, values.Boolean}: func(w values.Writer, _ *options) (values.Encoder, error) {
			return rle.NewBooleanEncoder(w), nil
		},
		{values.RLE, values.Int32}: func(w values.Writer, o *options) (values.Encoder, error) {
			return rle.NewInt32Encoder(w, o.bitWidth), nil
		},
		{values.DeltaBinaryPacked, values.Int32}: func(w values.Writer, o *options) (values.Encoder, error) {
			return delta.NewInt32Encoder(w, o.delta...), nil
		},
		{values.DeltaBinaryPacked, values.Int64}: func(w values.Writer, o *options) (values.Encoder, error) {
			return delta.NewInt64Encoder(w, o.delta...), nil
		},
		{values.DeltaLengthByteArray, values.ByteArray}: func(w values.Writer, o *options) (values.Encoder, error) {
			return delta.NewLengthByteArrayEncoder(w, o.delta...), nil
		},
		{values.DeltaByteArray, values.ByteArray}: func(w values.Writer, o *options) (values.Encoder, error) {
			return delta.NewByteArrayEncoder(w, o.delta...), nil
		},
		{values.DeltaByteArray, values.FixedLenByteArray}: func(w values.Writer, o *options) (values.Encoder, error) {
			return delta.NewFixedLenByteArrayEncoder(w, o.typeLength, o.delta...), nil
		},
	}

	dictTypes := []values.Type{values.Int32, values.Int64, values.Float, values.Double, values.ByteArray, values.FixedLenByteArray}
	for _, enc := range []values.Encoding{values.PlainDictionary, values.RLEDictionary} {
		for _, typ := range dictTypes {
			enc, typ := enc, typ
			m[key{enc, typ}] = func(w values.Writer, o *options) (values.Encoder, error) {
				if err := checkDictionary(o, typ); err != nil {
					return nil, err
				}
				return dictionary.NewIndexEncoder(w, enc, o.dict), nil
			}
		}
	}
	return m
}()

func checkDictionary(o *options, typ values.Type) error {
	if o.dict == nil {
		return values.ErrMissingDictionary
	}
	if o.dict.Type() != typ {
		return fmt.Errorf("%w: dictionary holds %s values", values.ErrMissingDictionary, o.dict.Type())
	}
	return nil
}

func dictionaryOf[D dictionary.Dictionary](o *options, typ values.Type) (D, error) {
	var zero D
	if err := checkDictionary(o, typ); err != nil {
		return zero, err
	}
	d, ok := o.dict.(D)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected dictionary %T", values.ErrMissingDictionary, o.dict)
	}
	return d, nil
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewDecoder returns the decoder for enc and typ. Unknown combinations fail
// with [values.ErrUnsupportedEncoding]; dictionary encodings without a
// matching dictionary fail with [values.ErrMissingDictionary].
func NewDecoder(enc values.Encoding, typ values.Type, opts ...Option) (values.Decoder, error) {
	fn, ok := decoders[key{enc, typ}]
	if !ok {
		return nil, values.NewDecodingError(enc, typ, values.OpInit, values.ErrUnsupportedEncoding)
	}
	d, err := fn(newOptions(opts))
	if err != nil {
		return nil, values.NewDecodingError(enc, typ, values.OpInit, err)
	}
	return d, nil
}

// NewEncoder returns the encoder for enc and typ writing to w. Dictionary
// encodings return a [dictionary.IndexEncoder] which takes indices into the
// dictionary given by [WithDictionary].
func NewEncoder(enc values.Encoding, typ values.Type, w values.Writer, opts ...Option) (values.Encoder, error) {
	fn, ok := encoders[key{enc, typ}]
	if !ok {
		return nil, values.NewDecodingError(enc, typ, values.OpInit, values.ErrUnsupportedEncoding)
	}
	e, err := fn(w, newOptions(opts))
	if err != nil {
		return nil, values.NewDecodingError(enc, typ, values.OpInit, err)
	}
	return e, nil
}

// Supported reports whether a decoder exists for enc and typ.
func Supported(enc values.Encoding, typ values.Type) bool {
	_, ok := decoders[key{enc, typ}]
	return ok
}

// Encodings returns the encodings that can decode typ, in identifier order.
func Encodings(typ values.Type) []values.Encoding {
	var out []values.Encoding
	for k := range decoders {
		if k.typ == typ {
			out = append(out, k.enc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
