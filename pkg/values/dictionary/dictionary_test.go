package dictionary_test

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/dictionary"
	"github.com/jacques-n/parquet-mr/pkg/values/plain"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

var abc = dictionary.ByteArrayValues{[]byte("a"), []byte("b"), []byte("c")}

func TestLookup_ABC(t *testing.T) {
	// Bit width 2, one bit-packed group holding 0,0,1,2,1 plus padding.
	page := []byte{0x02, 0x03, 0x90, 0x01}

	dec := dictionary.NewByteArrayDecoder(values.RLEDictionary, abc)
	require.NoError(t, dec.InitFromPage(5, window.Of(page)))
	assert.Equal(t, 2, dec.BitWidth())

	var got []string
	for i := 0; i < 5; i++ {
		v, err := dec.ReadByteArray()
		require.NoError(t, err)
		got = append(got, string(v))
	}
	assert.Equal(t, []string{"a", "a", "b", "c", "b"}, got)

	_, err := dec.ReadByteArray()
	require.ErrorIs(t, err, values.ErrExhausted)
}

func TestIndexEncoder_MatchesLayout(t *testing.T) {
	var buf bytes.Buffer
	enc := dictionary.NewIndexEncoder(&buf, values.RLEDictionary, abc)
	for _, i := range []int32{0, 0, 1, 2, 1} {
		require.NoError(t, enc.WriteInt32(i))
	}
	require.NoError(t, enc.Flush())
	assert.Equal(t, []byte{0x02, 0x03, 0x90, 0x01}, buf.Bytes())
	assert.Equal(t, values.ByteArray, enc.Type())

	err := enc.WriteInt32(3)
	require.ErrorIs(t, err, values.ErrInvalidIndex)
}

func TestInvalidIndex(t *testing.T) {
	// Run-length run of one index 3 at width 2.
	page := []byte{0x02, 1 << 1, 0x03}

	dec := dictionary.NewByteArrayDecoder(values.PlainDictionary, abc)
	require.NoError(t, dec.InitFromPage(1, window.Of(page)))
	_, err := dec.ReadByteArray()
	require.ErrorIs(t, err, values.ErrInvalidIndex)
	assert.Contains(t, err.Error(), "could not read byte_array with PLAIN_DICTIONARY encoding")

	batch := dictionary.NewByteArrayDecoder(values.PlainDictionary, abc)
	require.NoError(t, batch.InitFromPage(1, window.Of(page)))
	n, err := batch.ReadByteArrays(make([][]byte, 1))
	require.ErrorIs(t, err, values.ErrInvalidIndex)
	assert.Zero(t, n)

	// Skipping does not resolve the index.
	skip := dictionary.NewByteArrayDecoder(values.PlainDictionary, abc)
	require.NoError(t, skip.InitFromPage(1, window.Of(page)))
	require.NoError(t, skip.Skip())
}

func TestInvalidIndex_Remaining(t *testing.T) {
	// Run-length run of five index 3 at width 2.
	page := []byte{0x02, 5 << 1, 0x03}

	dec := dictionary.NewByteArrayDecoder(values.RLEDictionary, abc)
	require.NoError(t, dec.InitFromPage(5, window.Of(page)))
	n, err := dec.ReadByteArrays(make([][]byte, 5))
	require.ErrorIs(t, err, values.ErrInvalidIndex)
	assert.Zero(t, n)
	assert.Equal(t, 4, dec.Remaining())
}

func TestBitWidthTooLarge(t *testing.T) {
	dec := dictionary.NewInt32Decoder(values.RLEDictionary, dictionary.Int32Values{1})
	err := dec.InitFromPage(1, window.Of([]byte{33, 0x02, 0x00}))
	require.ErrorIs(t, err, values.ErrFormat)

	var de *values.DecodingError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, values.OpInit, de.Op)
}

func TestEmptyPage(t *testing.T) {
	dec := dictionary.NewDoubleDecoder(values.RLEDictionary, nil)
	require.NoError(t, dec.InitFromPage(0, window.Of(nil)))
	_, err := dec.ReadDouble()
	require.ErrorIs(t, err, values.ErrExhausted)

	var buf bytes.Buffer
	enc := dictionary.NewIndexEncoder(&buf, values.RLEDictionary, dictionary.DoubleValues{1, 2, 3, 4, 5})
	require.NoError(t, enc.Flush())
	assert.Equal(t, []byte{3}, buf.Bytes())

	dec = dictionary.NewDoubleDecoder(values.RLEDictionary, dictionary.DoubleValues{1, 2, 3, 4, 5})
	require.NoError(t, dec.InitFromPage(0, window.Of(buf.Bytes())))
}

func TestRoundTrip_Int64(t *testing.T) {
	dict := dictionary.Int64Values{-5, 10, 1 << 40, 7}
	var indices []int32
	for i := 0; i < 100; i++ {
		indices = append(indices, int32(i*i%len(dict)))
	}
	for i := 0; i < 30; i++ {
		indices = append(indices, 3)
	}

	var buf bytes.Buffer
	enc := dictionary.NewIndexEncoder(&buf, values.RLEDictionary, dict)
	for _, i := range indices {
		require.NoError(t, enc.WriteInt32(i))
	}
	require.NoError(t, enc.Flush())

	dec := dictionary.NewInt64Decoder(values.RLEDictionary, dict)
	require.NoError(t, dec.InitFromPage(len(indices), window.Of(buf.Bytes())))
	out := make([]int64, len(indices))
	n, err := dec.ReadInt64s(out)
	require.NoError(t, err)
	require.Equal(t, len(indices), n)
	for k, i := range indices {
		assert.Equal(t, dict[i], out[k])
	}
}

func TestSkipEquivalence(t *testing.T) {
	dict := dictionary.FloatValues{0.5, 1.5, 2.5}
	indices := []int32{2, 2, 2, 2, 2, 2, 2, 2, 2, 0, 1, 0, 2, 1}

	var buf bytes.Buffer
	enc := dictionary.NewIndexEncoder(&buf, values.PlainDictionary, dict)
	for _, i := range indices {
		require.NoError(t, enc.WriteInt32(i))
	}
	require.NoError(t, enc.Flush())

	for skip := range indices {
		dec := dictionary.NewFloatDecoder(values.PlainDictionary, dict)
		require.NoError(t, dec.InitFromPage(len(indices), window.Of(buf.Bytes())))
		for i := 0; i < skip; i++ {
			require.NoError(t, dec.Skip())
		}
		v, err := dec.ReadFloat()
		require.NoError(t, err)
		assert.Equal(t, dict[indices[skip]], v, "after %d skips", skip)
	}
}

func TestRead_DictionaryPage(t *testing.T) {
	var buf bytes.Buffer
	enc := plain.NewByteArrayEncoder(&buf)
	for _, s := range []string{"x", "yy", ""} {
		require.NoError(t, enc.WriteByteArray([]byte(s)))
	}
	page := buf.Bytes()

	dict, err := dictionary.Read(values.ByteArray, 0, 3, window.Of(page))
	require.NoError(t, err)
	require.Equal(t, 3, dict.Len())
	require.Equal(t, values.ByteArray, dict.Type())

	vals := dict.(dictionary.ByteArrayValues)
	clear(page)
	assert.Equal(t, "yy", string(vals[1]))

	_, err = dictionary.Read(values.Int32, 0, 2, window.Of([]byte{1, 0, 0, 0}))
	require.ErrorIs(t, err, values.ErrTruncated)

	_, err = dictionary.Read(values.Boolean, 0, 1, window.Of([]byte{1}))
	require.ErrorIs(t, err, values.ErrUnsupportedEncoding)

	flba, err := dictionary.Read(values.FixedLenByteArray, 2, 2, window.Of([]byte("abcd")))
	require.NoError(t, err)
	assert.Equal(t, dictionary.FixedLenByteArrayValues{[]byte("ab"), []byte("cd")}, flba)
}

func TestRead_CountLargerThanPage(t *testing.T) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := dictionary.Read(values.Int64, 0, 1<<30, window.Of(make([]byte, 16)))
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, values.ErrTruncated)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))

	_, err = dictionary.Read(values.FixedLenByteArray, 4, 3, window.Of(make([]byte, 11)))
	require.ErrorIs(t, err, values.ErrTruncated)
}

func TestBitWidth(t *testing.T) {
	tests := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 256: 8, 257: 9}
	for n, want := range tests {
		assert.Equal(t, want, dictionary.BitWidth(n), "n=%d", n)
	}
}
