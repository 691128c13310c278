package delta_test

import (
	"bytes"
	"encoding/binary"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/delta"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

var words = []string{"apple", "applesauce", "apricot", "", "banana", "band", "band", "bandana"}

func decodeAll(t *testing.T, dec values.ByteArrayDecoder, n int, page []byte) []string {
	t.Helper()
	require.NoError(t, dec.InitFromPage(n, window.Of(page)))
	out := make([][]byte, n)
	got, err := dec.ReadByteArrays(out)
	require.NoError(t, err)
	require.Equal(t, n, got)

	s := make([]string, n)
	for i, v := range out {
		s[i] = string(v)
	}
	return s
}

func TestLengthByteArray_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := delta.NewLengthByteArrayEncoder(&buf)
	for _, w := range words {
		require.NoError(t, enc.WriteByteArray([]byte(w)))
	}
	require.NoError(t, enc.Flush())

	assert.Equal(t, words, decodeAll(t, delta.NewLengthByteArrayDecoder(), len(words), buf.Bytes()))

	// Values are the tail of the page, back to back.
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("appleapplesauceapricotbananabandbandbandana")))
}

func TestLengthByteArray_ZeroCopyAndSkip(t *testing.T) {
	var buf bytes.Buffer
	enc := delta.NewLengthByteArrayEncoder(&buf)
	for _, w := range words {
		require.NoError(t, enc.WriteByteArray([]byte(w)))
	}
	require.NoError(t, enc.Flush())
	page := buf.Bytes()

	dec := delta.NewLengthByteArrayDecoder()
	require.NoError(t, dec.InitFromPage(len(words), window.Of(page)))
	require.NoError(t, dec.Skip())
	v, err := dec.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, "applesauce", string(v))
	assert.Equal(t, len(v), cap(v))

	v[0] = 'A'
	assert.Contains(t, string(page), "Applesauce")
}

func TestLengthByteArray_TruncatedData(t *testing.T) {
	var buf bytes.Buffer
	enc := delta.NewLengthByteArrayEncoder(&buf)
	require.NoError(t, enc.WriteByteArray([]byte("hello")))
	require.NoError(t, enc.Flush())
	page := buf.Bytes()[:buf.Len()-2]

	dec := delta.NewLengthByteArrayDecoder()
	require.NoError(t, dec.InitFromPage(1, window.Of(page)))
	_, err := dec.ReadByteArray()
	require.ErrorIs(t, err, values.ErrTruncated)
}

func TestByteArray_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := delta.NewByteArrayEncoder(&buf, delta.WithBlockSize(8, 1))
	for _, w := range words {
		require.NoError(t, enc.WriteByteArray([]byte(w)))
	}
	require.NoError(t, enc.Flush())

	assert.Equal(t, words, decodeAll(t, delta.NewByteArrayDecoder(), len(words), buf.Bytes()))

	// Only suffixes after the shared prefixes are stored.
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("applesaucericotbananadana")))
}

func TestByteArray_SkipEquivalence(t *testing.T) {
	var buf bytes.Buffer
	enc := delta.NewByteArrayEncoder(&buf)
	for _, w := range words {
		require.NoError(t, enc.WriteByteArray([]byte(w)))
	}
	require.NoError(t, enc.Flush())

	for skip := range words {
		dec := delta.NewByteArrayDecoder()
		require.NoError(t, dec.InitFromPage(len(words), window.Of(buf.Bytes())))
		for i := 0; i < skip; i++ {
			require.NoError(t, dec.Skip())
		}
		v, err := dec.ReadByteArray()
		require.NoError(t, err)
		assert.Equal(t, words[skip], string(v))
	}
}

func TestByteArray_FixedLen(t *testing.T) {
	keys := []string{"key-0001", "key-0002", "key-0100", "kez-0000"}

	var buf bytes.Buffer
	enc := delta.NewFixedLenByteArrayEncoder(&buf, 8)
	for _, k := range keys {
		require.NoError(t, enc.WriteByteArray([]byte(k)))
	}
	require.ErrorIs(t, enc.WriteByteArray([]byte("short")), values.ErrFormat)
	require.NoError(t, enc.Flush())

	dec := delta.NewFixedLenByteArrayDecoder(8)
	assert.Equal(t, keys, decodeAll(t, dec, len(keys), buf.Bytes()))
	assert.Equal(t, values.FixedLenByteArray, dec.Type())

	wrong := delta.NewFixedLenByteArrayDecoder(4)
	require.NoError(t, wrong.InitFromPage(len(keys), window.Of(buf.Bytes())))
	_, err := wrong.ReadByteArray()
	require.ErrorIs(t, err, values.ErrFormat)
}

func TestByteArray_Malformed(t *testing.T) {
	lengths := func(in ...int32) []byte {
		var buf bytes.Buffer
		enc := delta.NewInt32Encoder(&buf)
		for _, v := range in {
			require.NoError(t, enc.WriteInt32(v))
		}
		require.NoError(t, enc.Flush())
		return buf.Bytes()
	}
	suffixes := func(in ...string) []byte {
		var buf bytes.Buffer
		enc := delta.NewLengthByteArrayEncoder(&buf)
		for _, v := range in {
			require.NoError(t, enc.WriteByteArray([]byte(v)))
		}
		require.NoError(t, enc.Flush())
		return buf.Bytes()
	}

	t.Run("prefix longer than previous value", func(t *testing.T) {
		page := append(lengths(1), suffixes("a")...)
		dec := delta.NewByteArrayDecoder()
		require.NoError(t, dec.InitFromPage(1, window.Of(page)))
		_, err := dec.ReadByteArray()
		require.ErrorIs(t, err, values.ErrFormat)
	})

	t.Run("count mismatch", func(t *testing.T) {
		page := append(lengths(0, 0), suffixes("a")...)
		dec := delta.NewByteArrayDecoder()
		require.ErrorIs(t, dec.InitFromPage(2, window.Of(page)), values.ErrFormat)
	})

	t.Run("negative length", func(t *testing.T) {
		page := append(lengths(-1), 'x')
		dec := delta.NewLengthByteArrayDecoder()
		require.NoError(t, dec.InitFromPage(1, window.Of(page)))
		_, err := dec.ReadByteArray()
		require.ErrorIs(t, err, values.ErrFormat)
		assert.Contains(t, err.Error(), "DELTA_LENGTH_BYTE_ARRAY")
	})
}

// zeroBlocks builds a length stream of total values whose blocks consist
// of a zero min delta and a single zero-width mini block of 1<<16 values,
// so each block costs two bytes.
func zeroBlocks(total uint64, blocks int) []byte {
	page := binary.AppendUvarint(nil, 1<<16)
	page = binary.AppendUvarint(page, 1)
	page = binary.AppendUvarint(page, total)
	page = binary.AppendVarint(page, 0)
	for i := 0; i < blocks; i++ {
		page = append(page, 0x00, 0x00)
	}
	return page
}

func allocated(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestByteArray_LengthStreamLargerThanPage(t *testing.T) {
	page := zeroBlocks(1<<40, 511)

	decoders := map[string]func() values.ByteArrayDecoder{
		"DELTA_LENGTH_BYTE_ARRAY": func() values.ByteArrayDecoder { return delta.NewLengthByteArrayDecoder() },
		"DELTA_BYTE_ARRAY":        func() values.ByteArrayDecoder { return delta.NewByteArrayDecoder() },
	}
	for name, newDecoder := range decoders {
		t.Run(name, func(t *testing.T) {
			var err error
			n := allocated(func() {
				err = newDecoder().InitFromPage(1, window.Of(page))
			})
			require.ErrorIs(t, err, values.ErrTruncated)
			assert.Less(t, n, uint64(4<<20), "allocated %d bytes for a %d byte page", n, len(page))
		})
	}
}

func TestByteArray_LengthStreamBeyondDeclaredCount(t *testing.T) {
	const blocks = 64
	lengths := zeroBlocks(1+blocks<<16, blocks)

	t.Run("DELTA_LENGTH_BYTE_ARRAY", func(t *testing.T) {
		dec := delta.NewLengthByteArrayDecoder()
		n := allocated(func() {
			require.NoError(t, dec.InitFromPage(1, window.Of(lengths)))
		})
		assert.Less(t, n, uint64(8<<20))

		v, err := dec.ReadByteArray()
		require.NoError(t, err)
		assert.Empty(t, v)
		assert.Equal(t, 0, dec.Remaining())
	})

	t.Run("DELTA_BYTE_ARRAY", func(t *testing.T) {
		page := append(bytes.Clone(lengths), lengths...)
		dec := delta.NewByteArrayDecoder()
		n := allocated(func() {
			require.NoError(t, dec.InitFromPage(1, window.Of(page)))
		})
		assert.Less(t, n, uint64(8<<20))

		v, err := dec.ReadByteArray()
		require.NoError(t, err)
		assert.Empty(t, v)
		_, err = dec.ReadByteArray()
		require.ErrorIs(t, err, values.ErrExhausted)
	})
}

func TestByteArray_Empty(t *testing.T) {
	var buf bytes.Buffer
	enc := delta.NewByteArrayEncoder(&buf)
	require.NoError(t, enc.Flush())

	dec := delta.NewByteArrayDecoder()
	require.NoError(t, dec.InitFromPage(0, window.Of(buf.Bytes())))
	_, err := dec.ReadByteArray()
	require.ErrorIs(t, err, values.ErrExhausted)
}
