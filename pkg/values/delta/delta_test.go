package delta_test

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/delta"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

func encodeInt32s(t *testing.T, in []int32, opts ...delta.Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := delta.NewInt32Encoder(&buf, opts...)
	for _, v := range in {
		require.NoError(t, enc.WriteInt32(v))
	}
	require.NoError(t, enc.Flush())
	return buf.Bytes()
}

func encodeInt64s(t *testing.T, in []int64, opts ...delta.Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := delta.NewInt64Encoder(&buf, opts...)
	for _, v := range in {
		require.NoError(t, enc.WriteInt64(v))
	}
	require.NoError(t, enc.Flush())
	return buf.Bytes()
}

func TestBinaryPacked_Bytes(t *testing.T) {
	got := encodeInt32s(t, []int32{1, 2, 3, 4, 5})
	// block size 128, 4 mini blocks, 5 values, first value 1, min delta 1,
	// every mini block at width 0.
	assert.Equal(t, []byte{0x80, 0x01, 0x04, 0x05, 0x02, 0x02, 0x00, 0x00, 0x00, 0x00}, got)
}

func TestBinaryPacked_EmptyAndSingle(t *testing.T) {
	empty := encodeInt32s(t, nil)
	assert.Equal(t, []byte{0x80, 0x01, 0x04, 0x00, 0x00}, empty)

	dec := delta.NewInt32Decoder()
	require.NoError(t, dec.InitFromPage(0, window.Of(empty)))
	_, err := dec.ReadInt32()
	require.ErrorIs(t, err, values.ErrExhausted)

	single := encodeInt64s(t, []int64{-7})
	assert.Equal(t, []byte{0x80, 0x01, 0x04, 0x01, 0x0D}, single)

	d64 := delta.NewInt64Decoder()
	require.NoError(t, d64.InitFromPage(1, window.Of(single)))
	v, err := d64.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)
}

func TestBinaryPacked_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	shapes := map[string]func(i int) int64{
		"sorted":     func(i int) int64 { return int64(i * 3) },
		"descending": func(i int) int64 { return int64(-i * 1000) },
		"random":     func(int) int64 { return rnd.Int63() - math.MaxInt64/2 },
		"extremes": func(i int) int64 {
			if i%2 == 0 {
				return math.MinInt64
			}
			return math.MaxInt64
		},
	}
	blocks := [][2]int{{128, 4}, {8, 1}, {32, 2}, {256, 8}}

	for name, shape := range shapes {
		for _, b := range blocks {
			for _, n := range []int{1, 2, 33, 129, 500} {
				t.Run(fmt.Sprintf("%s/%dx%d/%d", name, b[0], b[1], n), func(t *testing.T) {
					in64 := make([]int64, n)
					in32 := make([]int32, n)
					for i := range in64 {
						in64[i] = shape(i)
						in32[i] = int32(in64[i])
					}
					opt := delta.WithBlockSize(b[0], b[1])

					d64 := delta.NewInt64Decoder()
					require.NoError(t, d64.InitFromPage(n, window.Of(encodeInt64s(t, in64, opt))))
					out64 := make([]int64, n)
					got, err := d64.ReadInt64s(out64)
					require.NoError(t, err)
					require.Equal(t, n, got)
					require.Equal(t, in64, out64)

					d32 := delta.NewInt32Decoder()
					require.NoError(t, d32.InitFromPage(n, window.Of(encodeInt32s(t, in32, opt))))
					for i, want := range in32 {
						v, err := d32.ReadInt32()
						require.NoError(t, err)
						require.Equal(t, want, v, "value %d", i)
					}
				})
			}
		}
	}
}

func TestBinaryPacked_StreamFollowsPage(t *testing.T) {
	// The decoder must stop exactly at the end of the last written mini block.
	page := encodeInt32s(t, []int32{10, 11, 13, 20, 21})
	page = append(page, 0xAB)

	w := window.Of(page)
	dec := delta.NewInt32Decoder()
	require.NoError(t, dec.InitFromPage(5, w))
	out := make([]int32, 5)
	_, err := dec.ReadInt32s(out)
	require.NoError(t, err)
	assert.Equal(t, []int32{10, 11, 13, 20, 21}, out)
	assert.Equal(t, 1, w.Remaining())
}

func TestBinaryPacked_SkipEquivalence(t *testing.T) {
	in := make([]int32, 300)
	for i := range in {
		in[i] = int32(i*i - 50*i)
	}
	page := encodeInt32s(t, in, delta.WithBlockSize(64, 4))

	for _, skip := range []int{0, 1, 15, 16, 17, 64, 65, 200, 299} {
		dec := delta.NewInt32Decoder()
		require.NoError(t, dec.InitFromPage(len(in), window.Of(page)))
		for i := 0; i < skip; i++ {
			require.NoError(t, dec.Skip())
		}
		v, err := dec.ReadInt32()
		require.NoError(t, err)
		assert.Equal(t, in[skip], v, "after %d skips", skip)
	}
}

func TestBinaryPacked_CountIsSmallerOfDeclaredAndStored(t *testing.T) {
	page := encodeInt32s(t, []int32{1, 2, 3})

	dec := delta.NewInt32Decoder()
	require.NoError(t, dec.InitFromPage(10, window.Of(page)))
	assert.Equal(t, 3, dec.Remaining())

	dec = delta.NewInt32Decoder()
	require.NoError(t, dec.InitFromPage(2, window.Of(page)))
	assert.Equal(t, 2, dec.Remaining())
	require.NoError(t, dec.Skip())
	require.NoError(t, dec.Skip())
	require.ErrorIs(t, dec.Skip(), values.ErrExhausted)
}

func TestBinaryPacked_Malformed(t *testing.T) {
	tests := []struct {
		name string
		page []byte
		err  error
	}{
		{"indivisible block", []byte{0x80, 0x01, 0x03, 0x02, 0x00}, values.ErrFormat},
		{"mini block not a multiple of 8", []byte{0x08, 0x02, 0x02, 0x00}, values.ErrFormat},
		{"zero mini blocks", []byte{0x08, 0x00, 0x02, 0x00}, values.ErrFormat},
		{"truncated header", []byte{0x80, 0x01, 0x04}, values.ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := delta.NewInt32Decoder()
			err := dec.InitFromPage(2, window.Of(tt.page))
			require.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "could not init int32 with DELTA_BINARY_PACKED encoding")
		})
	}
}

func TestBinaryPacked_WidthTooLarge(t *testing.T) {
	// 8 values per block in one mini block; the mini block claims 33 bits.
	page := []byte{0x08, 0x01, 0x02, 0x00, 0x00, 33}

	dec := delta.NewInt32Decoder()
	require.NoError(t, dec.InitFromPage(2, window.Of(page)))
	v, err := dec.ReadInt32()
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = dec.ReadInt32()
	require.ErrorIs(t, err, values.ErrFormat)

	// 33 bits is fine for int64 columns.
	page = append(page, make([]byte, 33)...)
	d64 := delta.NewInt64Decoder()
	require.NoError(t, d64.InitFromPage(2, window.Of(page)))
	out := make([]int64, 2)
	_, err = d64.ReadInt64s(out)
	require.NoError(t, err)
}

func TestEncoder_InvalidBlockSize(t *testing.T) {
	var buf bytes.Buffer
	enc := delta.NewInt32Encoder(&buf, delta.WithBlockSize(100, 3))
	require.NoError(t, enc.WriteInt32(1))
	require.ErrorIs(t, enc.Flush(), values.ErrFormat)
}

func TestEncoder_FlushOnce(t *testing.T) {
	var buf bytes.Buffer
	enc := delta.NewInt64Encoder(&buf)
	require.NoError(t, enc.WriteInt64(5))
	require.NoError(t, enc.Flush())
	n := buf.Len()
	require.NoError(t, enc.Flush())
	assert.Equal(t, n, buf.Len())

	var other bytes.Buffer
	enc.Reset(&other)
	require.NoError(t, enc.Flush())
	assert.Equal(t, []byte{0x80, 0x01, 0x04, 0x00, 0x00}, other.Bytes())
}

func TestCheckBlockSize(t *testing.T) {
	require.NoError(t, delta.CheckBlockSize(128, 4))
	require.NoError(t, delta.CheckBlockSize(8, 1))
	require.ErrorIs(t, delta.CheckBlockSize(128, 3), values.ErrFormat)
	require.ErrorIs(t, delta.CheckBlockSize(-8, 1), values.ErrFormat)
	require.ErrorIs(t, delta.CheckBlockSize(1<<17, 4), values.ErrFormat)
}

func TestReadHeader(t *testing.T) {
	w := window.Of(encodeInt64s(t, []int64{-7, 1, 2}, delta.WithBlockSize(32, 2)))
	h, err := delta.ReadHeader(w)
	require.NoError(t, err)
	assert.Equal(t, delta.Header{BlockSize: 32, MiniBlocks: 2, TotalCount: 3, FirstValue: -7}, h)

	_, err = delta.ReadHeader(window.Of([]byte{0x80, 0x01, 0x03, 0x00, 0x00}))
	require.ErrorIs(t, err, values.ErrFormat)

	_, err = delta.ReadHeader(window.Of([]byte{0x80, 0x01}))
	require.ErrorIs(t, err, values.ErrTruncated)
}

func TestBatch_RemainingAfterFault(t *testing.T) {
	in := make([]int32, 20)
	for i := range in {
		in[i] = int32(i + 1)
	}
	page := encodeInt32s(t, in)

	// Keep only the stream header, which carries the first value.
	dec := delta.NewInt32Decoder()
	require.NoError(t, dec.InitFromPage(len(in), window.Of(page[:5])))

	out := make([]int32, len(in))
	n, err := dec.ReadInt32s(out)
	require.ErrorIs(t, err, values.ErrTruncated)
	assert.Equal(t, 1, n)
	assert.Equal(t, int32(1), out[0])
	assert.Equal(t, len(in)-2, dec.Remaining())
}
