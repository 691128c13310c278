package plain_test

import (
	"bytes"
	"testing"

	pqplain "github.com/parquet-go/parquet-go/encoding/plain"
	"github.com/stretchr/testify/require"

	"github.com/jacques-n/parquet-mr/pkg/values/plain"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// The byte layout must match what other parquet implementations write.

func TestConformance_Int32(t *testing.T) {
	in := []int32{0, 1, -1, 1 << 30, -1 << 31}

	ref, err := (&pqplain.Encoding{}).EncodeInt32(nil, in)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc := plain.NewInt32Encoder(&buf)
	for _, v := range in {
		require.NoError(t, enc.WriteInt32(v))
	}
	require.Equal(t, ref, buf.Bytes())

	dec := plain.NewInt32Decoder()
	require.NoError(t, dec.InitFromPage(len(in), window.Of(ref)))
	out := make([]int32, len(in))
	_, err = dec.ReadInt32s(out)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestConformance_Int64(t *testing.T) {
	in := []int64{0, 42, -42, 1 << 62}

	ref, err := (&pqplain.Encoding{}).EncodeInt64(nil, in)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc := plain.NewInt64Encoder(&buf)
	for _, v := range in {
		require.NoError(t, enc.WriteInt64(v))
	}
	require.Equal(t, ref, buf.Bytes())
}

func TestConformance_FloatDouble(t *testing.T) {
	floats := []float32{0, 1.5, -3.25}
	ref, err := (&pqplain.Encoding{}).EncodeFloat(nil, floats)
	require.NoError(t, err)

	fd := plain.NewFloatDecoder()
	require.NoError(t, fd.InitFromPage(len(floats), window.Of(ref)))
	got := make([]float32, len(floats))
	_, err = fd.ReadFloats(got)
	require.NoError(t, err)
	require.Equal(t, floats, got)

	doubles := []float64{0, 2.5e300, -1e-300}
	ref, err = (&pqplain.Encoding{}).EncodeDouble(nil, doubles)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc := plain.NewDoubleEncoder(&buf)
	for _, v := range doubles {
		require.NoError(t, enc.WriteDouble(v))
	}
	require.Equal(t, ref, buf.Bytes())
}

func TestConformance_FixedLenByteArray(t *testing.T) {
	src := []byte("aaabbbccc")
	ref, err := (&pqplain.Encoding{}).EncodeFixedLenByteArray(nil, src, 3)
	require.NoError(t, err)

	dec := plain.NewFixedLenByteArrayDecoder(3)
	require.NoError(t, dec.InitFromPage(3, window.Of(ref)))
	for _, want := range []string{"aaa", "bbb", "ccc"} {
		v, err := dec.ReadByteArray()
		require.NoError(t, err)
		require.Equal(t, want, string(v))
	}
}
