package bitpack_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacques-n/parquet-mr/pkg/values/bitpack"
)

func TestPack_Width3(t *testing.T) {
	src := []uint64{0, 1, 2, 3, 4, 5, 6, 7}
	got := bitpack.Pack(nil, src, 3)
	require.Equal(t, []byte{0b10001000, 0b11000110, 0b11111010}, got)

	dst := make([]uint64, 8)
	bitpack.Unpack(dst, got, 3)
	require.Equal(t, src, dst)
}

func TestPack_AppendsToDst(t *testing.T) {
	got := bitpack.Pack([]byte{0xFF}, []uint64{1, 0, 1, 1, 0, 0, 0, 1}, 1)
	require.Equal(t, []byte{0xFF, 0b10001101}, got)
}

func TestPack_IgnoresHighBits(t *testing.T) {
	got := bitpack.Pack(nil, []uint64{0xFF, 0, 0, 0, 0, 0, 0, 0}, 2)
	require.Equal(t, []byte{0b00000011, 0}, got)
}

func TestRoundTrip_AllWidths(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	for width := 0; width <= bitpack.MaxWidth; width++ {
		var max uint64 = math.MaxUint64
		if width < 64 {
			max = 1<<width - 1
		}

		// A partial final group still decodes exactly.
		for _, n := range []int{0, 1, 7, 8, 13, 64} {
			src := make([]uint64, n)
			for i := range src {
				src[i] = rnd.Uint64() & max
			}
			if n > 0 {
				src[0] = max
			}

			packed := bitpack.Pack(nil, src, width)
			require.Len(t, packed, bitpack.ByteCount(n, width))

			dst := make([]uint64, n)
			bitpack.Unpack(dst, packed, width)
			require.Equal(t, src, dst, "width=%d n=%d", width, n)
		}
	}
}

func TestUnpack8(t *testing.T) {
	var group [8]uint64
	bitpack.Unpack8(&group, []byte{0b10001000, 0b11000110, 0b11111010}, 3)
	require.Equal(t, [8]uint64{0, 1, 2, 3, 4, 5, 6, 7}, group)
}

func TestWidths(t *testing.T) {
	require.Equal(t, 0, bitpack.Width(0))
	require.Equal(t, 1, bitpack.Width(1))
	require.Equal(t, 2, bitpack.Width(2))
	require.Equal(t, 2, bitpack.Width(3))
	require.Equal(t, 64, bitpack.Width(math.MaxUint64))

	require.Equal(t, 0, bitpack.ByteWidth(0))
	require.Equal(t, 1, bitpack.ByteWidth(1))
	require.Equal(t, 1, bitpack.ByteWidth(8))
	require.Equal(t, 2, bitpack.ByteWidth(9))
	require.Equal(t, 8, bitpack.ByteWidth(64))
}

func TestMask(t *testing.T) {
	require.Equal(t, uint64(0), bitpack.Mask(0))
	require.Equal(t, uint64(7), bitpack.Mask(3))
	require.Equal(t, uint64(math.MaxUint32), bitpack.Mask(32))
	require.Equal(t, uint64(math.MaxUint64), bitpack.Mask(64))
}
