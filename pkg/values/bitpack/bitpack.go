// Package bitpack packs and unpacks unsigned integers of a fixed bit width.
//
// Values are packed from the least significant bit of each byte to the most
// significant bit, keeping the bit order of each value. For width 3 the values
// 0 through 7 pack into three bytes:
//
//	value:  0   1   2   3   4   5   6   7
//	bits:   000 001 010 011 100 101 110 111
//	bytes:  10001000 11000110 11111010
//
// This is the layout used by bit-packed runs of the hybrid RLE encoding and
// by the mini blocks of the delta encoding.
package bitpack

import "math/bits"

// MaxWidth is the widest supported bit width.
const MaxWidth = 64

// ByteCount returns the number of bytes needed to pack n values of width
// bits.
func ByteCount(n, width int) int {
	return (n*width + 7) / 8
}

// ByteWidth returns the number of bytes needed to hold one value of width
// bits, as used by run-length values.
func ByteWidth(width int) int {
	return (width + 7) / 8
}

// Width returns the minimum bit width able to represent max.
func Width(max uint64) int {
	return bits.Len64(max)
}

// Mask returns the largest value representable in width bits.
func Mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// Pack appends src packed at width bits per value to dst. Bits above width
// are ignored. Unused bits of the final byte are zero.
func Pack(dst []byte, src []uint64, width int) []byte {
	n := ByteCount(len(src), width)
	start := len(dst)
	dst = append(dst, make([]byte, n)...)
	out := dst[start:]

	m := Mask(width)
	bitPos := 0
	for _, v := range src {
		v &= m
		pos := bitPos
		for left := width; left > 0; {
			shift := pos & 7
			out[pos>>3] |= byte(v << shift)
			take := 8 - shift
			if take > left {
				take = left
			}
			v >>= take
			pos += take
			left -= take
		}
		bitPos += width
	}
	return dst
}

// Unpack decodes len(dst) values of width bits from src. src must hold at
// least ByteCount(len(dst), width) bytes.
func Unpack(dst []uint64, src []byte, width int) {
	if width == 0 {
		clear(dst)
		return
	}

	m := Mask(width)
	bitPos := 0
	for i := range dst {
		b := bitPos >> 3
		shift := bitPos & 7

		v := uint64(src[b]) >> shift
		got := 8 - shift
		for b++; got < width; b++ {
			v |= uint64(src[b]) << got
			got += 8
		}

		dst[i] = v & m
		bitPos += width
	}
}

// Unpack8 decodes one group of 8 values from src, which must hold exactly
// width bytes.
func Unpack8(dst *[8]uint64, src []byte, width int) {
	Unpack(dst[:], src, width)
}
