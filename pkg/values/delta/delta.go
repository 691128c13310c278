// Package delta implements the DELTA_BINARY_PACKED, DELTA_LENGTH_BYTE_ARRAY
// and DELTA_BYTE_ARRAY encodings.
//
// A DELTA_BINARY_PACKED stream starts with a header
//
//	<block size> <mini blocks per block> <total value count> <first value>
//
// where the first three fields are uvarints and the first value is a zig-zag
// varint. The remaining values are stored as deltas from their predecessor,
// grouped in blocks:
//
//	<min delta> <bit width of each mini block> <mini blocks>
//
// The min delta is a zig-zag varint and each bit width takes one byte. Every
// mini block holds (block size / mini blocks) deltas, minus the block's min
// delta, bit packed LSB first at the mini block's width. Mini blocks entirely
// past the last value are not written.
//
// Arithmetic on values and deltas wraps at the width of the column type.
package delta

import (
	"encoding/binary"
	"fmt"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/bitpack"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

const (
	DefaultBlockSize  = 128
	DefaultMiniBlocks = 4

	// maxBlockSize bounds the per-block allocation made for a hostile header.
	maxBlockSize = 1 << 16
)

type integer interface {
	int32 | int64
}

type config struct {
	blockSize  int
	miniBlocks int
}

// Option configures an encoder.
type Option func(*config)

// WithBlockSize sets the number of values per block and the number of mini
// blocks each block is split into. blockSize/miniBlocks must be a positive
// multiple of 8.
func WithBlockSize(blockSize, miniBlocks int) Option {
	return func(c *config) {
		c.blockSize = blockSize
		c.miniBlocks = miniBlocks
	}
}

func newConfig(opts []Option) config {
	c := config{blockSize: DefaultBlockSize, miniBlocks: DefaultMiniBlocks}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// CheckBlockSize reports whether WithBlockSize(blockSize, miniBlocks) yields
// a valid block layout.
func CheckBlockSize(blockSize, miniBlocks int) error {
	if blockSize < 0 || miniBlocks < 0 {
		return values.Formatf("block size %d with %d mini blocks", blockSize, miniBlocks)
	}
	return checkBlockSize(uint64(blockSize), uint64(miniBlocks))
}

func checkBlockSize(blockSize, miniBlocks uint64) error {
	switch {
	case blockSize == 0 || miniBlocks == 0:
		return values.Formatf("block size %d with %d mini blocks", blockSize, miniBlocks)
	case blockSize > maxBlockSize:
		return values.Formatf("block size %d exceeds %d", blockSize, maxBlockSize)
	case blockSize%miniBlocks != 0:
		return values.Formatf("block size %d not divisible into %d mini blocks", blockSize, miniBlocks)
	case (blockSize/miniBlocks)%8 != 0:
		return values.Formatf("mini block size %d not a multiple of 8", blockSize/miniBlocks)
	}
	return nil
}

// reader decodes the integers of one DELTA_BINARY_PACKED stream.
type reader[T integer] struct {
	w    *window.Window
	bits int

	miniBlocks int
	perMini    int
	total      int
	produced   int

	prev     T
	minDelta T
	widths   []byte
	mini     int // Next mini block of the current block.

	deltas []uint64 // Unpacked deltas of the current mini block.
	pos    int
}

// Header is the leading header of a DELTA_BINARY_PACKED stream.
type Header struct {
	BlockSize  int   `json:"block_size"`
	MiniBlocks int   `json:"mini_blocks"`
	TotalCount int   `json:"total_count"`
	FirstValue int64 `json:"first_value"`
}

// ReadHeader reads and validates the stream header at the position of w.
func ReadHeader(w *window.Window) (Header, error) {
	blockSize, err := values.ReadUvarint(w)
	if err != nil {
		return Header{}, err
	}
	miniBlocks, err := values.ReadUvarint(w)
	if err != nil {
		return Header{}, err
	}
	total, err := values.ReadUvarint(w)
	if err != nil {
		return Header{}, err
	}
	first, err := values.ReadVarint(w)
	if err != nil {
		return Header{}, err
	}
	if err := checkBlockSize(blockSize, miniBlocks); err != nil {
		return Header{}, err
	}
	if total > uint64(int(^uint(0)>>1)) {
		return Header{}, values.Formatf("total value count %d", total)
	}
	return Header{
		BlockSize:  int(blockSize),
		MiniBlocks: int(miniBlocks),
		TotalCount: int(total),
		FirstValue: first,
	}, nil
}

func (r *reader[T]) init(w *window.Window, bits int) error {
	h, err := ReadHeader(w)
	if err != nil {
		return err
	}

	*r = reader[T]{
		w:          w,
		bits:       bits,
		miniBlocks: h.MiniBlocks,
		perMini:    h.BlockSize / h.MiniBlocks,
		total:      h.TotalCount,
		prev:       T(h.FirstValue),
		widths:     make([]byte, h.MiniBlocks),
		mini:       h.MiniBlocks,
	}
	r.deltas = make([]uint64, r.perMini)
	r.pos = r.perMini
	return nil
}

func (r *reader[T]) remaining() int { return r.total - r.produced }

func (r *reader[T]) next() (T, error) {
	if r.produced >= r.total {
		return 0, fmt.Errorf("%w: stream holds %d values", values.ErrExhausted, r.total)
	}
	if r.produced == 0 {
		r.produced++
		return r.prev, nil
	}
	if r.pos == r.perMini {
		if r.mini == r.miniBlocks {
			if err := r.readBlockHeader(); err != nil {
				return 0, err
			}
		}
		if err := r.loadMiniBlock(); err != nil {
			return 0, err
		}
	}
	r.prev += r.minDelta + T(r.deltas[r.pos])
	r.pos++
	r.produced++
	return r.prev, nil
}

func (r *reader[T]) readBlockHeader() error {
	minDelta, err := values.ReadVarint(r.w)
	if err != nil {
		return err
	}
	widths, err := r.w.ReadBytes(r.miniBlocks)
	if err != nil {
		return err
	}
	r.minDelta = T(minDelta)
	copy(r.widths, widths)
	r.mini = 0
	return nil
}

// miniWidth returns the bit width of the next mini block.
func (r *reader[T]) miniWidth() (int, error) {
	width := int(r.widths[r.mini])
	if width > r.bits {
		return 0, values.Formatf("mini block bit width %d at offset %d exceeds %d", width, r.w.Offset(), r.bits)
	}
	return width, nil
}

func (r *reader[T]) loadMiniBlock() error {
	width, err := r.miniWidth()
	if err != nil {
		return err
	}
	b, err := r.w.ReadBytes(bitpack.ByteCount(r.perMini, width))
	if err != nil {
		return err
	}
	bitpack.Unpack(r.deltas, b, width)
	r.mini++
	r.pos = 0
	return nil
}

// skipRest advances the window past the values not yet produced without
// unpacking them. Used mini blocks are still checked against the primitive
// width.
func (r *reader[T]) skipRest() error {
	left := r.remaining()
	if left > 0 && r.produced == 0 {
		left-- // The first value is stored in the header.
	}
	left -= min(left, r.perMini-r.pos)
	for left > 0 {
		if r.mini == r.miniBlocks {
			if err := r.readBlockHeader(); err != nil {
				return err
			}
		}
		width, err := r.miniWidth()
		if err != nil {
			return err
		}
		if err := r.w.Skip(bitpack.ByteCount(r.perMini, width)); err != nil {
			return err
		}
		r.mini++
		left -= min(left, r.perMini)
	}
	r.produced = r.total
	r.pos = r.perMini
	return nil
}

// initSkipping initializes r over the stream at the position of w and
// advances w past the end of the stream. r then decodes the values on
// demand from its own window.
func (r *reader[T]) initSkipping(w *window.Window, bits int) error {
	lazy := w.Rest()
	if err := r.init(w, bits); err != nil {
		return err
	}
	if err := r.skipRest(); err != nil {
		return err
	}
	return r.init(lazy, bits)
}

// appendBinaryPacked appends the DELTA_BINARY_PACKED encoding of vals to dst.
func appendBinaryPacked[T integer](dst []byte, vals []T, bits int, c config) []byte {
	var first T
	if len(vals) > 0 {
		first = vals[0]
	}
	dst = binary.AppendUvarint(dst, uint64(c.blockSize))
	dst = binary.AppendUvarint(dst, uint64(c.miniBlocks))
	dst = binary.AppendUvarint(dst, uint64(len(vals)))
	dst = binary.AppendVarint(dst, int64(first))

	perMini := c.blockSize / c.miniBlocks
	mask := bitpack.Mask(bits)
	deltas := make([]T, 0, c.blockSize)
	mini := make([]uint64, perMini)
	widths := make([]byte, c.miniBlocks)

	for start := 1; start < len(vals); start += c.blockSize {
		end := min(start+c.blockSize, len(vals))
		deltas = deltas[:0]
		for i := start; i < end; i++ {
			deltas = append(deltas, vals[i]-vals[i-1])
		}
		minDelta := deltas[0]
		for _, d := range deltas[1:] {
			minDelta = min(minDelta, d)
		}

		clear(widths)
		used := (len(deltas) + perMini - 1) / perMini
		for m := 0; m < used; m++ {
			var set uint64
			for _, d := range deltas[m*perMini : min((m+1)*perMini, len(deltas))] {
				set |= uint64(d-minDelta) & mask
			}
			widths[m] = byte(bitpack.Width(set))
		}

		dst = binary.AppendVarint(dst, int64(minDelta))
		dst = append(dst, widths...)
		for m := 0; m < used; m++ {
			clear(mini)
			for i, d := range deltas[m*perMini : min((m+1)*perMini, len(deltas))] {
				mini[i] = uint64(d-minDelta) & mask
			}
			dst = bitpack.Pack(dst, mini, int(widths[m]))
		}
	}
	return dst
}
