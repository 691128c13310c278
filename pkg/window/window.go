// Package window provides a bounded, zero-copy little-endian reader over a
// region of a larger page buffer.
//
// A Window never owns the bytes it reads. The page buffer it was created from
// belongs to whoever delivered the page, and every Window (and every slice
// returned by [Window.ReadBytes]) borrows from it. Callers must not mutate the
// buffer while windows over it are live, and must not retain borrowed slices
// after the buffer is recycled.
//
// A Window is not safe for concurrent use. Independent windows over the same
// read-only buffer may be used from different goroutines.
package window

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrTruncated is returned when fewer bytes remain in the window than the
	// next read requires.
	ErrTruncated = errors.New("truncated")

	// ErrOutOfBounds is returned when a window would extend past the end of
	// its source buffer.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrOverflow is returned when a varint does not fit in 64 bits.
	ErrOverflow = errors.New("varint overflows 64 bits")
)

// Window is a read cursor over buf[offset:offset+length].
type Window struct {
	base   []byte // Entire source buffer; only used for diagnostics.
	data   []byte // base[offset : offset+length : offset+length]
	offset int
	pos    int
}

// New creates a window over length bytes of buf starting at offset. New fails
// with [ErrOutOfBounds] if the region does not fit inside buf.
func New(buf []byte, offset, length int) (*Window, error) {
	if offset < 0 || length < 0 || offset > len(buf) || length > len(buf)-offset {
		return nil, fmt.Errorf("%w: window [%d, %d+%d) over %d bytes", ErrOutOfBounds, offset, offset, length, len(buf))
	}
	end := offset + length
	return &Window{
		base:   buf,
		data:   buf[offset:end:end],
		offset: offset,
	}, nil
}

// Of creates a window over all of buf.
func Of(buf []byte) *Window {
	return &Window{base: buf, data: buf[:len(buf):len(buf)]}
}

// Len returns the total length of the window.
func (w *Window) Len() int { return len(w.data) }

// Remaining returns the number of unread bytes.
func (w *Window) Remaining() int { return len(w.data) - w.pos }

// Position returns the cursor position relative to the start of the window.
func (w *Window) Position() int { return w.pos }

// Offset returns the cursor position relative to the start of the source
// buffer. It is intended for diagnostics.
func (w *Window) Offset() int { return w.offset + w.pos }

func (w *Window) truncated(need int) error {
	return fmt.Errorf("%w: need %d bytes at offset %d, %d remaining", ErrTruncated, need, w.Offset(), w.Remaining())
}

// ReadByte reads a single byte. It implements [io.ByteReader], but reports
// [ErrTruncated] rather than io.EOF at the end of the window.
func (w *Window) ReadByte() (byte, error) {
	if w.pos >= len(w.data) {
		return 0, w.truncated(1)
	}
	b := w.data[w.pos]
	w.pos++
	return b, nil
}

// ReadUint8 reads a single byte.
func (w *Window) ReadUint8() (uint8, error) { return w.ReadByte() }

// ReadUint32 reads a little-endian uint32.
func (w *Window) ReadUint32() (uint32, error) {
	if len(w.data)-w.pos < 4 {
		return 0, w.truncated(4)
	}
	v := binary.LittleEndian.Uint32(w.data[w.pos:])
	w.pos += 4
	return v, nil
}

// ReadInt32 reads a little-endian int32.
func (w *Window) ReadInt32() (int32, error) {
	v, err := w.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (w *Window) ReadUint64() (uint64, error) {
	if len(w.data)-w.pos < 8 {
		return 0, w.truncated(8)
	}
	v := binary.LittleEndian.Uint64(w.data[w.pos:])
	w.pos += 8
	return v, nil
}

// ReadInt64 reads a little-endian int64.
func (w *Window) ReadInt64() (int64, error) {
	v, err := w.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a little-endian IEEE 754 float32.
func (w *Window) ReadFloat32() (float32, error) {
	v, err := w.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a little-endian IEEE 754 float64.
func (w *Window) ReadFloat64() (float64, error) {
	v, err := w.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBytes returns the next n bytes without copying them. The returned
// slice has its capacity clipped to n so appending to it never overwrites
// the bytes that follow.
func (w *Window) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read of %d bytes", ErrOutOfBounds, n)
	}
	if len(w.data)-w.pos < n {
		return nil, w.truncated(n)
	}
	end := w.pos + n
	b := w.data[w.pos:end:end]
	w.pos = end
	return b, nil
}

// Skip advances the cursor by n bytes.
func (w *Window) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative skip of %d bytes", ErrOutOfBounds, n)
	}
	if len(w.data)-w.pos < n {
		return w.truncated(n)
	}
	w.pos += n
	return nil
}

// Sub returns a window over the next n bytes and advances past them.
func (w *Window) Sub(n int) (*Window, error) {
	start := w.Offset()
	if _, err := w.ReadBytes(n); err != nil {
		return nil, err
	}
	return New(w.base, start, n)
}

// Rest returns a window over the unread bytes without advancing.
func (w *Window) Rest() *Window {
	sub, _ := New(w.base, w.Offset(), w.Remaining())
	return sub
}

// ReadUvarint reads an unsigned LEB128 varint.
func (w *Window) ReadUvarint() (uint64, error) {
	var (
		x     uint64
		shift uint
	)
	for i := 0; i < binary.MaxVarintLen64; i++ {
		if w.pos >= len(w.data) {
			return 0, w.truncated(1)
		}
		b := w.data[w.pos]
		w.pos++
		if b < 0x80 {
			if i == binary.MaxVarintLen64-1 && b > 1 {
				return 0, ErrOverflow
			}
			return x | uint64(b)<<shift, nil
		}
		x |= uint64(b&0x7f) << shift
		shift += 7
	}
	return 0, ErrOverflow
}

// ReadVarint reads a zig-zag encoded signed varint.
func (w *Window) ReadVarint() (int64, error) {
	ux, err := w.ReadUvarint()
	x := int64(ux >> 1)
	if ux&1 != 0 {
		x = ^x
	}
	return x, err
}
