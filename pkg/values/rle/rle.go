// Package rle implements the RLE/bit-packing hybrid encoding.
//
// A hybrid stream is a sequence of runs. Each run starts with a uvarint
// header whose least significant bit selects the kind of run:
//
//	header&1 == 0: run-length run. header>>1 is the repeat count and is
//	               followed by the repeated value in ceil(width/8)
//	               little-endian bytes.
//	header&1 == 1: bit-packed run. header>>1 is the number of groups of 8
//	               values, followed by groups*width bytes packed LSB first.
//
// The bit width is fixed for the whole stream and is never stored in it; it
// is supplied by whoever knows the largest possible value (the dictionary
// size, the maximum definition level, ...).
package rle

import (
	"encoding/binary"
	"math"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/bitpack"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

type state uint8

const (
	stateNeedHeader state = iota
	stateRunLength
	stateBitPacked
)

// Decoder reads the raw integers of a hybrid stream. It does not track a
// declared value count; callers that need one wrap it, as the typed decoders
// of this package and the dictionary decoders do.
type Decoder struct {
	w     *window.Window
	width int

	state state
	left  int // Values left in the current run.

	value uint64 // Repeated value of a run-length run.

	group    [8]uint64 // Unpacked values of the current bit-packed group.
	groupPos int       // Next value of group; 8 means a new group must be loaded.
}

// NewDecoder creates a decoder over w for values of width bits.
func NewDecoder(w *window.Window, width int) (*Decoder, error) {
	var d Decoder
	if err := d.Reset(w, width); err != nil {
		return nil, err
	}
	return &d, nil
}

// Reset points the decoder at a new stream. It fails with [values.ErrFormat]
// if width is outside [0, 64].
func (d *Decoder) Reset(w *window.Window, width int) error {
	if width < 0 || width > bitpack.MaxWidth {
		return values.Formatf("bit width %d out of range", width)
	}
	if w == nil {
		w = window.Of(nil)
	}
	*d = Decoder{w: w, width: width, groupPos: 8}
	return nil
}

// BitWidth returns the width of values in the stream.
func (d *Decoder) BitWidth() int { return d.width }

// Next decodes the next value.
func (d *Decoder) Next() (uint64, error) {
	if err := d.fill(); err != nil {
		return 0, err
	}
	d.left--
	if d.state == stateRunLength {
		return d.value, nil
	}
	if d.groupPos == 8 {
		if err := d.loadGroup(); err != nil {
			return 0, err
		}
	}
	v := d.group[d.groupPos]
	d.groupPos++
	return v, nil
}

// Skip advances past the next value. Skipping inside a bit-packed run still
// consumes whole groups.
func (d *Decoder) Skip() error {
	_, err := d.Next()
	return err
}

// Read fills dst and returns the number of values decoded. It is equivalent
// to calling Next len(dst) times.
func (d *Decoder) Read(dst []uint64) (int, error) {
	n := 0
	for n < len(dst) {
		if err := d.fill(); err != nil {
			return n, err
		}
		switch d.state {
		case stateRunLength:
			k := min(d.left, len(dst)-n)
			for i := 0; i < k; i++ {
				dst[n+i] = d.value
			}
			d.left -= k
			n += k
		case stateBitPacked:
			if d.groupPos == 8 {
				if err := d.loadGroup(); err != nil {
					return n, err
				}
			}
			k := copy(dst[n:], d.group[d.groupPos:])
			d.groupPos += k
			d.left -= k
			n += k
		}
	}
	return n, nil
}

// fill reads run headers until the current run has values left.
func (d *Decoder) fill() error {
	for d.left == 0 {
		if err := d.readHeader(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) readHeader() error {
	kind, count, err := readRunHeader(d.w)
	if err != nil {
		return err
	}
	if kind == BitPacked {
		d.state = stateBitPacked
		d.left = count * 8
		d.groupPos = 8
		return nil
	}
	v, err := readRunValue(d.w, d.width)
	if err != nil {
		return err
	}
	d.state = stateRunLength
	d.left = count
	d.value = v
	return nil
}

func (d *Decoder) loadGroup() error {
	b, err := d.w.ReadBytes(d.width)
	if err != nil {
		return err
	}
	bitpack.Unpack8(&d.group, b, d.width)
	d.groupPos = 0
	return nil
}

// readRunHeader returns the kind of the next run and its repeat count, for
// run-length runs, or group count, for bit-packed runs.
func readRunHeader(w *window.Window) (RunKind, int, error) {
	start := w.Offset()
	h, err := values.ReadUvarint(w)
	if err != nil {
		return 0, 0, err
	}
	n := h >> 1
	if n == 0 {
		return 0, 0, values.Formatf("empty run at offset %d", start)
	}
	if h&1 == 1 {
		if n > math.MaxInt32/8 {
			return 0, 0, values.Formatf("bit-packed run of %d groups at offset %d", n, start)
		}
		return BitPacked, int(n), nil
	}
	if n > math.MaxInt32 {
		return 0, 0, values.Formatf("run-length run of %d values at offset %d", n, start)
	}
	return RunLength, int(n), nil
}

// readRunValue reads the little-endian value of a run-length run.
func readRunValue(w *window.Window, width int) (uint64, error) {
	start := w.Offset()
	b, err := w.ReadBytes(bitpack.ByteWidth(width))
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	copy(buf[:], b)
	v := binary.LittleEndian.Uint64(buf[:])
	if v > bitpack.Mask(width) {
		return 0, values.Formatf("run value %d at offset %d wider than %d bits", v, start, width)
	}
	return v, nil
}
