package rle

import (
	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/bitpack"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

// RunKind distinguishes the two kinds of run in a hybrid stream.
type RunKind uint8

const (
	RunLength RunKind = iota
	BitPacked
)

func (k RunKind) String() string {
	if k == BitPacked {
		return "bit-packed"
	}
	return "run-length"
}

// Run describes one run of a hybrid stream.
type Run struct {
	Kind     RunKind `json:"kind"`
	Offset   int     `json:"offset"`          // Offset of the run header in the page buffer.
	Value    uint64  `json:"value,omitempty"` // Repeated value of a run-length run.
	Length   int     `json:"length"`          // Values in the run, including padding.
	Groups   int     `json:"groups,omitempty"`
	BitWidth int     `json:"bit_width"`
}

// Runs walks the run headers of a hybrid stream without unpacking values. It
// stops once the runs cover valueCount values or w is exhausted.
func Runs(w *window.Window, width int, valueCount int) ([]Run, error) {
	if width < 0 || width > bitpack.MaxWidth {
		return nil, values.Formatf("bit width %d out of range", width)
	}
	var runs []Run
	for covered := 0; covered < valueCount && w.Remaining() > 0; {
		r := Run{Offset: w.Offset(), BitWidth: width}
		kind, n, err := readRunHeader(w)
		if err != nil {
			return runs, err
		}
		r.Kind = kind

		if kind == BitPacked {
			if err := w.Skip(bitpack.ByteCount(n*8, width)); err != nil {
				return runs, err
			}
			r.Groups = n
			r.Length = n * 8
		} else {
			if r.Value, err = readRunValue(w, width); err != nil {
				return runs, err
			}
			r.Length = n
		}

		runs = append(runs, r)
		covered += r.Length
	}
	return runs, nil
}
