package values

import (
	"errors"
	"fmt"

	"github.com/jacques-n/parquet-mr/pkg/window"
)

var (
	// ErrTruncated means the page ended before the next value was complete.
	ErrTruncated = window.ErrTruncated

	// ErrOutOfBounds means a window was requested outside its source buffer.
	ErrOutOfBounds = window.ErrOutOfBounds

	// ErrInvalidIndex means a dictionary index was not smaller than the
	// dictionary size.
	ErrInvalidIndex = errors.New("invalid dictionary index")

	// ErrFormat means a header or run is structurally invalid.
	ErrFormat = errors.New("malformed page")

	// ErrUnsupportedEncoding means no codec exists for an encoding and type.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrExhausted means more values were requested than the page declared.
	ErrExhausted = errors.New("value count exhausted")

	// ErrNotInitialized means a decoder was used before InitFromPage.
	ErrNotInitialized = errors.New("decoder not initialized")

	// ErrAlreadyInitialized means InitFromPage was called twice.
	ErrAlreadyInitialized = errors.New("decoder already initialized")

	// ErrMissingDictionary means a dictionary encoding was selected without a
	// dictionary to resolve indices against.
	ErrMissingDictionary = errors.New("dictionary required")

	// ErrValueTooLarge means an encoder was given a value that cannot be
	// represented, such as an integer wider than the configured bit width.
	ErrValueTooLarge = errors.New("value too large")
)

// DecodingError reports a codec fault together with the encoding, primitive
// type and operation it happened in. Encoders use the same type for write
// failures.
type DecodingError struct {
	Encoding Encoding
	Type     Type
	Op       Op
	Err      error
}

// NewDecodingError wraps err. It returns nil if err is nil and returns err
// unchanged if it already is a *DecodingError.
func NewDecodingError(enc Encoding, typ Type, op Op, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodingError
	if errors.As(err, &de) {
		return err
	}
	return &DecodingError{Encoding: enc, Type: typ, Op: op, Err: err}
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("could not %s %s with %s encoding: %v", e.Op, e.Type, e.Encoding, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// Formatf returns an error wrapping [ErrFormat].
func Formatf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// ReadUvarint reads an unsigned varint from w. Overflowing varints are
// reported as [ErrFormat].
func ReadUvarint(w *window.Window) (uint64, error) {
	v, err := w.ReadUvarint()
	if errors.Is(err, window.ErrOverflow) {
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return v, err
}

// ReadVarint reads a zig-zag varint from w. Overflowing varints are reported
// as [ErrFormat].
func ReadVarint(w *window.Window) (int64, error) {
	v, err := w.ReadVarint()
	if errors.Is(err, window.ErrOverflow) {
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return v, err
}
