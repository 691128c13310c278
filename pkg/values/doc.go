// Package values defines the contract shared by every value codec: the
// primitive types and encodings a page may declare, the decoder and encoder
// interfaces, the error taxonomy, and the value-count bookkeeping that keeps
// a decoder from reading past the end of its page.
//
// # Layout
//
// Each encoding lives in its own sub-package:
//
//	plain       PLAIN for every primitive type
//	rle         RLE/bit-packing hybrid (levels, RLE booleans, dictionary indices)
//	dictionary  PLAIN_DICTIONARY and RLE_DICTIONARY
//	delta       DELTA_BINARY_PACKED, DELTA_LENGTH_BYTE_ARRAY, DELTA_BYTE_ARRAY
//	dispatch    selection of a codec from an (encoding, type) pair
//
// Every concrete decoder handles exactly one primitive type, so its read loop
// stays monomorphic. Callers obtain a [Decoder] from dispatch and assert it to
// the typed interface matching the column type ([Int32Decoder],
// [DoubleDecoder], and so on).
//
// # Lifecycle
//
// A decoder is bound to one page by a single call to
// [Decoder.InitFromPage], which supplies the declared value count and the
// [window.Window] over the decompressed page bytes. Values are then read or
// skipped strictly in order. Reading or skipping more values than were
// declared fails with [ErrExhausted].
//
// # Errors
//
// Every fault is reported as a [*DecodingError] naming the encoding, the
// primitive type and the operation that failed. Use [errors.Is] against the
// sentinel errors ([ErrTruncated], [ErrFormat], [ErrInvalidIndex], ...) to
// classify the cause. None of the faults are retryable: the same bytes will
// fail the same way.
package values
