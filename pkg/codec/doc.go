// Package codec provides the page envelope used to store and transport
// encoded parquet pages together with their out-of-band parameters.
//
// A data page on its own cannot be decoded: the encoding, primitive type,
// value count, bit width and, for dictionary encodings, the dictionary page
// all live in the surrounding column metadata. The envelope carries them
// alongside the page bytes.
//
// # Envelope Format
//
// Envelopes are serialized in a binary format with the following structure:
//
//	[CRC32(4)][Version(1)][Encoding(1)][Type(1)][BitWidth(1)][TypeLength(4)]
//	[ValueCount(4)][DictionaryCount(4)][DictionarySize(4)][DataSize(4)]
//	[Dictionary][Data]
//
// Fields:
//   - CRC32: IEEE checksum of every byte after the CRC32 field (little-endian)
//   - Version: envelope format version, currently 1
//   - Encoding: Thrift encoding identifier of the data page
//   - Type: Thrift primitive type identifier
//   - BitWidth: bit width of RLE streams; informational for dictionary pages
//   - TypeLength: length of fixed-length byte arrays, 0 otherwise
//   - ValueCount: number of values in the data page
//   - DictionaryCount: number of values in the dictionary page
//   - DictionarySize, DataSize: lengths of the two byte sections
//   - Dictionary: PLAIN-encoded dictionary page, empty for other encodings
//   - Data: the encoded data page
//
// The total envelope size is: 28 bytes (header) + len(dictionary) + len(data)
//
// # Usage
//
//	page, err := codec.Build(codec.PageSpec{
//	    Encoding: values.DeltaBinaryPacked,
//	    Type:     values.Int64,
//	}, []any{1, 2, 3})
//	if err != nil {
//	    return err
//	}
//
//	encoded, err := codec.NewPageCodec().Encode(page)
//	...
//	page, err = codec.NewPageCodec().Decode(encoded)
//	if err := page.Validate(); err != nil {
//	    return err // corrupted
//	}
//
//	dec, err := page.NewDecoder(nil)
//	vals, err := codec.DecodeValues(dec)
//
// # Ownership
//
// Decode does not copy: the Dictionary and Data sections of a decoded Page
// alias the input buffer, and so do byte-array values read from decoders
// built on it. The buffer must outlive every use of them.
//
// # Thread Safety
//
// PageCodec instances are safe for concurrent use. A Page may be shared
// once built, but each decoder returned by NewDecoder belongs to a single
// goroutine.
package codec
