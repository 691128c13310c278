package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/jacques-n/parquet-mr/pkg/values"
	"github.com/jacques-n/parquet-mr/pkg/values/dictionary"
	"github.com/jacques-n/parquet-mr/pkg/values/dispatch"
	"github.com/jacques-n/parquet-mr/pkg/window"
)

const (
	// Version is the envelope format version written by Encode.
	Version = 1

	// HeaderSize is the fixed size of the envelope header in bytes.
	HeaderSize = 28
)

var (
	// ErrChecksum is returned by Validate when the stored CRC32 does not
	// match the envelope contents.
	ErrChecksum = errors.New("page checksum mismatch")

	// ErrVersion is returned by Decode for envelopes of an unknown version.
	ErrVersion = errors.New("unsupported envelope version")
)

// Page is an encoded data page with the parameters needed to decode it.
type Page struct {
	CRC32           uint32          // CRC32 checksum for integrity
	Version         uint8           // Envelope format version
	Encoding        values.Encoding // Encoding of Data
	Type            values.Type     // Primitive type of the values
	BitWidth        uint8           // Bit width of RLE streams
	TypeLength      uint32          // Length of fixed-length byte arrays
	ValueCount      uint32          // Number of values in Data
	DictionaryCount uint32          // Number of values in Dictionary
	Dictionary      []byte          // PLAIN dictionary page
	Data            []byte          // Encoded data page
}

// PageCodec handles serialization and deserialization of page envelopes.
type PageCodec struct{}

// NewPageCodec creates a new page codec instance.
func NewPageCodec() *PageCodec {
	return &PageCodec{}
}

// Encode serializes p into the envelope format and stores the computed
// checksum in p.CRC32. A zero Version is written as the current one.
func (c *PageCodec) Encode(p *Page) ([]byte, error) {
	if uint64(len(p.Dictionary)) > math.MaxUint32 || uint64(len(p.Data)) > math.MaxUint32 {
		return nil, fmt.Errorf("page sections exceed 4 GiB: %w", values.ErrValueTooLarge)
	}
	if p.Version == 0 {
		p.Version = Version
	}

	buf := make([]byte, p.Size())
	p.putHeader(buf)
	copy(buf[HeaderSize:], p.Dictionary)
	copy(buf[HeaderSize+len(p.Dictionary):], p.Data)

	p.CRC32 = crc32.ChecksumIEEE(buf[4:])
	binary.LittleEndian.PutUint32(buf[0:], p.CRC32)
	return buf, nil
}

func (p *Page) putHeader(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], p.CRC32)
	buf[4] = p.Version
	buf[5] = byte(p.Encoding)
	buf[6] = byte(p.Type)
	buf[7] = p.BitWidth
	binary.LittleEndian.PutUint32(buf[8:], p.TypeLength)
	binary.LittleEndian.PutUint32(buf[12:], p.ValueCount)
	binary.LittleEndian.PutUint32(buf[16:], p.DictionaryCount)
	binary.LittleEndian.PutUint32(buf[20:], uint32(len(p.Dictionary)))
	binary.LittleEndian.PutUint32(buf[24:], uint32(len(p.Data)))
}

// Decode deserializes an envelope. The returned page aliases data.
func (c *PageCodec) Decode(data []byte) (*Page, error) {
	w := window.Of(data)
	h, err := readHeader(w)
	if err != nil {
		return nil, fmt.Errorf("failed to read page header: %w", err)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}

	p := &h.Page
	if p.Dictionary, err = w.ReadBytes(int(h.dictSize)); err != nil {
		return nil, fmt.Errorf("failed to read dictionary section: %w", err)
	}
	if p.Data, err = w.ReadBytes(int(h.dataSize)); err != nil {
		return nil, fmt.Errorf("failed to read data section: %w", err)
	}
	return p, nil
}

type header struct {
	Page
	dictSize uint32
	dataSize uint32
}

func readHeader(w *window.Window) (*header, error) {
	b, err := w.ReadBytes(HeaderSize)
	if err != nil {
		return nil, err
	}

	h := &header{
		dictSize: binary.LittleEndian.Uint32(b[20:24]),
		dataSize: binary.LittleEndian.Uint32(b[24:28]),
	}
	h.CRC32 = binary.LittleEndian.Uint32(b[0:4])
	h.Version = b[4]
	h.Encoding = values.Encoding(b[5])
	h.Type = values.Type(b[6])
	h.BitWidth = b[7]
	h.TypeLength = binary.LittleEndian.Uint32(b[8:12])
	h.ValueCount = binary.LittleEndian.Uint32(b[12:16])
	h.DictionaryCount = binary.LittleEndian.Uint32(b[16:20])
	return h, nil
}

// Header decodes only the fixed envelope header of data.
func Header(data []byte) (*Page, error) {
	h, err := readHeader(window.Of(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read page header: %w", err)
	}
	return &h.Page, nil
}

// Validate checks the integrity of the page using CRC32.
func (p *Page) Validate() error {
	if got := p.checksum(); p.CRC32 != got {
		return fmt.Errorf("%w: %d != %d", ErrChecksum, p.CRC32, got)
	}
	return nil
}

// Size returns the total size of the envelope when encoded.
func (p *Page) Size() int {
	return HeaderSize + len(p.Dictionary) + len(p.Data)
}

func (p *Page) checksum() uint32 {
	var hdr [HeaderSize]byte
	p.putHeader(hdr[:])

	crc := crc32.NewIEEE()
	_, _ = crc.Write(hdr[4:])
	_, _ = crc.Write(p.Dictionary)
	_, _ = crc.Write(p.Data)
	return crc.Sum32()
}

// Resolver turns the dictionary section of a page into a dictionary.
type Resolver interface {
	Resolve(typ values.Type, typeLength, count int, page []byte) (dictionary.Dictionary, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(typ values.Type, typeLength, count int, page []byte) (dictionary.Dictionary, error)

func (f ResolverFunc) Resolve(typ values.Type, typeLength, count int, page []byte) (dictionary.Dictionary, error) {
	return f(typ, typeLength, count, page)
}

// ReadDictionary resolves dictionaries by decoding them on every call.
var ReadDictionary = ResolverFunc(func(typ values.Type, typeLength, count int, page []byte) (dictionary.Dictionary, error) {
	return dictionary.Read(typ, typeLength, count, window.Of(page))
})

// Options returns the dispatch options implied by the page header, without
// the dictionary.
func (p *Page) Options() []dispatch.Option {
	return []dispatch.Option{
		dispatch.WithBitWidth(int(p.BitWidth)),
		dispatch.WithTypeLength(int(p.TypeLength)),
	}
}

// NewDecoder returns a decoder initialized on the data section. Dictionary
// encodings resolve the dictionary section through r, or ReadDictionary
// when r is nil.
func (p *Page) NewDecoder(r Resolver) (values.Decoder, error) {
	opts := p.Options()
	if p.Encoding.IsDictionary() {
		if r == nil {
			r = ReadDictionary
		}
		dict, err := r.Resolve(p.Type, int(p.TypeLength), int(p.DictionaryCount), p.Dictionary)
		if err != nil {
			return nil, values.NewDecodingError(p.Encoding, p.Type, values.OpInit, err)
		}
		opts = append(opts, dispatch.WithDictionary(dict))
	}

	dec, err := dispatch.NewDecoder(p.Encoding, p.Type, opts...)
	if err != nil {
		return nil, err
	}
	if err := dec.InitFromPage(int(p.ValueCount), window.Of(p.Data)); err != nil {
		return nil, err
	}
	return dec, nil
}
