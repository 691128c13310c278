package values

import (
	"fmt"
	"strings"
)

// Type is a primitive physical type. Values match the Thrift identifiers used
// in page headers and footer metadata.
type Type int8

const (
	Boolean           Type = 0
	Int32             Type = 1
	Int64             Type = 2
	Int96             Type = 3 // Recognised for diagnostics; no codec supports it.
	Float             Type = 4
	Double            Type = 5
	ByteArray         Type = 6
	FixedLenByteArray Type = 7
)

var typeNames = map[Type]string{
	Boolean:           "boolean",
	Int32:             "int32",
	Int64:             "int64",
	Int96:             "int96",
	Float:             "float",
	Double:            "double",
	ByteArray:         "byte_array",
	FixedLenByteArray: "fixed_len_byte_array",
}

// String returns the lower-case name of t, such as "double".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int8(t))
}

// Valid reports whether t is a known type identifier.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Size returns the encoded width in bytes of fixed-width types, or 0 for
// types whose width is not implied by the type alone.
func (t Type) Size() int {
	switch t {
	case Int32, Float:
		return 4
	case Int64, Double:
		return 8
	case Int96:
		return 12
	default:
		return 0
	}
}

// ParseType parses a type name as returned by [Type.String]. It also accepts
// the upper-case Thrift spellings (INT32, BYTE_ARRAY, ...).
func ParseType(s string) (Type, error) {
	want := strings.ToLower(s)
	for t, name := range typeNames {
		if name == want {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown primitive type %q", s)
}

// Encoding identifies how values are laid out in a page. Values match the
// Thrift identifiers.
type Encoding int8

const (
	Plain                Encoding = 0
	PlainDictionary      Encoding = 2
	RLE                  Encoding = 3
	BitPacked            Encoding = 4 // Deprecated levels encoding; recognised, not supported.
	DeltaBinaryPacked    Encoding = 5
	DeltaLengthByteArray Encoding = 6
	DeltaByteArray       Encoding = 7
	RLEDictionary        Encoding = 8
)

var encodingNames = map[Encoding]string{
	Plain:                "PLAIN",
	PlainDictionary:      "PLAIN_DICTIONARY",
	RLE:                  "RLE",
	BitPacked:            "BIT_PACKED",
	DeltaBinaryPacked:    "DELTA_BINARY_PACKED",
	DeltaLengthByteArray: "DELTA_LENGTH_BYTE_ARRAY",
	DeltaByteArray:       "DELTA_BYTE_ARRAY",
	RLEDictionary:        "RLE_DICTIONARY",
}

func (e Encoding) String() string {
	if name, ok := encodingNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ENCODING(%d)", int8(e))
}

// Valid reports whether e is a known encoding identifier.
func (e Encoding) Valid() bool {
	_, ok := encodingNames[e]
	return ok
}

// IsDictionary reports whether e stores dictionary indices.
func (e Encoding) IsDictionary() bool {
	return e == PlainDictionary || e == RLEDictionary
}

// ParseEncoding parses an encoding name as returned by [Encoding.String].
// Matching is case-insensitive.
func ParseEncoding(s string) (Encoding, error) {
	want := strings.ToUpper(s)
	for e, name := range encodingNames {
		if name == want {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown encoding %q", s)
}

// Op names the codec operation that failed.
type Op string

const (
	OpInit  Op = "init"
	OpRead  Op = "read"
	OpSkip  Op = "skip"
	OpWrite Op = "write"
	OpFlush Op = "flush"
)

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (e Encoding) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Encoding) UnmarshalText(b []byte) error {
	v, err := ParseEncoding(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
