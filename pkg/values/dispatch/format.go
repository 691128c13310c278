package dispatch

import (
	"fmt"

	"github.com/parquet-go/parquet-go/format"

	"github.com/jacques-n/parquet-mr/pkg/values"
)

// FromFormat converts the Thrift identifiers found in parquet page headers
// and column metadata into this package's encoding and type.
func FromFormat(enc format.Encoding, typ format.Type) (values.Encoding, values.Type, error) {
	if enc < 0 || enc > 127 || !values.Encoding(enc).Valid() {
		return 0, 0, fmt.Errorf("%w: encoding id %d", values.ErrUnsupportedEncoding, enc)
	}
	if typ < 0 || typ > 127 || !values.Type(typ).Valid() {
		return 0, 0, fmt.Errorf("%w: type id %d", values.ErrUnsupportedEncoding, typ)
	}
	return values.Encoding(enc), values.Type(typ), nil
}

// ToFormat is the inverse of FromFormat.
func ToFormat(enc values.Encoding, typ values.Type) (format.Encoding, format.Type) {
	return format.Encoding(enc), format.Type(typ)
}
