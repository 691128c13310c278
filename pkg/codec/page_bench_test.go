//go:build bench
// +build bench

package codec

import (
	"fmt"
	"testing"

	"github.com/jacques-n/parquet-mr/pkg/values"
)

func benchValues(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = int64(i * 7 % 1000)
	}
	return out
}

func BenchmarkBuild(b *testing.B) {
	encodings := []values.Encoding{values.Plain, values.DeltaBinaryPacked, values.RLEDictionary}

	for _, enc := range encodings {
		for _, n := range []int{100, 10000} {
			vals := benchValues(n)
			b.Run(fmt.Sprintf("%s/%d", enc, n), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := Build(PageSpec{Encoding: enc, Type: values.Int64}, vals); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkPageCodec_Decode(b *testing.B) {
	codec := NewPageCodec()
	page, err := Build(PageSpec{Encoding: values.DeltaBinaryPacked, Type: values.Int64}, benchValues(10000))
	if err != nil {
		b.Fatal(err)
	}
	encoded, err := codec.Encode(page)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(encoded)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := codec.Decode(encoded)
		if err != nil {
			b.Fatal(err)
		}
		if err := p.Validate(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeValues(b *testing.B) {
	for _, enc := range []values.Encoding{values.Plain, values.DeltaBinaryPacked, values.RLEDictionary} {
		page, err := Build(PageSpec{Encoding: enc, Type: values.Int64}, benchValues(10000))
		if err != nil {
			b.Fatal(err)
		}
		b.Run(enc.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				dec, err := page.NewDecoder(nil)
				if err != nil {
					b.Fatal(err)
				}
				if _, err := DecodeValues(dec); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
