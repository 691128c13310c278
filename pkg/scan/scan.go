// Package scan decodes the pages of a column concurrently.
//
// Each page gets its own window and decoder, so pages never share decoding
// state; only resolved dictionaries, which are read-only, are shared.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jacques-n/parquet-mr/pkg/codec"
)

// ErrMixedTypes is returned when the pages of a column disagree on the
// primitive type.
var ErrMixedTypes = errors.New("pages of a column must share one type")

// Options configures ReadColumn.
type Options struct {
	// Workers caps the pages decoded at once; zero uses GOMAXPROCS.
	Workers int

	// Resolver resolves dictionary pages; nil decodes them per page.
	Resolver codec.Resolver

	Logger *slog.Logger
}

// ReadColumn decodes pages and returns their values in page order. The
// first failure cancels the pages not yet started.
func ReadColumn(ctx context.Context, pages []*codec.Page, opts Options) ([][]any, error) {
	if len(pages) == 0 {
		return nil, nil
	}
	for i, p := range pages[1:] {
		if p.Type != pages[0].Type {
			return nil, fmt.Errorf("%w: page %d is %s, page 0 is %s", ErrMixedTypes, i+1, p.Type, pages[0].Type)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := make([][]any, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range pages {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			vals, err := readPage(p, opts.Resolver)
			if err != nil {
				logger.Debug("Failed to decode page",
					slog.Int("page", i),
					slog.String("encoding", p.Encoding.String()),
					slog.String("type", p.Type.String()),
					slog.Int("valueCount", int(p.ValueCount)),
					slog.Any("error", err))
				return fmt.Errorf("page %d: %w", i, err)
			}
			out[i] = vals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func readPage(p *codec.Page, r codec.Resolver) ([]any, error) {
	dec, err := p.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return codec.DecodeValues(dec)
}

// Flatten concatenates per-page values.
func Flatten(pages [][]any) []any {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	out := make([]any, 0, n)
	for _, p := range pages {
		out = append(out, p...)
	}
	return out
}
