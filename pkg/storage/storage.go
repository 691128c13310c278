// Package storage keeps page envelopes in a pebble database.
//
// Every page is stored under two keys sharing its KSUID: page/<id> holds the
// envelope and meta/<id> a CBOR-encoded Descriptor. KSUIDs sort by creation
// time, so List returns pages oldest first.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/fxamacker/cbor/v2"
	"github.com/segmentio/ksuid"

	"github.com/jacques-n/parquet-mr/pkg/codec"
	"github.com/jacques-n/parquet-mr/pkg/values"
)

var (
	// ErrNotFound is returned for ids with no stored page.
	ErrNotFound = errors.New("page not found")

	// ErrInvalidID is returned by ParseID for malformed ids.
	ErrInvalidID = errors.New("invalid page id")
)

const (
	pagePrefix = "page/"
	metaPrefix = "meta/"
)

// Descriptor summarises a stored page.
type Descriptor struct {
	ID         ksuid.KSUID     `cbor:"1,keyasint" json:"id"`
	Name       string          `cbor:"2,keyasint,omitempty" json:"name,omitempty"`
	Encoding   values.Encoding `cbor:"3,keyasint" json:"encoding"`
	Type       values.Type     `cbor:"4,keyasint" json:"type"`
	ValueCount uint32          `cbor:"5,keyasint" json:"value_count"`
	Size       int             `cbor:"6,keyasint" json:"size"`
	Created    time.Time       `cbor:"7,keyasint" json:"created"`
}

type options struct {
	fs     vfs.FS
	sync   bool
	logger *slog.Logger
}

// Option configures a PageStore.
type Option func(*options)

// InMemory keeps the database in memory. Nothing is written to disk.
func InMemory() Option {
	return func(o *options) { o.fs = vfs.NewMem() }
}

// WithSync makes every write wait for the WAL to reach stable storage.
func WithSync(sync bool) Option {
	return func(o *options) { o.sync = sync }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// PageStore stores page envelopes keyed by KSUID. It is safe for concurrent
// use.
type PageStore struct {
	db     *pebble.DB
	write  *pebble.WriteOptions
	em     cbor.EncMode
	dm     cbor.DecMode
	codec  *codec.PageCodec
	logger *slog.Logger
}

// Open opens or creates the store at path.
func Open(path string, opts ...Option) (*PageStore, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR encoder: %w", err)
	}
	dm, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 4,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR decoder: %w", err)
	}

	db, err := pebble.Open(path, &pebble.Options{FS: o.fs})
	if err != nil {
		return nil, fmt.Errorf("failed to open page store: %w", err)
	}

	write := pebble.NoSync
	if o.sync {
		write = pebble.Sync
	}
	return &PageStore{
		db:     db,
		write:  write,
		em:     em,
		dm:     dm,
		codec:  codec.NewPageCodec(),
		logger: o.logger,
	}, nil
}

func pageKey(id ksuid.KSUID) []byte { return []byte(pagePrefix + id.String()) }

func metaKey(id ksuid.KSUID) []byte { return []byte(metaPrefix + id.String()) }

// Put stores p under a new id.
func (s *PageStore) Put(name string, p *codec.Page) (*Descriptor, error) {
	env, err := s.codec.Encode(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode page: %w", err)
	}

	d := &Descriptor{
		ID:         ksuid.New(),
		Name:       name,
		Encoding:   p.Encoding,
		Type:       p.Type,
		ValueCount: p.ValueCount,
		Size:       len(env),
		Created:    time.Now().UTC(),
	}
	meta, err := s.em.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode descriptor: %w", err)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(pageKey(d.ID), env, nil); err != nil {
		return nil, err
	}
	if err := b.Set(metaKey(d.ID), meta, nil); err != nil {
		return nil, err
	}
	if err := b.Commit(s.write); err != nil {
		return nil, fmt.Errorf("failed to store page: %w", err)
	}

	s.logger.Debug("stored page", "id", d.ID.String(), "encoding", d.Encoding.String(), "type", d.Type.String(), "size", d.Size)
	return d, nil
}

// Raw returns a copy of the stored envelope.
func (s *PageStore) Raw(id ksuid.KSUID) ([]byte, error) {
	return s.get(pageKey(id))
}

// Get returns the stored page after verifying its checksum.
func (s *PageStore) Get(id ksuid.KSUID) (*codec.Page, error) {
	env, err := s.Raw(id)
	if err != nil {
		return nil, err
	}
	p, err := s.codec.Decode(env)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %s: %w", id, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("page %s: %w", id, err)
	}
	return p, nil
}

// Describe returns the descriptor of a stored page.
func (s *PageStore) Describe(id ksuid.KSUID) (*Descriptor, error) {
	meta, err := s.get(metaKey(id))
	if err != nil {
		return nil, err
	}
	return s.decodeDescriptor(meta)
}

func (s *PageStore) decodeDescriptor(meta []byte) (*Descriptor, error) {
	var d Descriptor
	if err := s.dm.Unmarshal(meta, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return &d, nil
}

func (s *PageStore) get(key []byte) ([]byte, error) {
	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return bytes.Clone(data), nil
}

// List returns the descriptors of all stored pages, oldest first.
func (s *PageStore) List() ([]Descriptor, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(metaPrefix),
		UpperBound: []byte("meta0"), // '0' follows '/'
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Descriptor
	for iter.First(); iter.Valid(); iter.Next() {
		d, err := s.decodeDescriptor(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", iter.Key(), err)
		}
		out = append(out, *d)
	}
	return out, iter.Error()
}

// Delete removes a stored page.
func (s *PageStore) Delete(id ksuid.KSUID) error {
	if _, err := s.get(metaKey(id)); err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(pageKey(id), nil); err != nil {
		return err
	}
	if err := b.Delete(metaKey(id), nil); err != nil {
		return err
	}
	if err := b.Commit(s.write); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	s.logger.Debug("deleted page", "id", id.String())
	return nil
}

// Close closes the database.
func (s *PageStore) Close() error {
	return s.db.Close()
}

// ParseID parses the string form of a page id.
func ParseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
