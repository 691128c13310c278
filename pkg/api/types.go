package api

import (
	"time"

	"github.com/segmentio/ksuid"

	"github.com/jacques-n/parquet-mr/pkg/codec"
	"github.com/jacques-n/parquet-mr/pkg/storage"
	"github.com/jacques-n/parquet-mr/pkg/values"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// Kind classifies codec and store failures, e.g. "truncated".
	Kind string `json:"kind,omitempty"`
}

// CreatePageRequest is the body of POST /pages. Values are decoded with
// json.Number so 64-bit integers survive.
type CreatePageRequest struct {
	Name string `json:"name,omitempty"`
	codec.PageSpec
	Values []any `json:"values"`
}

// PageResponse is a stored page with its decoded values.
type PageResponse struct {
	storage.Descriptor
	BitWidth        uint8  `json:"bit_width,omitempty"`
	TypeLength      uint32 `json:"type_length,omitempty"`
	DictionaryCount uint32 `json:"dictionary_count,omitempty"`
	Values          []any  `json:"values"`
}

// DecodeResponse is the result of POST /decode.
type DecodeResponse struct {
	Encoding   values.Encoding `json:"encoding"`
	Type       values.Type     `json:"type"`
	ValueCount int             `json:"value_count"`
	Values     []any           `json:"values"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port        int
	Bind        string
	APIKey      string
	MaxPageSize int64 // Upper bound on request bodies

	// Delta block layout used when a request leaves it unset
	DeltaBlockSize  int
	DeltaMiniBlocks int

	ScanWorkers        int           // Pages decoded at once by /column
	DictionaryCacheTTL time.Duration // Zero decodes dictionaries per request
}

// IPageStore defines the page store operations used by the API
type IPageStore interface {
	Put(name string, p *codec.Page) (*storage.Descriptor, error)
	Get(id ksuid.KSUID) (*codec.Page, error)
	Raw(id ksuid.KSUID) ([]byte, error)
	Describe(id ksuid.KSUID) (*storage.Descriptor, error)
	List() ([]storage.Descriptor, error)
	Delete(id ksuid.KSUID) error
}

var _ IPageStore = (*storage.PageStore)(nil)
