package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/jacques-n/parquet-mr/pkg/codec"
	"github.com/jacques-n/parquet-mr/pkg/scan"
	"github.com/jacques-n/parquet-mr/pkg/storage"
	"github.com/jacques-n/parquet-mr/pkg/values"
)

// ContentTypePage is the media type of page envelopes
const ContentTypePage = "application/x-parquet-page"

// Server holds the API server state
type Server struct {
	store    IPageStore
	config   ServerConfig
	metrics  *Metrics
	logger   *slog.Logger
	cache    *scan.DictionaryCache
	resolver codec.Resolver
}

// NewServer creates a new API server. A nil metrics or logger is replaced
// with a private registry and a discarding logger.
func NewServer(store IPageStore, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
	if config.DictionaryCacheTTL > 0 {
		s.cache = scan.NewDictionaryCache(config.DictionaryCacheTTL)
		s.resolver = s.cache
	}
	return s
}

// Close releases the dictionary cache.
func (s *Server) Close() {
	if s.cache != nil {
		s.cache.Stop()
	}
}

// handleHealth reports that the server is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleCreatePage encodes the values of a CreatePageRequest and stores the
// resulting page.
func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CreatePageRequest
	dec := json.NewDecoder(s.body(w, r))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		sendError(w, fmt.Sprintf("Invalid request body: %v", err), bodyStatus(err))
		return
	}
	if req.DeltaBlockSize == 0 {
		req.DeltaBlockSize = s.config.DeltaBlockSize
		req.DeltaMiniBlocks = s.config.DeltaMiniBlocks
	}

	p, err := codec.Build(req.PageSpec, req.Values)
	if err != nil {
		s.fail(w, "build page", err)
		return
	}

	d, err := s.store.Put(req.Name, p)
	s.metrics.RecordStoreOperation("put", err == nil, time.Since(start))
	if err != nil {
		s.fail(w, "store page", err)
		return
	}
	sendCreated(w, d)
}

// handleListPages returns the descriptors of all stored pages.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pages, err := s.store.List()
	s.metrics.RecordStoreOperation("list", err == nil, time.Since(start))
	if err != nil {
		s.fail(w, "list pages", err)
		return
	}
	if pages == nil {
		pages = []storage.Descriptor{}
	}
	sendSuccess(w, pages)
}

// handleGetPage returns a stored page with its decoded values.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pageID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	p, err := s.store.Get(id)
	s.metrics.RecordStoreOperation("get", err == nil, time.Since(start))
	if err != nil {
		s.failStored(w, "get page", err)
		return
	}
	d, err := s.store.Describe(id)
	if err != nil {
		s.fail(w, "describe page", err)
		return
	}

	vals, err := s.decodePage(p)
	if err != nil {
		s.fail(w, "decode page", err)
		return
	}
	sendSuccess(w, PageResponse{
		Descriptor:      *d,
		BitWidth:        p.BitWidth,
		TypeLength:      p.TypeLength,
		DictionaryCount: p.DictionaryCount,
		Values:          vals,
	})
}

// handleGetRawPage returns the stored envelope as is.
func (s *Server) handleGetRawPage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pageID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	env, err := s.store.Raw(id)
	s.metrics.RecordStoreOperation("raw", err == nil, time.Since(start))
	if err != nil {
		s.fail(w, "get page", err)
		return
	}

	w.Header().Set("Content-Type", ContentTypePage)
	w.Header().Set("Content-Length", strconv.Itoa(len(env)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(env)
}

// handleDeletePage removes a stored page.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pageID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	err := s.store.Delete(id)
	s.metrics.RecordStoreOperation("delete", err == nil, time.Since(start))
	if err != nil {
		s.fail(w, "delete page", err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Page deleted successfully", "id": id.String()})
}

// handleDecode decodes a page sent in the request body without storing it.
// Envelopes (Content-Type application/x-parquet-page) carry their own
// parameters; bare data pages take them from the query string: encoding,
// type, count, bit_width and type_length.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(s.body(w, r))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to read request body: %v", err), bodyStatus(err))
		return
	}

	var p *codec.Page
	if r.Header.Get("Content-Type") == ContentTypePage {
		p, err = decodeEnvelope(body)
	} else {
		p, err = pageFromQuery(r, body)
	}
	if err != nil {
		s.fail(w, "read page", err)
		return
	}

	vals, err := s.decodePage(p)
	if err != nil {
		s.fail(w, "decode page", err)
		return
	}
	sendSuccess(w, DecodeResponse{
		Encoding:   p.Encoding,
		Type:       p.Type,
		ValueCount: len(vals),
		Values:     vals,
	})
}

// ColumnRequest is the body of POST /column.
type ColumnRequest struct {
	IDs []string `json:"ids"`
}

// ColumnResponse holds the values of several pages of one column.
type ColumnResponse struct {
	Pages      int   `json:"pages"`
	ValueCount int   `json:"value_count"`
	Values     []any `json:"values"`
}

// handleReadColumn decodes the listed pages concurrently and returns their
// values in request order.
func (s *Server) handleReadColumn(w http.ResponseWriter, r *http.Request) {
	var req ColumnRequest
	if err := json.NewDecoder(s.body(w, r)).Decode(&req); err != nil {
		sendError(w, fmt.Sprintf("Invalid request body: %v", err), bodyStatus(err))
		return
	}

	pages := make([]*codec.Page, len(req.IDs))
	for i, raw := range req.IDs {
		id, err := storage.ParseID(raw)
		if err != nil {
			s.fail(w, "read column", err)
			return
		}
		start := time.Now()
		pages[i], err = s.store.Get(id)
		s.metrics.RecordStoreOperation("get", err == nil, time.Since(start))
		if err != nil {
			s.failStored(w, "read column", err)
			return
		}
	}

	cols, err := scan.ReadColumn(r.Context(), pages, scan.Options{
		Workers:  s.config.ScanWorkers,
		Resolver: s.resolver,
		Logger:   s.logger,
	})
	if err != nil {
		s.fail(w, "read column", err)
		return
	}
	for i, p := range pages {
		s.metrics.RecordDecode(p.Encoding, p.Type, len(cols[i]), nil)
	}

	vals := scan.Flatten(cols)
	sendSuccess(w, ColumnResponse{Pages: len(pages), ValueCount: len(vals), Values: vals})
}

func (s *Server) decodePage(p *codec.Page) ([]any, error) {
	dec, err := p.NewDecoder(s.resolver)
	var vals []any
	if err == nil {
		vals, err = codec.DecodeValues(dec)
	}
	s.metrics.RecordDecode(p.Encoding, p.Type, len(vals), err)
	return vals, err
}

func decodeEnvelope(body []byte) (*codec.Page, error) {
	p, err := codec.NewPageCodec().Decode(body)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var errBadQuery = errors.New("invalid query parameter")

func pageFromQuery(r *http.Request, body []byte) (*codec.Page, error) {
	q := r.URL.Query()

	enc, err := values.ParseEncoding(q.Get("encoding"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadQuery, err)
	}
	typ, err := values.ParseType(q.Get("type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadQuery, err)
	}
	if enc.IsDictionary() {
		return nil, fmt.Errorf("%w: %s pages must be sent as envelopes", errBadQuery, enc)
	}

	count, err := uintParam(q.Get("count"), 32, true)
	if err != nil {
		return nil, fmt.Errorf("%w: count: %v", errBadQuery, err)
	}
	width, err := uintParam(q.Get("bit_width"), 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: bit_width: %v", errBadQuery, err)
	}
	length, err := uintParam(q.Get("type_length"), 32, false)
	if err != nil {
		return nil, fmt.Errorf("%w: type_length: %v", errBadQuery, err)
	}

	return &codec.Page{
		Version:    codec.Version,
		Encoding:   enc,
		Type:       typ,
		BitWidth:   uint8(width),
		TypeLength: uint32(length),
		ValueCount: uint32(count),
		Data:       body,
	}, nil
}

func uintParam(s string, bits int, required bool) (uint64, error) {
	if s == "" {
		if required {
			return 0, errors.New("required")
		}
		return 0, nil
	}
	return strconv.ParseUint(s, 10, bits)
}

func (s *Server) body(w http.ResponseWriter, r *http.Request) io.Reader {
	if s.config.MaxPageSize > 0 {
		return http.MaxBytesReader(w, r.Body, s.config.MaxPageSize)
	}
	return r.Body
}

func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (s *Server) pageID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidID),
		errors.Is(err, codec.ErrValueType),
		errors.Is(err, scan.ErrMixedTypes),
		errors.Is(err, errBadQuery):
		return http.StatusBadRequest
	case errorKind(err) != "other":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, action string, err error) {
	s.failWith(w, action, err, statusFor(err))
}

// failStored reports errors reading stored pages; a page that no longer
// decodes or fails its checksum is a server fault.
func (s *Server) failStored(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	if status == http.StatusUnprocessableEntity {
		status = http.StatusInternalServerError
	}
	s.failWith(w, action, err, status)
}

func (s *Server) failWith(w http.ResponseWriter, action string, err error, status int) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "action", action, "error", err)
	} else {
		s.logger.Debug("request rejected", "action", action, "status", status, "error", err)
	}
	kind := errorKind(err)
	if kind == "other" {
		kind = ""
	}
	sendFault(w, fmt.Sprintf("Failed to %s: %v", action, err), kind, status)
}
