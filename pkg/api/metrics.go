package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jacques-n/parquet-mr/pkg/codec"
	"github.com/jacques-n/parquet-mr/pkg/values"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Page store metrics
	storeOperationsTotal   *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec

	// Codec metrics
	pagesDecodedTotal  *prometheus.CounterVec
	valuesDecodedTotal *prometheus.CounterVec
	decodeErrorsTotal  *prometheus.CounterVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics on a private registry, so any
// number of servers can live in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecodec_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagecodec_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pagecodec_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		storeOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecodec_store_operations_total",
				Help: "Total number of page store operations",
			},
			[]string{"operation", "status"},
		),

		storeOperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagecodec_store_operation_duration_seconds",
				Help:    "Page store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		pagesDecodedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecodec_pages_decoded_total",
				Help: "Total number of pages decoded",
			},
			[]string{"encoding", "type"},
		),

		valuesDecodedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecodec_values_decoded_total",
				Help: "Total number of values decoded",
			},
			[]string{"encoding", "type"},
		),

		decodeErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecodec_decode_errors_total",
				Help: "Total number of decoding failures by kind",
			},
			[]string{"encoding", "type", "kind"},
		),

		authRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecodec_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreOperation records a page store operation
func (m *Metrics) RecordStoreOperation(operation string, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.storeOperationsTotal.WithLabelValues(operation, status).Inc()
	m.storeOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDecode records the outcome of decoding a page. A nil err counts the
// page and its n values; otherwise the failure is counted by kind.
func (m *Metrics) RecordDecode(enc values.Encoding, typ values.Type, n int, err error) {
	e, t := enc.String(), typ.String()
	if err != nil {
		m.decodeErrorsTotal.WithLabelValues(e, t, errorKind(err)).Inc()
		return
	}
	m.pagesDecodedTotal.WithLabelValues(e, t).Inc()
	m.valuesDecodedTotal.WithLabelValues(e, t).Add(float64(n))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{values.ErrTruncated, "truncated"},
	{values.ErrOutOfBounds, "out_of_bounds"},
	{values.ErrInvalidIndex, "invalid_index"},
	{values.ErrFormat, "format"},
	{values.ErrUnsupportedEncoding, "unsupported"},
	{values.ErrExhausted, "exhausted"},
	{values.ErrMissingDictionary, "missing_dictionary"},
	{values.ErrValueTooLarge, "value_too_large"},
	{codec.ErrChecksum, "checksum"},
	{codec.ErrVersion, "version"},
}

// errorKind names the class of a codec failure for metric labels.
func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "other"
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := wrapResponseWriter(w)
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := wrapResponseWriter(w)
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
