package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacques-n/parquet-mr/pkg/storage"
)

func TestRoutes_RequireAPIKey(t *testing.T) {
	server := setupTestServer(t)
	h := server.Routes()

	for _, key := range []string{"", "wrong-key"} {
		req := httptest.NewRequest("GET", "/api/v1/health", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "key %q", key)
	}

	w := request(t, h, "GET", "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_Metrics(t *testing.T) {
	server := setupTestServer(t)
	h := server.Routes()

	w := request(t, h, "GET", "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `pagecodec_http_requests_total{endpoint="/api/v1/health",method="GET",status_code="200"} 1`)
	assert.Contains(t, body, `pagecodec_auth_requests_total{status="success"} 1`)
}

func TestNewMetrics_Independent(t *testing.T) {
	// Each server registers on its own registry.
	a, b := NewMetrics(), NewMetrics()
	a.RecordAuthRequest(true)
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestStartServer(t *testing.T) {
	st, err := storage.Open("", storage.InMemory())
	require.NoError(t, err)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, st, ServerConfig{Bind: "127.0.0.1", Port: 0, APIKey: testAPIKey}, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartServer_ListenError(t *testing.T) {
	st, err := storage.Open("", storage.InMemory())
	require.NoError(t, err)
	defer st.Close()

	err = StartServer(context.Background(), st, ServerConfig{Bind: "127.0.0.1", Port: -1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed")
}

func TestRoutes_CORS(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/pages", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	res := w.Result()
	_, _ = io.Copy(io.Discard, res.Body)
	assert.True(t, strings.Contains(res.Header.Get("Access-Control-Allow-Methods"), "POST"))
}
