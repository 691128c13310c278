// Package api serves the page store and codecs over HTTP.
//
// Routes under /api/v1 require the X-API-Key header. /metrics is left open
// for scraping.
//
//	GET    /api/v1/health
//	POST   /api/v1/pages           encode values and store the page
//	GET    /api/v1/pages           list stored pages
//	GET    /api/v1/pages/{id}      decode a stored page
//	GET    /api/v1/pages/{id}/raw  fetch the stored envelope
//	DELETE /api/v1/pages/{id}
//	POST   /api/v1/decode          decode a page without storing it
//	POST   /api/v1/column          decode several stored pages of one column
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes returns the HTTP handler with all routes configured
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Pages
		r.Post("/pages", s.metrics.InstrumentHandler("POST", "/api/v1/pages", s.handleCreatePage))
		r.Get("/pages", s.metrics.InstrumentHandler("GET", "/api/v1/pages", s.handleListPages))
		r.Get("/pages/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/pages/{id}", s.handleGetPage))
		r.Get("/pages/{id}/raw", s.metrics.InstrumentHandler("GET", "/api/v1/pages/{id}/raw", s.handleGetRawPage))
		r.Delete("/pages/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/pages/{id}", s.handleDeletePage))

		// Codecs
		r.Post("/decode", s.metrics.InstrumentHandler("POST", "/api/v1/decode", s.handleDecode))
		r.Post("/column", s.metrics.InstrumentHandler("POST", "/api/v1/column", s.handleReadColumn))
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, store IPageStore, config ServerConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	server := NewServer(store, config, NewMetrics(), logger)
	defer server.Close()

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting page codec API server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down page codec API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
