// Package di provides dependency injection container
package di

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jacques-n/parquet-mr/pkg/api"
	"github.com/jacques-n/parquet-mr/pkg/config"
	"github.com/jacques-n/parquet-mr/pkg/storage"
)

// StoreOpener opens the page store at path.
type StoreOpener func(path string, opts ...storage.Option) (*storage.PageStore, error)

// Container holds all the dependencies for the application
type Container struct {
	config    *config.Config
	logger    *slog.Logger
	openStore StoreOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		config:    config.DefaultConfig(),
		logger:    slog.New(slog.DiscardHandler),
		openStore: storage.Open,
	}
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// SetConfig replaces the active configuration
func (c *Container) SetConfig(cfg *config.Config) {
	c.config = cfg
}

// Logger returns the application logger
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// SetLogger replaces the application logger
func (c *Container) SetLogger(l *slog.Logger) {
	c.logger = l
}

// SetStoreOpener allows overriding how the page store is opened (for testing)
func (c *Container) SetStoreOpener(open StoreOpener) {
	c.openStore = open
}

// OpenStore opens the page store under the configured data directory,
// creating the directory if needed.
func (c *Container) OpenStore() (*storage.PageStore, error) {
	if err := os.MkdirAll(c.config.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return c.openStore(filepath.Join(c.config.DataDir, "pages"), storage.WithLogger(c.logger))
}

// ServerConfig derives the API server configuration
func (c *Container) ServerConfig() api.ServerConfig {
	cfg := c.config
	return api.ServerConfig{
		Port:               cfg.Port,
		Bind:               cfg.Bind,
		APIKey:             cfg.Security.APIKey,
		MaxPageSize:        int64(cfg.Codec.MaxPageSize),
		DeltaBlockSize:     cfg.Codec.DeltaBlockSize,
		DeltaMiniBlocks:    cfg.Codec.DeltaMiniBlocks,
		ScanWorkers:        cfg.Scan.Workers,
		DictionaryCacheTTL: cfg.Scan.DictionaryCacheTTL,
	}
}
