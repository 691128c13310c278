/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/jacques-n/parquet-mr/pkg/values/delta"
)

// Config represents the pagecodec configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
	Codec    Codec    `yaml:"codec"`
	Scan     Scan     `yaml:"scan"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Codec contains encoder defaults and page limits
type Codec struct {
	DeltaBlockSize  int `yaml:"delta_block_size"`
	DeltaMiniBlocks int `yaml:"delta_mini_blocks"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Scan contains column scan configuration
type Scan struct {
	Workers            int           `yaml:"workers"`
	DictionaryCacheTTL time.Duration `yaml:"dictionary_cache_ttl"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			APIKey: "auto",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Codec: Codec{
			DeltaBlockSize:  delta.DefaultBlockSize,
			DeltaMiniBlocks: delta.DefaultMiniBlocks,
			MaxPageSize:     16 << 20,
		},
		Scan: Scan{
			Workers:            4,
			DictionaryCacheTTL: 5 * time.Minute,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.DataDir == "" {
		result = multierror.Append(result, fmt.Errorf("data_dir must be set"))
	}
	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		result = multierror.Append(result, err)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}
	if err := delta.CheckBlockSize(c.Codec.DeltaBlockSize, c.Codec.DeltaMiniBlocks); err != nil {
		result = multierror.Append(result, fmt.Errorf("codec block layout: %w", err))
	}
	if c.Codec.MaxPageSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_page_size must be positive"))
	}
	if c.Scan.Workers < 0 {
		result = multierror.Append(result, fmt.Errorf("scan workers must not be negative"))
	}
	if c.Scan.DictionaryCacheTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("dictionary_cache_ttl must be positive"))
	}

	return result.ErrorOrNil()
}

// ParseLevel parses a logging level name.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("unknown logging level %q", s)
	}
	return level, nil
}

// NewLogger builds the logger described by l writing to w.
func NewLogger(l Logging, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./pagecodec.yaml"
	}

	// For Linux/macOS, use ~/.config/pagecodec/config.yaml
	configDir := filepath.Join(homeDir, ".config", "pagecodec")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
