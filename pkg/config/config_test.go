package config

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Equal(t, "auto", config.Security.APIKey)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
	assert.Equal(t, 128, config.Codec.DeltaBlockSize)
	assert.Equal(t, 4, config.Codec.DeltaMiniBlocks)
	assert.Equal(t, 4, config.Scan.Workers)
	assert.Equal(t, 5*time.Minute, config.Scan.DictionaryCacheTTL)
	assert.NoError(t, config.Validate())
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	config.Port = 0
	config.Logging.Level = "loud"
	config.Logging.Format = "xml"
	config.Codec.DeltaBlockSize = 100
	config.Scan.DictionaryCacheTTL = 0

	err := config.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "5 errors occurred")
	assert.Contains(t, msg, "port 0 out of range")
	assert.Contains(t, msg, `unknown logging level "loud"`)
	assert.Contains(t, msg, `unknown logging format "xml"`)
	assert.Contains(t, msg, "codec block layout")
	assert.Contains(t, msg, "dictionary_cache_ttl")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Logging{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("page", "p1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "p1", entry["page"])

	buf.Reset()
	logger, err = NewLogger(Logging{Level: "DEBUG"}, &buf)
	require.NoError(t, err)
	logger.Debug("text output")
	assert.Contains(t, buf.String(), "msg=\"text output\"")

	_, err = NewLogger(Logging{Level: "chatty"}, &buf)
	assert.Error(t, err)
}

func TestGenerateSecureKey(t *testing.T) {
	t.Run("generate 32 byte key", func(t *testing.T) {
		key, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 64) // 32 bytes = 64 hex characters

		// Verify it's valid hex
		_, err = hex.DecodeString(key)
		assert.NoError(t, err)
	})

	t.Run("generate different keys", func(t *testing.T) {
		key1, err := GenerateSecureKey(16)
		require.NoError(t, err)
		key2, err := GenerateSecureKey(16)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})

	t.Run("zero length", func(t *testing.T) {
		key, err := GenerateSecureKey(0)
		require.NoError(t, err)
		assert.Empty(t, key)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.yaml")
		expectedConfig := &Config{
			DataDir: "/custom/data",
			Port:    9000,
			Bind:    "0.0.0.0",
			Security: Security{
				APIKey: "test-api-key",
			},
			Logging: Logging{
				Level:  "debug",
				Format: "json",
			},
			Codec: Codec{
				DeltaBlockSize:  256,
				DeltaMiniBlocks: 8,
				MaxPageSize:     1024,
			},
			Scan: Scan{
				Workers:            2,
				DictionaryCacheTTL: time.Minute,
			},
		}

		err := SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("missing fields keep defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "partial.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("port: 9090\nscan:\n  dictionary_cache_ttl: 30s\n"), 0600))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, 9090, loadedConfig.Port)
		assert.Equal(t, 30*time.Second, loadedConfig.Scan.DictionaryCacheTTL)
		assert.Equal(t, 128, loadedConfig.Codec.DeltaBlockSize)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := DefaultConfig()

	err := SaveConfig(config, configPath)
	require.NoError(t, err)

	// Verify file exists
	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Verify content
	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	dataDir := "/custom/data/dir"

	config, err := BootstrapConfig(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, config.DataDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "info", config.Logging.Level)

	// Verify the key is generated and not "auto"
	assert.NotEqual(t, "auto", config.Security.APIKey)
	_, err = hex.DecodeString(config.Security.APIKey)
	assert.NoError(t, err)

	assert.True(t, ConfigExists(configPath))

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "pagecodec")
	assert.Contains(t, path, "config.yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	err := os.WriteFile(existingPath, []byte("test"), 0644)
	require.NoError(t, err)

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLMarshalling(t *testing.T) {
	config := DefaultConfig()
	config.Security.APIKey = "api-key-456"
	config.Scan.DictionaryCacheTTL = 90 * time.Second

	data, err := yaml.Marshal(config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dictionary_cache_ttl: 1m30s")

	var unmarshalled Config
	err = yaml.Unmarshal(data, &unmarshalled)
	require.NoError(t, err)

	assert.Equal(t, config, &unmarshalled)
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	// Try to save to a directory that can't be created
	invalidPath := "/invalid/path/that/cannot/be/created/config.yaml"

	err := SaveConfig(config, invalidPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
