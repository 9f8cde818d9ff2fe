package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Catalog.Provider)
	assert.True(t, cfg.Indexer.WatchMapping)
	assert.True(t, cfg.Indexer.ReindexOnStart)
	assert.Empty(t, cfg.Indexer.Schedule)
	assert.Equal(t, 30, cfg.Dispatch.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = "/tmp/toolgate"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = "/tmp/toolgate"
		cfg.Server.Port = -1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("unknown catalog provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = "/tmp/toolgate"
		cfg.Catalog.Provider = "postgres"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog provider")
	})

	t.Run("sqlite without a home for the database", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite catalog requires")
	})
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()

	assert.Contains(t, s, `"server"`)
	assert.Contains(t, s, `"catalog"`)
	assert.Contains(t, s, `"sqlite"`)
}
