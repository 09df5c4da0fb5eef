package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "attune", cfg.Name)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "data/attune.db", cfg.Storage.DatabasePath)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Model = "gemini-2.5-pro"
	cfg.Storage.DatabasePath = "/tmp/x.db"
	cfg.Logging.DebugMode = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", loaded.LLM.Model)
	assert.Equal(t, "/tmp/x.db", loaded.Storage.DatabasePath)
	assert.True(t, loaded.Logging.DebugMode)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY sets key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "test-key", cfg.LLM.APIKey)
	})

	t.Run("ATTUNE_DB overrides database path", func(t *testing.T) {
		t.Setenv("ATTUNE_DB", "/data/override.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/data/override.db", cfg.Storage.DatabasePath)
	})

	t.Run("ATTUNE_MODEL overrides model", func(t *testing.T) {
		t.Setenv("ATTUNE_MODEL", "gemini-exp")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini-exp", cfg.LLM.Model)
	})
}

func TestLoggingCategoryToggle(t *testing.T) {
	lc := LoggingConfig{DebugMode: false}
	assert.False(t, lc.IsCategoryEnabled("store"), "production mode disables everything")

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("store"), "debug mode enables all by default")

	lc.Categories = map[string]bool{"store": false}
	assert.False(t, lc.IsCategoryEnabled("store"))
	assert.True(t, lc.IsCategoryEnabled("session"), "unlisted categories stay enabled")
}
