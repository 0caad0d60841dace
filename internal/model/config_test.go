package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sharedspace/internal/model"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)

	def := model.DefaultAppConfig()
	assert.Equal(t, model.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, def.Store.SQLitePath, cfg.Store.SQLitePath)
	assert.Equal(t, model.DefaultTheme, cfg.Display.Theme)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "store:\n  driver: mongo\n  mongo_database: family\ndisplay:\n  theme: teal\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, model.DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "family", cfg.Store.MongoDatabase)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.MongoURI)
	assert.Equal(t, "teal", cfg.Display.Theme)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SHAREDSPACE_LOG_LEVEL", "debug")
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\n"), 0o600))

	_, err := model.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestThemeFileSaveTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := model.DefaultAppConfig()

	require.NoError(t, model.ThemeFile{Path: path, Config: cfg}.SaveTheme("purple"))
	assert.Equal(t, "purple", cfg.Display.Theme)

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "purple", loaded.Display.Theme)
	assert.Equal(t, cfg.Store.Driver, loaded.Store.Driver)
}
