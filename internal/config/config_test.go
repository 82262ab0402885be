package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/mealplanner.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("database:\n  path: /tmp/meals.db\nhttp:\n  port: 9000\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/meals.db", cfg.Database.Path)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	// Untouched keys keep defaults.
	assert.Equal(t, "localhost", cfg.HTTP.Host)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 9000\n"), 0600))

	t.Setenv("MEALPLANNER_HTTP_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTP.Port)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.HTTP.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())
}
