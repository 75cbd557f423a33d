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

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, int64(100<<20), cfg.Storage.MaxUploadBytes())
	assert.Equal(t, 30, cfg.Pipeline.MaxFrames)
	assert.Equal(t, 5, cfg.Pipeline.FrameStride)
	assert.InDelta(t, 0.5, cfg.Detector.MinConfidence, 1e-9)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
database:
  driver: postgres
  dsn: host=localhost user=tvd dbname=tvd
storage:
  max_upload_mb: 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(10), cfg.Storage.MaxUploadMB)
	// Untouched keys keep defaults.
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TVD_SERVER_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}
