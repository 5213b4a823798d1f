// ABOUTME: Tests for configuration loading
// ABOUTME: Tests defaults, YAML overrides and validation errors
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Viewer.Downsample)
	assert.Equal(t, mjpeg.DefaultMaxFrameSize, cfg.Viewer.MaxFrameSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Viewer.JoinTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Viewer.ErrorSettle)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mjpeg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
viewer:
  source: http://cam.local/stream
  cross_fade: true
  reconnect: true
  reconnect_delay: 5s
server:
  fps: 30
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://cam.local/stream", cfg.Viewer.Source)
	assert.True(t, cfg.Viewer.CrossFade)
	assert.Equal(t, 5*time.Second, cfg.Viewer.ReconnectDelay)
	assert.Equal(t, 30, cfg.Server.FPS)
	// Untouched values keep their defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, mjpeg.DefaultErrorSettle, cfg.Viewer.ErrorSettle)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := Parse([]byte("viewer:\n  crossfade: true\n"), &cfg)
	assert.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse(nil, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Viewer.Downsample = 0
	cfg.Server.FPS = 0
	cfg.Server.Boundary = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewer.downsample")
	assert.Contains(t, err.Error(), "server.fps")
	assert.Contains(t, err.Error(), "server.boundary")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
