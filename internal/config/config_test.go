package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("MAP_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Render.TextureResolution)
	assert.Equal(t, 4, cfg.Render.BlockPixels())
	assert.Equal(t, 1.25, cfg.Render.HeightExaggeration)
	assert.Equal(t, 8, cfg.Render.ContourStep)
	assert.Equal(t, 1000, cfg.Scanner.MaxCachedChunks)
	assert.Equal(t, 10, cfg.Scanner.DisposeDistance)
	assert.Equal(t, -1, cfg.Render.BiomeBlendOverride)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := writeConfig(t, `
render:
  texture_resolution: 128
  contour_step: 4
  water_depth_strength: 5
scanner:
  max_cached_chunks: 64
cache:
  dedupe_window: 500ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Render.BlockPixels())
	assert.Equal(t, 4, cfg.Render.ContourStep)
	assert.Equal(t, 2.0, cfg.Render.WaterDepthStrength, "значение зажимается в [0,2]")
	assert.Equal(t, 64, cfg.Scanner.MaxCachedChunks)
	assert.Equal(t, 500*time.Millisecond, cfg.Cache.DedupeWindow)
	assert.True(t, cfg.Render.ContoursEnabled, "неуказанные поля сохраняют значения по умолчанию")
}

func TestLoad_RejectsBadResolution(t *testing.T) {
	path := writeConfig(t, "render:\n  texture_resolution: 50\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestServerConfig_PortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("MAP_REST_PORT", "9099")
	assert.Equal(t, 9099, s.GetRESTPort())

	t.Setenv("MAP_METRICS_PORT", "bogus")
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
}
