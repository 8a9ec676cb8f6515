package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Map.Center.Lng)
	assert.Equal(t, 0.0, cfg.Map.Center.Lat)
	assert.Equal(t, 2.0, cfg.Map.Zoom)
	assert.Equal(t, 800, cfg.Map.Width)
	assert.Equal(t, 600, cfg.Map.Height)
	assert.Equal(t, 0.5, cfg.Overlay.Opacity)
	assert.Equal(t, "affine-overlay", cfg.Overlay.Surface)
	assert.Equal(t, "#2a81cb", cfg.Overlay.IconColor)
	assert.Equal(t, "Normal", cfg.Overlay.Blend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "gdal", cfg.Output.Format)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	data := `
map:
  center: {lng: 13.4, lat: 52.5}
  zoom: 12
overlay:
  image: scan.png
  opacity: 0.75
output:
  format: geojson
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 13.4, cfg.Map.Center.Lng)
	assert.Equal(t, 52.5, cfg.Map.Center.Lat)
	assert.Equal(t, 12.0, cfg.Map.Zoom)
	assert.Equal(t, 800, cfg.Map.Width)
	assert.Equal(t, "scan.png", cfg.Overlay.Image)
	assert.Equal(t, 0.75, cfg.Overlay.Opacity)
	assert.Equal(t, "geojson", cfg.Output.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("AFFINE_OVERLAY_MAP_ZOOM", "7")
	t.Setenv("AFFINE_OVERLAY_OUTPUT_FORMAT", "wkt")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.Map.Zoom)
	assert.Equal(t, "wkt", cfg.Output.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	_, err := Load("/nonexistent/overlay.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("overlay.opacity", 1.5)

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Map:     MapConfig{Width: 10, Height: 10},
			Overlay: OverlayConfig{Opacity: 0.5, Surface: "s"},
			Output:  OutputConfig{Format: "json"},
		}
	}

	c := valid()
	assert.NoError(t, c.Validate())

	c = valid()
	c.Map.Height = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalid)

	c = valid()
	c.Overlay.Surface = ""
	assert.ErrorIs(t, c.Validate(), ErrInvalid)

	c = valid()
	c.Output.Format = "kml"
	assert.ErrorIs(t, c.Validate(), ErrInvalid)
}
