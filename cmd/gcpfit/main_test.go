package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"affine-overlay/internal/gcp"
	"affine-overlay/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGCPs(t *testing.T, name string) string {
	t.Helper()
	gcps := []gcp.GCP{
		{Pixel: geometry.NewPoint2D(0, 0), World: orb.Point{13.4, 52.5}},
		{Pixel: geometry.NewPoint2D(100, 0), World: orb.Point{13.5, 52.5}},
		{Pixel: geometry.NewPoint2D(100, 50), World: orb.Point{13.5, 52.45}},
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	if filepath.Ext(name) == ".yaml" {
		require.NoError(t, gcp.WriteYAML(f, gcps))
	} else {
		require.NoError(t, gcp.WriteJSON(f, gcps))
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFitJSON(t *testing.T) {
	out, err := run(t, writeGCPs(t, "gcps.json"), "--width", "100", "--height", "50")
	require.NoError(t, err)

	assert.Contains(t, out, "GeoTransform: 13.4, 0.001")
	assert.Contains(t, out, "GCP 2: pixel (100.00, 50.00)")
	assert.Contains(t, out, "RMS: ")
	assert.Contains(t, out, "Footprint: POLYGON")
}

func TestFitYAMLGeoJSON(t *testing.T) {
	out, err := run(t, writeGCPs(t, "gcps.yaml"), "--width", "100", "--height", "50", "--geojson")
	require.NoError(t, err)
	assert.Contains(t, out, `"type":"Polygon"`)
}

func TestFitErrors(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t)
	assert.Error(t, err)
}
