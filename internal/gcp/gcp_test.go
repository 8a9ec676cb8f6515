package gcp

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"affine-overlay/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []GCP {
	return []GCP{
		{Pixel: geometry.NewPoint2D(0, 0), World: orb.Point{13.4, 52.5}},
		{Pixel: geometry.NewPoint2D(100, 0), World: orb.Point{13.5, 52.5}},
		{Pixel: geometry.NewPoint2D(100, 50), World: orb.Point{13.5, 52.45}},
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(sample()[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"image_location":[100,0],"world_location":[13.5,52.5]}`, string(data))
}

func TestJSONReadWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestReadJSON_Invalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"image_location":`))
	assert.Error(t, err)
}

func TestYAMLReadWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sample()))
	assert.Contains(t, buf.String(), "image_location:")

	got, err := ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestTranslateArgs(t *testing.T) {
	args := TranslateArgs(sample()[:2])
	assert.Equal(t, []string{
		"-gcp", "0", "0", "13.4", "52.5",
		"-gcp", "100", "0", "13.5", "52.5",
	}, args)
}

func TestTranslateCommand(t *testing.T) {
	cmd := TranslateCommand("scan.png", "my scan.tif", sample()[:1])
	assert.Equal(t, "gdal_translate -of GTiff -a_srs EPSG:4326 -gcp 0 0 13.4 52.5 scan.png 'my scan.tif'", cmd)
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection(sample())
	require.Len(t, fc.Features, 3)
	assert.Equal(t, orb.Point{13.5, 52.45}, fc.Features[2].Geometry)
	assert.Equal(t, 2, fc.Features[2].Properties["index"])

	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	back, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Equal(t, sample(), FromFeatureCollection(back))
}

func TestFootprint(t *testing.T) {
	gt, err := FitGeoTransform(sample())
	require.NoError(t, err)

	ring := Footprint(gt, 100, 50)
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4])
	assert.InDelta(t, 13.4, ring[3].Lon(), 1e-9)
	assert.InDelta(t, 52.45, ring[3].Lat(), 1e-9)

	f := FootprintGeoJSON(gt, 100, 50)
	poly, ok := f.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, ring, poly[0])
}

func TestFootprintWKT(t *testing.T) {
	gt := GeoTransform{10, 1, 0, 20, 0, -1}
	wkt, err := FootprintWKT(gt, 2, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(wkt, "POLYGON"), wkt)

	g, err := geom.UnmarshalWKT(wkt)
	require.NoError(t, err)
	assert.True(t, g.IsPolygon())
	assert.Contains(t, wkt, "12 20")
	assert.Contains(t, wkt, "10 19")
}

func TestPointsWKT(t *testing.T) {
	wkt, err := PointsWKT(sample())
	require.NoError(t, err)
	g, err := geom.UnmarshalWKT(wkt)
	require.NoError(t, err)
	assert.True(t, g.IsMultiPoint())
	assert.Equal(t, 3, g.MustAsMultiPoint().NumPoints())
}

func TestWKT_InvalidGeometry(t *testing.T) {
	// A zero geotransform collapses every corner onto the origin.
	_, err := FootprintWKT(GeoTransform{}, 2, 1)
	assert.Error(t, err)

	gcps := sample()
	gcps[1].World = orb.Point{math.NaN(), 52.5}
	_, err = PointsWKT(gcps)
	assert.Error(t, err)
}
