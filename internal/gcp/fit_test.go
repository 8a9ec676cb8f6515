package gcp

import (
	"testing"

	"affine-overlay/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitGeoTransform_Exact(t *testing.T) {
	gt, err := FitGeoTransform(sample())
	require.NoError(t, err)

	assert.InDelta(t, 13.4, gt[0], 1e-9)
	assert.InDelta(t, 0.001, gt[1], 1e-10)
	assert.InDelta(t, 0, gt[2], 1e-10)
	assert.InDelta(t, 52.5, gt[3], 1e-9)
	assert.InDelta(t, 0, gt[4], 1e-10)
	assert.InDelta(t, -0.001, gt[5], 1e-10)

	assert.InDelta(t, 0, RMS(Residuals(sample(), gt)), 1e-9)
}

func TestFitGeoTransform_Overdetermined(t *testing.T) {
	want := GeoTransform{-3, 0.01, 0.002, 40, 0.001, -0.01}
	var gcps []GCP
	for _, p := range []geometry.Point2D{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100}, {X: 70, Y: 30}} {
		w := want.Apply(p)
		gcps = append(gcps, GCP{Pixel: p, World: orb.Point{w.X, w.Y}})
	}
	// Perturb one point so the fit is no longer exact.
	gcps[4].World[0] += 0.01

	gt, err := FitGeoTransform(gcps)
	require.NoError(t, err)

	res := Residuals(gcps, gt)
	require.Len(t, res, 5)
	assert.Greater(t, res[4], 0.0)
	assert.Less(t, RMS(res), 0.01)
}

func TestFitGeoTransform_Errors(t *testing.T) {
	_, err := FitGeoTransform(sample()[:2])
	assert.ErrorIs(t, err, ErrTooFewPoints)

	line := []GCP{
		{Pixel: geometry.NewPoint2D(0, 0), World: orb.Point{0, 0}},
		{Pixel: geometry.NewPoint2D(10, 10), World: orb.Point{1, 1}},
		{Pixel: geometry.NewPoint2D(0, 0), World: orb.Point{0, 0}},
		{Pixel: geometry.NewPoint2D(20, 20), World: orb.Point{2, 2}},
	}
	_, err = FitGeoTransform(line)
	assert.ErrorIs(t, err, ErrCollinear)
}

func TestGeoTransformInvert(t *testing.T) {
	gt := GeoTransform{10, 0.5, 0.1, 20, -0.2, -0.5}
	inv, ok := gt.Invert()
	require.True(t, ok)

	p := geometry.NewPoint2D(37, 11)
	back := inv.Apply(gt.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	_, ok = GeoTransform{0, 1, 1, 0, 1, 1}.Invert()
	assert.False(t, ok)
}

func TestRMS_Empty(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
}
