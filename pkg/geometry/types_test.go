package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromControlPoints_Translation(t *testing.T) {
	tr := FromControlPoints(
		NewPoint2D(10, 20), NewPoint2D(110, 20), NewPoint2D(110, 70), 100, 50)

	m11, m12, m21, m22, dx, dy := tr.CanvasMatrix()
	assert.InDelta(t, 1.0, m11, 1e-12)
	assert.InDelta(t, 0.0, m12, 1e-12)
	assert.InDelta(t, 0.0, m21, 1e-12)
	assert.InDelta(t, 1.0, m22, 1e-12)
	assert.InDelta(t, 10.0, dx, 1e-12)
	assert.InDelta(t, 20.0, dy, 1e-12)
}

func TestFromControlPoints_DoubledX(t *testing.T) {
	tr := FromControlPoints(
		NewPoint2D(10, 20), NewPoint2D(210, 20), NewPoint2D(110, 70), 100, 50)

	m11, m12, _, _, _, _ := tr.CanvasMatrix()
	assert.InDelta(t, 2.0, m11, 1e-12)
	assert.InDelta(t, 0.0, m12, 1e-12)
}

func TestFromControlPoints_MapsAnchors(t *testing.T) {
	p0 := NewPoint2D(-3.5, 40)
	p1 := NewPoint2D(120, 95.25)
	p2 := NewPoint2D(60, 300)
	w, h := 640.0, 480.0

	tr := FromControlPoints(p0, p1, p2, w, h)

	assert.InDelta(t, 0, tr.Apply(NewPoint2D(0, 0)).Distance(p0), 1e-9)
	assert.InDelta(t, 0, tr.Apply(NewPoint2D(w, 0)).Distance(p1), 1e-9)
	assert.InDelta(t, 0, tr.Apply(NewPoint2D(w, h)).Distance(p2), 1e-9)
}

func TestFromControlPoints_ZeroSizeIsNotFinite(t *testing.T) {
	tr := FromControlPoints(NewPoint2D(0, 0), NewPoint2D(1, 0), NewPoint2D(1, 1), 0, 10)
	assert.False(t, tr.IsFinite())
}

func TestCanvasMatrixRoundTrip(t *testing.T) {
	tr := FromCanvasMatrix(1, 2, 3, 4, 5, 6)
	m11, m12, m21, m22, dx, dy := tr.CanvasMatrix()
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, []float64{m11, m12, m21, m22, dx, dy})

	// Canvas order puts m12 in the y row and m21 in the x row.
	p := tr.Apply(NewPoint2D(1, 0))
	assert.Equal(t, NewPoint2D(1+5, 2+6), p)
}

func TestInverse(t *testing.T) {
	rot := AffineTransform{A: math.Cos(math.Pi / 6), B: -math.Sin(math.Pi / 6), C: math.Sin(math.Pi / 6), D: math.Cos(math.Pi / 6)}
	tr := rot.Compose(AffineTransform{A: 2, D: 3}).Compose(Translation(4, -7))
	inv, ok := tr.Inverse()
	require.True(t, ok)

	p := NewPoint2D(12.5, -3)
	back := inv.Apply(tr.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	id := tr.Compose(inv).ToMatrix()
	for r, row := range Identity().ToMatrix() {
		for c, want := range row {
			assert.InDelta(t, want, id[r][c], 1e-9)
		}
	}
}

func TestInverse_Singular(t *testing.T) {
	_, ok := AffineTransform{A: 0, D: 1}.Inverse()
	assert.False(t, ok)
}

func TestAff3Order(t *testing.T) {
	tr := FromCanvasMatrix(1, 2, 3, 4, 5, 6)
	a := tr.Aff3()
	// x' = a[0]*x + a[1]*y + a[2]
	assert.Equal(t, 1.0, a[0])
	assert.Equal(t, 3.0, a[1])
	assert.Equal(t, 5.0, a[2])
	assert.Equal(t, 2.0, a[3])
	assert.Equal(t, 4.0, a[4])
	assert.Equal(t, 6.0, a[5])
}

func TestImageCornersAndArea(t *testing.T) {
	corners := ImageCorners(Translation(10, 20), 100, 50)
	assert.Equal(t, NewPoint2D(10, 20), corners[0])
	assert.Equal(t, NewPoint2D(110, 20), corners[1])
	assert.Equal(t, NewPoint2D(110, 70), corners[2])
	assert.Equal(t, NewPoint2D(10, 70), corners[3])

	assert.InDelta(t, 5000, SignedArea(corners[:]), 1e-9)

	// Swapping the x axis mirrors the image and flips the sign.
	mirrored := ImageCorners(AffineTransform{A: -1, D: 1}, 100, 50)
	assert.InDelta(t, -5000, SignedArea(mirrored[:]), 1e-9)
}

func TestCollinear(t *testing.T) {
	assert.True(t, Collinear(NewPoint2D(0, 0), NewPoint2D(1, 1), NewPoint2D(5, 5), 1e-9))
	assert.False(t, Collinear(NewPoint2D(0, 0), NewPoint2D(1, 0), NewPoint2D(1, 1), 1e-9))
}

func TestRectContains(t *testing.T) {
	r := NewRect(-2, -1, 5, 5)
	assert.True(t, r.Contains(NewPoint2D(0, 0)))
	assert.True(t, r.Contains(NewPoint2D(3, 4)))
	assert.False(t, r.Contains(NewPoint2D(3.5, 0)))
}
