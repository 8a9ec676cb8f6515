package gcp

import (
	"errors"
	"fmt"
	"math"

	"affine-overlay/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrTooFewPoints = errors.New("need at least 3 gcps")
	ErrCollinear    = errors.New("gcp pixel positions are collinear")
)

// GeoTransform is the GDAL six-coefficient affine geotransform:
//
//	X = GT[0] + pixel*GT[1] + line*GT[2]
//	Y = GT[3] + pixel*GT[4] + line*GT[5]
type GeoTransform [6]float64

// Apply maps a pixel/line position to world coordinates.
func (gt GeoTransform) Apply(p geometry.Point2D) geometry.Point2D {
	return geometry.NewPoint2D(
		gt[0]+p.X*gt[1]+p.Y*gt[2],
		gt[3]+p.X*gt[4]+p.Y*gt[5],
	)
}

// Affine returns gt as a geometry.AffineTransform.
func (gt GeoTransform) Affine() geometry.AffineTransform {
	return geometry.AffineTransform{
		A: gt[1], B: gt[2], TX: gt[0],
		C: gt[4], D: gt[5], TY: gt[3],
	}
}

// Invert returns the world-to-pixel transform.
func (gt GeoTransform) Invert() (GeoTransform, bool) {
	inv, ok := gt.Affine().Inverse()
	if !ok {
		return GeoTransform{}, false
	}
	return FromAffine(inv), true
}

// FromAffine converts an AffineTransform to GDAL order.
func FromAffine(t geometry.AffineTransform) GeoTransform {
	return GeoTransform{t.TX, t.A, t.B, t.TY, t.C, t.D}
}

// FitGeoTransform fits the pixel to lon/lat mapping by least squares. With
// exactly three points the fit is exact.
func FitGeoTransform(gcps []GCP) (GeoTransform, error) {
	n := len(gcps)
	if n < 3 {
		return GeoTransform{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}
	if collinear(gcps) {
		return GeoTransform{}, ErrCollinear
	}

	// Two rows per point, unknowns ordered GT[0..5].
	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)
	for i, g := range gcps {
		x, y := g.Pixel.X, g.Pixel.Y

		A.Set(i*2, 0, 1)
		A.Set(i*2, 1, x)
		A.Set(i*2, 2, y)
		B.SetVec(i*2, g.World.Lon())

		A.Set(i*2+1, 3, 1)
		A.Set(i*2+1, 4, x)
		A.Set(i*2+1, 5, y)
		B.SetVec(i*2+1, g.World.Lat())
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return GeoTransform{}, fmt.Errorf("failed to solve geotransform: %w", err)
	}

	var gt GeoTransform
	for i := range gt {
		gt[i] = params.AtVec(i)
	}
	return gt, nil
}

// Residuals returns, per GCP, the distance in degrees between its world
// position and where gt places its pixel.
func Residuals(gcps []GCP, gt GeoTransform) []float64 {
	res := make([]float64, len(gcps))
	for i, g := range gcps {
		res[i] = gt.Apply(g.Pixel).Distance(geometry.NewPoint2D(g.World.Lon(), g.World.Lat()))
	}
	return res
}

// RMS is the root mean square of the residuals.
func RMS(residuals []float64) float64 {
	if len(residuals) == 0 {
		return 0
	}
	var sum float64
	for _, r := range residuals {
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(residuals)))
}

// collinear reports whether every pixel lies on one line.
func collinear(gcps []GCP) bool {
	a := gcps[0].Pixel
	for i := 1; i < len(gcps); i++ {
		b := gcps[i].Pixel
		if b == a {
			continue
		}
		for _, g := range gcps[i+1:] {
			if !geometry.Collinear(a, b, g.Pixel, 1e-9) {
				return false
			}
		}
		return true
	}
	return true
}
