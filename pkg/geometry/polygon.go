package geometry

import "math"

// ImageCorners returns the four corners of a w x h image mapped through t, in
// the order top-left, top-right, bottom-right, bottom-left.
func ImageCorners(t AffineTransform, w, h float64) [4]Point2D {
	return [4]Point2D{
		t.Apply(Point2D{X: 0, Y: 0}),
		t.Apply(Point2D{X: w, Y: 0}),
		t.Apply(Point2D{X: w, Y: h}),
		t.Apply(Point2D{X: 0, Y: h}),
	}
}

// SignedArea returns the shoelace area of the polygon. The sign is positive
// for counter-clockwise vertices in a y-up frame, which is clockwise on screen.
func SignedArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}
	var sum float64
	for i := range polygon {
		j := (i + 1) % len(polygon)
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return sum / 2
}

// Collinear returns true if the three points lie on one line within eps,
// measured as twice the triangle area.
func Collinear(a, b, c Point2D, eps float64) bool {
	return math.Abs(crossProduct(a, b, c)) <= eps
}

func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
