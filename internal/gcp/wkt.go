package gcp

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// FootprintWKT returns the image footprint under gt as a WKT polygon.
func FootprintWKT(gt GeoTransform, width, height float64) (string, error) {
	poly, err := footprintPolygon(gt, width, height)
	if err != nil {
		return "", err
	}
	return poly.AsText(), nil
}

// PointsWKT returns the GCP world positions as a WKT multipoint.
func PointsWKT(gcps []GCP) (string, error) {
	pts := make([]geom.Point, 0, len(gcps))
	for i, g := range gcps {
		pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: g.World.Lon(), Y: g.World.Lat()}})
		if err != nil {
			return "", fmt.Errorf("gcp %d: %w", i, err)
		}
		pts = append(pts, pt)
	}
	return geom.NewMultiPoint(pts).AsText(), nil
}

func footprintPolygon(gt GeoTransform, width, height float64) (geom.Polygon, error) {
	ring := Footprint(gt, width, height)
	coords := make([]float64, 0, len(ring)*2)
	for _, p := range ring {
		coords = append(coords, p.Lon(), p.Lat())
	}
	shell, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("footprint ring: %w", err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{shell})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("footprint polygon: %w", err)
	}
	return poly, nil
}
