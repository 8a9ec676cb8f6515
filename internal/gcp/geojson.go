package gcp

import (
	"affine-overlay/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection returns one point feature per GCP at its world position,
// with the image position in the "pixel" and "line" properties.
func FeatureCollection(gcps []GCP) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, g := range gcps {
		f := geojson.NewFeature(g.World)
		f.Properties["index"] = i
		f.Properties["pixel"] = g.Pixel.X
		f.Properties["line"] = g.Pixel.Y
		fc.Append(f)
	}
	return fc
}

// FromFeatureCollection reads GCPs back from the form written by
// FeatureCollection. Features without a point geometry are skipped.
func FromFeatureCollection(fc *geojson.FeatureCollection) []GCP {
	var gcps []GCP
	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		gcps = append(gcps, GCP{
			Pixel: geometry.NewPoint2D(f.Properties.MustFloat64("pixel", 0), f.Properties.MustFloat64("line", 0)),
			World: p,
		})
	}
	return gcps
}

// Footprint returns the world positions of the image corners under gt as a
// closed ring: top-left, top-right, bottom-right, bottom-left.
func Footprint(gt GeoTransform, width, height float64) orb.Ring {
	corners := geometry.ImageCorners(gt.Affine(), width, height)
	ring := make(orb.Ring, 0, len(corners)+1)
	for _, c := range corners {
		ring = append(ring, orb.Point{c.X, c.Y})
	}
	return append(ring, ring[0])
}

// FootprintGeoJSON returns the image footprint as a polygon feature.
func FootprintGeoJSON(gt GeoTransform, width, height float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{Footprint(gt, width, height)})
	f.Properties["width"] = width
	f.Properties["height"] = height
	return f
}
