package canvas

import (
	"image/color"

	"affine-overlay/pkg/geometry"
)

// Overlay holds vector decorations drawn on top of a rendered preview.
type Overlay struct {
	Markers []OverlayMarker
	Outline []geometry.Point2D // Closed polygon in container pixels, drawn dashed
	Color   color.RGBA         // Outline color
}

// OverlayMarker is a pin drawn with its tip at Point.
type OverlayMarker struct {
	Point  geometry.Point2D // Container pixel of the marker position
	Size   geometry.Point2D // Icon size in pixels
	Anchor geometry.Point2D // Pixel inside the icon placed on Point
	Color  color.RGBA
	Label  string // Optional label drawn inside the pin head
}
