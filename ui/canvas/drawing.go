package canvas

import (
	"image"
	"image/color"
	"math"

	"affine-overlay/pkg/colorutil"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawOverlay draws the outline first, then markers in order.
func DrawOverlay(output *image.RGBA, overlay *Overlay) {
	if overlay == nil {
		return
	}
	if len(overlay.Outline) >= 2 {
		n := len(overlay.Outline)
		for i := range overlay.Outline {
			a := overlay.Outline[i]
			b := overlay.Outline[(i+1)%n]
			drawDashedLine(output, int(math.Round(a.X)), int(math.Round(a.Y)),
				int(math.Round(b.X)), int(math.Round(b.Y)), overlay.Color)
		}
	}
	for _, m := range overlay.Markers {
		DrawMarker(output, m)
	}
}

// DrawMarker draws a pin: a round head filling the upper part of the icon box
// and a stem down to the anchor, with a crosshair on the exact position.
func DrawMarker(output *image.RGBA, m OverlayMarker) {
	left := m.Point.X - m.Anchor.X
	top := m.Point.Y - m.Anchor.Y

	r := m.Size.X / 2
	cx := left + r
	cy := top + r

	drawDisc(output, cx, cy, r, colorutil.White)
	drawDisc(output, cx, cy, r-1.5, m.Color)

	tipX := int(math.Round(m.Point.X))
	tipY := int(math.Round(m.Point.Y))
	drawLine(output, int(math.Round(cx)), int(math.Round(cy+r)), tipX, tipY, m.Color, 3)

	// Crosshair on the position itself.
	drawLine(output, tipX-4, tipY, tipX+4, tipY, colorutil.Black, 1)
	drawLine(output, tipX, tipY-4, tipX, tipY+4, colorutil.Black, 1)

	if m.Label != "" {
		drawLabel(output, m.Label, int(math.Round(cx)), int(math.Round(cy)), colorutil.White)
	}
}

// drawDisc fills a circle.
func drawDisc(output *image.RGBA, cx, cy, r float64, col color.RGBA) {
	if r <= 0 {
		return
	}
	bounds := output.Bounds()
	r2 := r * r
	for y := int(cy - r - 1); y <= int(cy+r+1); y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := int(cx - r - 1); x <= int(cx+r+1); x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r2 {
				output.SetRGBA(x, y, col)
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	plotLine(x1, y1, x2, y2, func(x, y, _ int) {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				setPixel(output, x+s, y+t, col)
			}
		}
	})
}

// drawDashedLine draws a one pixel line alternating 4 on, 4 off.
func drawDashedLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	plotLine(x1, y1, x2, y2, func(x, y, step int) {
		if step%8 < 4 {
			setPixel(output, x, y, col)
		}
	})
}

func plotLine(x1, y1, x2, y2 int, plot func(x, y, step int)) {
	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for step := 0; ; step++ {
		plot(x1, y1, step)

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawLabel draws label centered on (centerX, centerY).
func drawLabel(output *image.RGBA, label string, centerX, centerY int, col color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: output, Src: image.NewUniform(col), Face: face}
	width := d.MeasureString(label).Round()
	m := face.Metrics()
	d.Dot = fixed.P(centerX-width/2, centerY+(m.Ascent.Round()-m.Descent.Round())/2)
	d.DrawString(label)
}

func setPixel(output *image.RGBA, x, y int, col color.RGBA) {
	if (image.Point{X: x, Y: y}).In(output.Bounds()) {
		output.SetRGBA(x, y, col)
	}
}
