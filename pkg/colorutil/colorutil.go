// Package colorutil provides shared color utilities.
package colorutil

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors used throughout the application.
var (
	Black    = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow   = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	DarkGray = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// ParseHex parses "#rrggbb" (or "#rgb") into an opaque RGBA color.
func ParseHex(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
