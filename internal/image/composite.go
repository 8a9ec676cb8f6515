package image

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"affine-overlay/pkg/colorutil"
)

// BlendMode specifies how layers are composited.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// ParseBlendMode maps a case-sensitive mode name back to its BlendMode.
func ParseBlendMode(s string) (BlendMode, bool) {
	for m := BlendNormal; m <= BlendDifference; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return BlendNormal, false
}

// Composite stacks layers of viewport-sized imagery: a basemap at the bottom,
// the overlay surface above it.
type Composite struct {
	Width     int
	Height    int
	Layers    []*CompositeLayer
	BackColor color.Color
}

// CompositeLayer wraps a Layer with compositing settings.
type CompositeLayer struct {
	Layer     *Layer
	BlendMode BlendMode
	OffsetX   int
	OffsetY   int
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: colorutil.DarkGray,
	}
}

// AddLayer adds a layer to the composite.
func (c *Composite) AddLayer(layer *Layer, mode BlendMode, offsetX, offsetY int) {
	c.Layers = append(c.Layers, &CompositeLayer{
		Layer:     layer,
		BlendMode: mode,
		OffsetX:   offsetX,
		OffsetY:   offsetY,
	})
}

// Render produces the final composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(result, result.Bounds(), &image.Uniform{C: c.BackColor}, image.Point{}, draw.Src)

	for _, cl := range c.Layers {
		if cl.Layer == nil || cl.Layer.Image == nil || !cl.Layer.Visible || cl.Layer.Opacity <= 0 {
			continue
		}
		c.compositeLayer(result, cl)
	}

	return result
}

// compositeLayer blends a single layer onto the result.
func (c *Composite) compositeLayer(dst *image.RGBA, cl *CompositeLayer) {
	src := cl.Layer.Image
	sb := src.Bounds()
	opacity := math.Min(cl.Layer.Opacity, 1)

	// Destination rectangle covered by the layer, clipped to the result.
	dr := image.Rect(cl.OffsetX, cl.OffsetY, cl.OffsetX+sb.Dx(), cl.OffsetY+sb.Dy()).Intersect(dst.Bounds())

	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		sy := y - cl.OffsetY + sb.Min.Y
		for x := dr.Min.X; x < dr.Max.X; x++ {
			sx := x - cl.OffsetX + sb.Min.X
			s := color.NRGBAModel.Convert(src.At(sx, sy)).(color.NRGBA)
			if s.A == 0 {
				continue
			}
			dst.SetRGBA(x, y, blend(dst.RGBAAt(x, y), s, cl.BlendMode, opacity))
		}
	}
}

// blend combines a non-premultiplied source over an opaque-or-not destination.
func blend(dst color.RGBA, src color.NRGBA, mode BlendMode, opacity float64) color.RGBA {
	sf := [3]float64{float64(src.R) / 255, float64(src.G) / 255, float64(src.B) / 255}
	da := float64(dst.A) / 255
	var df [3]float64
	if dst.A > 0 {
		// Un-premultiply the destination.
		df = [3]float64{float64(dst.R) / 255 / da, float64(dst.G) / 255 / da, float64(dst.B) / 255 / da}
	}

	var rf [3]float64
	for i := 0; i < 3; i++ {
		switch mode {
		case BlendMultiply:
			rf[i] = sf[i] * df[i]
		case BlendScreen:
			rf[i] = 1 - (1-sf[i])*(1-df[i])
		case BlendOverlay:
			if df[i] < 0.5 {
				rf[i] = 2 * sf[i] * df[i]
			} else {
				rf[i] = 1 - 2*(1-sf[i])*(1-df[i])
			}
		case BlendDifference:
			rf[i] = math.Abs(sf[i] - df[i])
		default:
			rf[i] = sf[i]
		}
	}

	alpha := float64(src.A) / 255 * opacity
	outA := alpha + da*(1-alpha)

	var out [3]float64
	for i := 0; i < 3; i++ {
		// Premultiplied result.
		out[i] = rf[i]*alpha + df[i]*da*(1-alpha)
	}

	return color.RGBA{
		R: to8(out[0]),
		G: to8(out[1]),
		B: to8(out[2]),
		A: to8(outA),
	}
}

func to8(x float64) uint8 {
	return uint8(clamp(x, 0, 1)*255 + 0.5)
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
