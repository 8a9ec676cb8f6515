// Package canvas provides an offscreen RGBA drawing surface with a 2D context
// modelled on the HTML canvas: a transform, a global alpha and a save/restore
// stack.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"affine-overlay/pkg/geometry"

	xdraw "golang.org/x/image/draw"
)

// Canvas is a drawing surface identified by an id.
type Canvas struct {
	mu  sync.Mutex
	id  string
	img *image.RGBA
	ctx *Context
}

// New creates a transparent canvas of the given size.
func New(id string, width, height int) *Canvas {
	c := &Canvas{
		id:  id,
		img: image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
	}
	c.ctx = &Context{canvas: c, state: defaultState()}
	return c
}

// ID returns the canvas id.
func (c *Canvas) ID() string {
	return c.id
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img.Bounds().Dx()
}

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img.Bounds().Dy()
}

// Image returns a copy of the current pixels.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// Resize replaces the pixel buffer. Content is cleared and the context state
// is reset, as with the HTML canvas.
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	c.ctx.state = defaultState()
	c.ctx.stack = nil
}

// Context returns the 2D drawing context.
func (c *Canvas) Context() *Context {
	return c.ctx
}

type state struct {
	transform geometry.AffineTransform
	alpha     float64
}

func defaultState() state {
	return state{transform: geometry.Identity(), alpha: 1}
}

// Context draws onto a Canvas.
type Context struct {
	canvas *Canvas
	state  state
	stack  []state
}

// Save pushes the current transform and alpha.
func (x *Context) Save() {
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	x.stack = append(x.stack, x.state)
}

// Restore pops the last saved state. Restore without a matching Save does nothing.
func (x *Context) Restore() {
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	if len(x.stack) == 0 {
		return
	}
	x.state = x.stack[len(x.stack)-1]
	x.stack = x.stack[:len(x.stack)-1]
}

// SaveDepth returns the number of saved states.
func (x *Context) SaveDepth() int {
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	return len(x.stack)
}

// SetTransform replaces the current transform. Arguments follow the canvas
// order: the image x axis maps to (m11, m12), the y axis to (m21, m22).
// Non-finite arguments leave the transform unchanged and return false.
func (x *Context) SetTransform(m11, m12, m21, m22, dx, dy float64) bool {
	t := geometry.FromCanvasMatrix(m11, m12, m21, m22, dx, dy)
	if !t.IsFinite() {
		return false
	}
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	x.state.transform = t
	return true
}

// Transform returns the current transform.
func (x *Context) Transform() geometry.AffineTransform {
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	return x.state.transform
}

// SetGlobalAlpha sets the alpha applied to drawing. Values outside [0,1] are ignored.
func (x *Context) SetGlobalAlpha(a float64) {
	if math.IsNaN(a) || a < 0 || a > 1 {
		return
	}
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	x.state.alpha = a
}

// GlobalAlpha returns the current global alpha.
func (x *Context) GlobalAlpha() float64 {
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	return x.state.alpha
}

// ClearRect makes the rectangle transparent. The rectangle is in device
// pixels; the current transform is not applied.
func (x *Context) ClearRect(left, top, width, height int) {
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	r := image.Rect(left, top, left+width, top+height).Intersect(x.canvas.img.Bounds())
	draw.Draw(x.canvas.img, r, image.Transparent, image.Point{}, draw.Src)
}

// Clear makes the whole canvas transparent.
func (x *Context) Clear() {
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()
	draw.Draw(x.canvas.img, x.canvas.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// DrawImage draws img with its top-left corner at (dx, dy) in user space,
// through the current transform, composited over existing pixels with the
// global alpha. Nothing is drawn when the transform is singular.
func (x *Context) DrawImage(img image.Image, dx, dy float64) {
	x.canvas.mu.Lock()
	defer x.canvas.mu.Unlock()

	t := x.state.transform.Compose(geometry.Translation(dx, dy))
	if _, ok := t.Inverse(); !ok || x.state.alpha == 0 {
		return
	}

	// Transform maps source pixels relative to the source bounds origin.
	b := img.Bounds()
	t = t.Compose(geometry.Translation(-float64(b.Min.X), -float64(b.Min.Y)))

	var opts *xdraw.Options
	if x.state.alpha < 1 {
		mask := image.NewUniform(color.Alpha16{A: uint16(math.Round(x.state.alpha * 0xffff))})
		opts = &xdraw.Options{SrcMask: mask}
	}
	xdraw.BiLinear.Transform(x.canvas.img, t.Aff3(), img, b, xdraw.Over, opts)
}
