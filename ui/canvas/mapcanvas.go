package canvas

import (
	"image"
	"sync"

	"affine-overlay/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// NoMarker is returned by Scene.MarkerAt when no marker is under the point.
const NoMarker = -1

// Scene is the map content shown by a MapCanvas. Points and offsets are in
// container pixels.
type Scene interface {
	// Render draws the whole viewport at the given size.
	Render(width, height int) *image.RGBA
	// MarkerAt returns the index of the topmost marker whose icon covers p.
	MarkerAt(p geometry.Point2D) int
	MoveMarker(index int, dx, dy float64) error
	EndDrag(index int)
	PanBy(dx, dy float64)
	ZoomBy(delta float64)
}

// MapCanvas displays a Scene in a raster. Dragging a marker moves it,
// dragging anywhere else pans the map and the wheel zooms.
type MapCanvas struct {
	widget.BaseWidget

	scene  Scene
	raster *fynecanvas.Raster

	mu       sync.Mutex
	dragging bool
	marker   int
	pixels   image.Point // size of the last rendered output

	lastOutput *image.RGBA

	onError func(err error)
}

// NewMapCanvas creates a map canvas with the given minimum size.
func NewMapCanvas(scene Scene, minSize fyne.Size) *MapCanvas {
	mc := &MapCanvas{
		scene:  scene,
		marker: NoMarker,
	}
	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels
	mc.raster.SetMinSize(minSize)

	mc.ExtendBaseWidget(mc)
	return mc
}

// OnError sets a callback for failed marker drags.
func (mc *MapCanvas) OnError(callback func(err error)) {
	mc.onError = callback
}

// GetRenderedOutput returns the last rendered output.
func (mc *MapCanvas) GetRenderedOutput() *image.RGBA {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lastOutput
}

// Dragged moves the marker picked at the start of the drag, or pans the map
// so the content follows the pointer.
func (mc *MapCanvas) Dragged(ev *fyne.DragEvent) {
	scale := mc.pixelScale()
	pos := geometry.NewPoint2D(float64(ev.Position.X)*scale, float64(ev.Position.Y)*scale)
	delta := geometry.NewPoint2D(float64(ev.Dragged.DX)*scale, float64(ev.Dragged.DY)*scale)

	mc.mu.Lock()
	if !mc.dragging {
		mc.dragging = true
		mc.marker = mc.scene.MarkerAt(pos.Sub(delta))
	}
	marker := mc.marker
	mc.mu.Unlock()

	if marker == NoMarker {
		mc.scene.PanBy(-delta.X, -delta.Y)
	} else if err := mc.scene.MoveMarker(marker, delta.X, delta.Y); err != nil && mc.onError != nil {
		mc.onError(err)
	}
	mc.Refresh()
}

// DragEnd finishes a marker drag or a pan.
func (mc *MapCanvas) DragEnd() {
	mc.mu.Lock()
	marker := mc.marker
	dragging := mc.dragging
	mc.dragging = false
	mc.marker = NoMarker
	mc.mu.Unlock()

	if dragging && marker != NoMarker {
		mc.scene.EndDrag(marker)
	}
	mc.Refresh()
}

// Scrolled zooms one level per wheel step.
func (mc *MapCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		mc.scene.ZoomBy(1)
	} else if ev.Scrolled.DY < 0 {
		mc.scene.ZoomBy(-1)
	} else {
		return
	}
	mc.Refresh()
}

// Refresh redraws the raster.
func (mc *MapCanvas) Refresh() {
	mc.raster.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (mc *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(mc.raster)
}

// draw is the raster drawing function.
func (mc *MapCanvas) draw(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	output := mc.scene.Render(w, h)

	mc.mu.Lock()
	mc.lastOutput = output
	mc.pixels = image.Pt(w, h)
	mc.mu.Unlock()
	return output
}

// pixelScale converts event positions, given in fyne units, to raster pixels.
func (mc *MapCanvas) pixelScale() float64 {
	mc.mu.Lock()
	px := mc.pixels
	mc.mu.Unlock()

	size := mc.Size()
	if px.X == 0 || size.Width <= 0 {
		return 1
	}
	return float64(px.X) / float64(size.Width)
}
