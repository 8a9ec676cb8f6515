// Package overlay draws a raster image over a map through an affine transform
// controlled by three draggable markers, and reports the marker positions as
// ground control points.
//
// Marker 0 pins the image's top-left pixel corner, marker 1 its top-right and
// marker 2 its bottom-right. The transform is recomputed from the markers'
// container positions on every map move and marker drag.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"affine-overlay/internal/gcp"
	"affine-overlay/internal/mapview"
	"affine-overlay/pkg/geometry"
	"affine-overlay/ui/canvas"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

// DefaultOpacity keeps the map visible beneath the image.
const DefaultOpacity = 0.5

var (
	ErrNilMap     = errors.New("overlay requires a map")
	ErrEmptyImage = errors.New("overlay image must have positive width and height")
	ErrSurfaceID  = errors.New("overlay surface id must not be empty")
)

// Map is what the overlay needs from its host map. *mapview.View implements it.
type Map interface {
	Size() (width, height int)
	Center() orb.Point

	LatLngToLayerPoint(ll orb.Point) geometry.Point2D
	LayerPointToLatLng(p geometry.Point2D) orb.Point
	LayerPointToContainerPoint(p geometry.Point2D) geometry.Point2D
	ContainerPointToLayerPoint(p geometry.Point2D) geometry.Point2D

	On(event mapview.EventType, listener mapview.Listener) mapview.ListenerID
	Off(event mapview.EventType, id mapview.ListenerID) bool

	AddLayer(l mapview.Layer)
	RemoveLayer(l mapview.Layer) bool

	AttachSurface(id string, s mapview.Surface) error
	DetachSurface(id string) bool
}

// Options configures an Overlay. The zero value is valid.
type Options struct {
	// Icon creates marker icons. Nil means DefaultIconFactory.
	Icon IconFactory
	// Opacity of the drawn image in [0, 1]. Zero and NaN mean DefaultOpacity,
	// so a fully transparent overlay is made with SetOpacity(0) after New.
	Opacity float64
	Logger  zerolog.Logger
}

// Overlay is an image placed on a map by three control points.
type Overlay struct {
	mu sync.Mutex

	m         Map
	img       image.Image
	surfaceID string
	canvas    *canvas.Canvas
	log       zerolog.Logger

	markers [3]*mapview.Marker
	anchors [3]geometry.Point2D
	group   *mapview.LayerGroup

	opacity   float64
	transform geometry.AffineTransform
	visible   bool
	disposed  bool

	unsubscribe []func()
}

// New places img on m with its top-left corner at the map center at native
// pixel size, attaches a drawing surface under surfaceID and renders once.
func New(m Map, img image.Image, surfaceID string, opts *Options) (*Overlay, error) {
	if m == nil {
		return nil, ErrNilMap
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if surfaceID == "" {
		return nil, ErrSurfaceID
	}

	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Icon == nil {
		o.Icon = DefaultIconFactory{}
	}
	if o.Opacity == 0 || math.IsNaN(o.Opacity) {
		o.Opacity = DefaultOpacity
	}

	w, h := m.Size()
	ov := &Overlay{
		m:         m,
		img:       img,
		surfaceID: surfaceID,
		canvas:    canvas.New(surfaceID, w, h),
		log:       o.Logger.With().Str("surface", surfaceID).Logger(),
		opacity:   clampUnit(o.Opacity),
		visible:   true,
	}

	if err := m.AttachSurface(surfaceID, ov.canvas); err != nil {
		return nil, fmt.Errorf("attach surface: %w", err)
	}

	iw := float64(img.Bounds().Dx())
	ih := float64(img.Bounds().Dy())
	ov.anchors = [3]geometry.Point2D{
		geometry.NewPoint2D(0, 0),
		geometry.NewPoint2D(iw, 0),
		geometry.NewPoint2D(iw, ih),
	}

	origin := ov.toContainer(m.Center())
	layers := make([]mapview.Layer, 0, len(ov.markers))
	for i, anchor := range ov.anchors {
		ll := ov.toWorld(origin.Add(anchor))
		ov.markers[i] = mapview.NewMarker(ll, mapview.MarkerOptions{
			Draggable: true,
			Icon:      o.Icon.Create(),
		})
		layers = append(layers, ov.markers[i])
	}
	ov.group = mapview.NewLayerGroup(layers...)
	m.AddLayer(ov.group)

	ov.subscribe()
	ov.Render()

	ov.log.Debug().Int("width", int(iw)).Int("height", int(ih)).Msg("overlay created")
	return ov, nil
}

func (o *Overlay) subscribe() {
	render := func(mapview.Event) { o.Render() }

	moveID := o.m.On(mapview.EventMove, render)
	resizeID := o.m.On(mapview.EventResize, func(mapview.Event) {
		w, h := o.m.Size()
		o.canvas.Resize(w, h)
		o.Render()
	})
	o.unsubscribe = append(o.unsubscribe,
		func() { o.m.Off(mapview.EventMove, moveID) },
		func() { o.m.Off(mapview.EventResize, resizeID) },
	)

	for _, mk := range o.markers {
		mk := mk
		id := mk.On(mapview.EventDrag, render)
		o.unsubscribe = append(o.unsubscribe, func() { mk.Off(mapview.EventDrag, id) })
	}
}

// Render redraws the image through the transform defined by the current
// marker positions. It only touches the drawing surface.
func (o *Overlay) Render() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed {
		return
	}

	var p [3]geometry.Point2D
	for i, mk := range o.markers {
		p[i] = o.toContainer(mk.LatLng())
	}
	t := geometry.FromControlPoints(p[0], p[1], p[2], o.anchors[1].X, o.anchors[2].Y)
	o.transform = t

	ctx := o.canvas.Context()
	ctx.Save()
	defer ctx.Restore()

	ctx.Clear()
	if !ctx.SetTransform(t.CanvasMatrix()) {
		o.log.Warn().Msg("non-finite transform, skipping draw")
		return
	}
	ctx.SetGlobalAlpha(o.opacity)
	ctx.DrawImage(o.img, 0, 0)
}

// GroundControlPoints pairs each image anchor with its marker's current world
// position, in marker order.
func (o *Overlay) GroundControlPoints() []gcp.GCP {
	gcps := make([]gcp.GCP, len(o.markers))
	for i, mk := range o.markers {
		gcps[i] = gcp.GCP{Pixel: o.anchors[i], World: mk.LatLng()}
	}
	return gcps
}

// Markers returns the control-point markers.
func (o *Overlay) Markers() [3]*mapview.Marker {
	return o.markers
}

// Anchors returns the image pixel paired with each marker.
func (o *Overlay) Anchors() [3]geometry.Point2D {
	return o.anchors
}

// Canvas returns the drawing surface.
func (o *Overlay) Canvas() *canvas.Canvas {
	return o.canvas
}

// Image returns the source image.
func (o *Overlay) Image() image.Image {
	return o.img
}

// Transform returns the image-to-container transform used by the last render.
func (o *Overlay) Transform() geometry.AffineTransform {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transform
}

// Mirrored reports whether the markers flip the image, so that its corners
// run counter-clockwise on screen.
func (o *Overlay) Mirrored() bool {
	t := o.Transform()
	b := o.img.Bounds()
	corners := geometry.ImageCorners(t, float64(b.Dx()), float64(b.Dy()))
	return geometry.SignedArea(corners[:]) < 0
}

// Opacity returns the image opacity.
func (o *Overlay) Opacity() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opacity
}

// SetOpacity changes the image opacity, clamped to [0, 1], and re-renders.
// NaN restores DefaultOpacity.
func (o *Overlay) SetOpacity(a float64) {
	o.mu.Lock()
	o.opacity = clampUnit(a)
	o.mu.Unlock()
	o.Render()
}

// MarkersVisible reports whether the marker group is on the map.
func (o *Overlay) MarkersVisible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// SetMarkersVisible adds or removes the marker group. Hidden markers keep
// their positions and still define the transform.
func (o *Overlay) SetMarkersVisible(visible bool) {
	o.mu.Lock()
	if o.disposed || o.visible == visible {
		o.mu.Unlock()
		return
	}
	o.visible = visible
	o.mu.Unlock()

	if visible {
		o.m.AddLayer(o.group)
	} else {
		o.m.RemoveLayer(o.group)
	}
}

// Dispose unsubscribes from the map and markers, removes the marker group
// and detaches the surface. Calling it again does nothing.
func (o *Overlay) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	o.m.RemoveLayer(o.group)
	o.m.DetachSurface(o.surfaceID)

	o.log.Debug().Msg("overlay disposed")
}

func (o *Overlay) toContainer(ll orb.Point) geometry.Point2D {
	return o.m.LayerPointToContainerPoint(o.m.LatLngToLayerPoint(ll))
}

func (o *Overlay) toWorld(p geometry.Point2D) orb.Point {
	return o.m.LayerPointToLatLng(o.m.ContainerPointToLayerPoint(p))
}

func clampUnit(a float64) float64 {
	if math.IsNaN(a) {
		return DefaultOpacity
	}
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}
