// Package mapview models an interactive slippy map: a Web Mercator view with
// pan and zoom, draggable markers, layer groups and attached drawing surfaces.
//
// Positions go through two pixel spaces. Layer points are projected pixels
// relative to the pixel origin fixed at the last SetView; they do not change
// while panning. Container points are relative to the viewport and shift with
// every pan.
package mapview

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"affine-overlay/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/wroge/wgs84"
)

const (
	// DefaultTileSize is the edge length of a tile at zoom 0, in pixels.
	DefaultTileSize = 256.0

	// MaxLatitude is the Web Mercator latitude limit.
	MaxLatitude = 85.0511287798

	earthRadius = 6378137.0
)

var (
	ErrDuplicateSurface = errors.New("surface id already attached")
	ErrNotDraggable     = errors.New("marker is not draggable")
	ErrInvalidSize      = errors.New("viewport size must be positive")
)

var (
	lonLatToMercator = wgs84.EPSG().Transform(4326, 3857)
	mercatorToLonLat = wgs84.EPSG().Transform(3857, 4326)
)

// Surface is a drawing surface placed alongside the map container.
type Surface interface {
	Width() int
	Height() int
}

// Options configures a View.
type Options struct {
	MinZoom  float64
	MaxZoom  float64
	TileSize float64
	Logger   zerolog.Logger
}

// DefaultOptions returns zoom limits and tile size matching common tile servers.
func DefaultOptions() Options {
	return Options{
		MinZoom:  0,
		MaxZoom:  22,
		TileSize: DefaultTileSize,
		Logger:   zerolog.Nop(),
	}
}

// View is the map. All methods are safe to call from listeners.
type View struct {
	mu sync.RWMutex

	opts        Options
	width       int
	height      int
	zoom        float64
	pixelOrigin geometry.Point2D
	panePos     geometry.Point2D

	layers       []Layer
	surfaces     map[string]Surface
	surfaceOrder []string

	events emitter
}

// New creates a view of the given viewport size centered on center (lng, lat).
func New(center orb.Point, zoom float64, width, height int) (*View, error) {
	return NewWithOptions(center, zoom, width, height, DefaultOptions())
}

// NewWithOptions creates a view with explicit options.
func NewWithOptions(center orb.Point, zoom float64, width, height int, opts Options) (*View, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if opts.TileSize <= 0 {
		opts.TileSize = DefaultTileSize
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = opts.MinZoom
	}

	v := &View{
		opts:     opts,
		width:    width,
		height:   height,
		surfaces: make(map[string]Surface),
	}
	v.resetView(center, zoom)
	return v, nil
}

// Size returns the viewport size in pixels.
func (v *View) Size() (width, height int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

// Zoom returns the current zoom level.
func (v *View) Zoom() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom
}

// Center returns the world position under the middle of the viewport.
func (v *View) Center() orb.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	half := geometry.NewPoint2D(float64(v.width)/2, float64(v.height)/2)
	return v.unproject(half.Sub(v.panePos).Add(v.pixelOrigin), v.zoom)
}

// PixelOrigin returns the projected pixel at layer point (0,0).
func (v *View) PixelOrigin() geometry.Point2D {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pixelOrigin
}

// Project converts a world position to absolute pixels at the given zoom.
func (v *View) Project(ll orb.Point, zoom float64) geometry.Point2D {
	return v.project(ll, zoom)
}

// Unproject converts absolute pixels at the given zoom to a world position.
func (v *View) Unproject(p geometry.Point2D, zoom float64) orb.Point {
	return v.unproject(p, zoom)
}

// LatLngToLayerPoint projects a world position into layer space.
func (v *View) LatLngToLayerPoint(ll orb.Point) geometry.Point2D {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.project(ll, v.zoom).Sub(v.pixelOrigin)
}

// LayerPointToLatLng is the inverse of LatLngToLayerPoint.
func (v *View) LayerPointToLatLng(p geometry.Point2D) orb.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.unproject(p.Add(v.pixelOrigin), v.zoom)
}

// LayerPointToContainerPoint shifts a layer point by the current pan offset.
func (v *View) LayerPointToContainerPoint(p geometry.Point2D) geometry.Point2D {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return p.Add(v.panePos)
}

// ContainerPointToLayerPoint is the inverse of LayerPointToContainerPoint.
func (v *View) ContainerPointToLayerPoint(p geometry.Point2D) geometry.Point2D {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return p.Sub(v.panePos)
}

// LatLngToContainerPoint converts a world position to viewport pixels.
func (v *View) LatLngToContainerPoint(ll orb.Point) geometry.Point2D {
	return v.LayerPointToContainerPoint(v.LatLngToLayerPoint(ll))
}

// ContainerPointToLatLng converts viewport pixels to a world position.
func (v *View) ContainerPointToLatLng(p geometry.Point2D) orb.Point {
	return v.LayerPointToLatLng(v.ContainerPointToLayerPoint(p))
}

// PanBy moves the view by the given number of pixels. Content shifts by
// (-dx, -dy) in container space.
func (v *View) PanBy(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	v.mu.Lock()
	v.panePos = v.panePos.Sub(geometry.NewPoint2D(dx, dy))
	v.mu.Unlock()

	v.opts.Logger.Debug().Float64("dx", dx).Float64("dy", dy).Msg("pan")
	v.events.emit(Event{Type: EventMove, LatLng: v.Center()})
}

// SetView re-centers the view at the given zoom.
func (v *View) SetView(center orb.Point, zoom float64) {
	v.mu.Lock()
	v.resetView(center, zoom)
	z := v.zoom
	v.mu.Unlock()

	v.opts.Logger.Debug().Float64("lng", center.Lon()).Float64("lat", center.Lat()).Float64("zoom", z).Msg("set view")
	v.events.emit(Event{Type: EventMove, LatLng: v.Center()})
}

// SetZoom changes the zoom level keeping the current center.
func (v *View) SetZoom(zoom float64) {
	v.SetView(v.Center(), zoom)
}

// ZoomIn increases the zoom level by delta.
func (v *View) ZoomIn(delta float64) {
	v.SetZoom(v.Zoom() + delta)
}

// ZoomOut decreases the zoom level by delta.
func (v *View) ZoomOut(delta float64) {
	v.SetZoom(v.Zoom() - delta)
}

// Resize changes the viewport size keeping the world position at its center.
func (v *View) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	v.mu.Lock()
	if width == v.width && height == v.height {
		v.mu.Unlock()
		return nil
	}
	offset := geometry.NewPoint2D(float64(v.width-width)/2, float64(v.height-height)/2).Round()
	v.width = width
	v.height = height
	v.panePos = v.panePos.Sub(offset)
	v.mu.Unlock()

	center := v.Center()
	v.events.emit(Event{Type: EventMove, LatLng: center})
	v.events.emit(Event{Type: EventResize, LatLng: center})
	return nil
}

// On registers a listener for a view event.
func (v *View) On(event EventType, listener Listener) ListenerID {
	return v.events.on(event, listener)
}

// Off removes a listener registered with On.
func (v *View) Off(event EventType, id ListenerID) bool {
	return v.events.off(event, id)
}

// ListenerCount returns the number of listeners registered for event.
func (v *View) ListenerCount(event EventType) int {
	return v.events.count(event)
}

// resetView must be called with the lock held (or before the view is shared).
func (v *View) resetView(center orb.Point, zoom float64) {
	v.zoom = clamp(zoom, v.opts.MinZoom, v.opts.MaxZoom)
	half := geometry.NewPoint2D(float64(v.width)/2, float64(v.height)/2)
	v.pixelOrigin = v.project(center, v.zoom).Sub(half).Round()
	v.panePos = geometry.Point2D{}
}

func (v *View) scale(zoom float64) float64 {
	return v.opts.TileSize * math.Pow(2, zoom)
}

func (v *View) project(ll orb.Point, zoom float64) geometry.Point2D {
	lat := clamp(ll.Lat(), -MaxLatitude, MaxLatitude)
	x, y, _ := lonLatToMercator(ll.Lon(), lat, 0)

	s := v.scale(zoom)
	k := 0.5 / (math.Pi * earthRadius)
	return geometry.NewPoint2D(s*(k*x+0.5), s*(-k*y+0.5))
}

func (v *View) unproject(p geometry.Point2D, zoom float64) orb.Point {
	s := v.scale(zoom)
	k := 0.5 / (math.Pi * earthRadius)
	x := (p.X/s - 0.5) / k
	y := (p.Y/s - 0.5) / -k

	lng, lat, _ := mercatorToLonLat(x, y, 0)
	return orb.Point{lng, lat}
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
