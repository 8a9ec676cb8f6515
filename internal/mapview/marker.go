package mapview

import (
	"image/color"
	"sync"

	"affine-overlay/pkg/geometry"

	"github.com/paulmach/orb"
)

// Icon describes how a marker is drawn. Anchor is the pixel inside the icon
// that sits on the marker position.
type Icon struct {
	Name   string
	Size   geometry.Point2D
	Anchor geometry.Point2D
	Color  color.RGBA
}

// DefaultIcon returns the standard 25x41 pin anchored at its tip.
func DefaultIcon() Icon {
	return Icon{
		Name:   "default",
		Size:   geometry.NewPoint2D(25, 41),
		Anchor: geometry.NewPoint2D(12, 41),
		Color:  color.RGBA{R: 42, G: 129, B: 203, A: 255},
	}
}

// MarkerOptions configures a marker.
type MarkerOptions struct {
	Draggable bool
	Icon      Icon
}

// Marker is a point on the map with a mutable world position.
type Marker struct {
	mu     sync.RWMutex
	latlng orb.Point
	opts   MarkerOptions
	events emitter
}

// NewMarker creates a marker at ll. A zero Icon is replaced by DefaultIcon.
func NewMarker(ll orb.Point, opts MarkerOptions) *Marker {
	if opts.Icon == (Icon{}) {
		opts.Icon = DefaultIcon()
	}
	return &Marker{latlng: ll, opts: opts}
}

// LatLng returns the current world position.
func (m *Marker) LatLng() orb.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latlng
}

// Icon returns the marker icon.
func (m *Marker) Icon() Icon {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts.Icon
}

// Draggable reports whether the marker accepts drags.
func (m *Marker) Draggable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts.Draggable
}

// SetLatLng moves the marker programmatically. It fires EventMarkerMove, not EventDrag.
func (m *Marker) SetLatLng(ll orb.Point) {
	m.mu.Lock()
	m.latlng = ll
	m.mu.Unlock()
	m.events.emit(Event{Type: EventMarkerMove, LatLng: ll})
}

// DragTo moves the marker as a user drag would and fires EventDrag once the
// new position is in place.
func (m *Marker) DragTo(ll orb.Point) error {
	m.mu.Lock()
	if !m.opts.Draggable {
		m.mu.Unlock()
		return ErrNotDraggable
	}
	m.latlng = ll
	m.mu.Unlock()

	m.events.emit(Event{Type: EventDrag, LatLng: ll})
	return nil
}

// DragEnd fires EventDragEnd at the current position.
func (m *Marker) DragEnd() {
	m.events.emit(Event{Type: EventDragEnd, LatLng: m.LatLng()})
}

// On registers a listener for a marker event.
func (m *Marker) On(event EventType, listener Listener) ListenerID {
	return m.events.on(event, listener)
}

// Off removes a listener registered with On.
func (m *Marker) Off(event EventType, id ListenerID) bool {
	return m.events.off(event, id)
}

// ListenerCount returns the number of listeners registered for event.
func (m *Marker) ListenerCount(event EventType) int {
	return m.events.count(event)
}

func (m *Marker) eachMarker(fn func(*Marker)) {
	fn(m)
}

// Layer is anything the view can show: a marker or a group of layers.
type Layer interface {
	eachMarker(fn func(*Marker))
}

// LayerGroup shows and removes a set of layers as a unit.
type LayerGroup struct {
	mu     sync.RWMutex
	layers []Layer
}

// NewLayerGroup creates a group holding layers.
func NewLayerGroup(layers ...Layer) *LayerGroup {
	return &LayerGroup{layers: append([]Layer(nil), layers...)}
}

// AddLayer appends a layer to the group.
func (g *LayerGroup) AddLayer(l Layer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.layers = append(g.layers, l)
}

// Layers returns the group members.
func (g *LayerGroup) Layers() []Layer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Layer(nil), g.layers...)
}

func (g *LayerGroup) eachMarker(fn func(*Marker)) {
	for _, l := range g.Layers() {
		l.eachMarker(fn)
	}
}

// AddLayer shows a layer on the map. Adding a layer twice is a no-op.
func (v *View) AddLayer(l Layer) {
	v.mu.Lock()
	for _, existing := range v.layers {
		if existing == l {
			v.mu.Unlock()
			return
		}
	}
	v.layers = append(v.layers, l)
	v.mu.Unlock()

	v.events.emit(Event{Type: EventLayerAdd, LatLng: v.Center()})
}

// RemoveLayer hides a layer. It reports whether the layer was on the map.
func (v *View) RemoveLayer(l Layer) bool {
	v.mu.Lock()
	found := false
	for i, existing := range v.layers {
		if existing == l {
			v.layers = append(v.layers[:i:i], v.layers[i+1:]...)
			found = true
			break
		}
	}
	v.mu.Unlock()

	if found {
		v.events.emit(Event{Type: EventLayerRemove, LatLng: v.Center()})
	}
	return found
}

// HasLayer reports whether l is on the map.
func (v *View) HasLayer(l Layer) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, existing := range v.layers {
		if existing == l {
			return true
		}
	}
	return false
}

// Layers returns the top-level layers in insertion order.
func (v *View) Layers() []Layer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Layer(nil), v.layers...)
}

// Markers returns every marker on the map, groups flattened.
func (v *View) Markers() []*Marker {
	var markers []*Marker
	for _, l := range v.Layers() {
		l.eachMarker(func(m *Marker) {
			markers = append(markers, m)
		})
	}
	return markers
}

// DragMarker drags m so it sits under the given container point.
func (v *View) DragMarker(m *Marker, containerPoint geometry.Point2D) error {
	return m.DragTo(v.ContainerPointToLatLng(containerPoint))
}

// DragMarkerBy drags m by a container pixel offset.
func (v *View) DragMarkerBy(m *Marker, dx, dy float64) error {
	p := v.LatLngToContainerPoint(m.LatLng())
	return v.DragMarker(m, p.Add(geometry.NewPoint2D(dx, dy)))
}
