// Package app ties the map view, the loaded image and the overlay together
// into a session driven by the CLI.
package app

import (
	"errors"
	"fmt"
	goimage "image"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"affine-overlay/internal/config"
	"affine-overlay/internal/gcp"
	"affine-overlay/internal/image"
	"affine-overlay/internal/mapview"
	"affine-overlay/internal/overlay"
	"affine-overlay/pkg/colorutil"
	"affine-overlay/pkg/geometry"
	"affine-overlay/ui/canvas"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

var (
	ErrNoOverlay     = errors.New("no image loaded")
	ErrMarkerIndex   = errors.New("marker index must be 0, 1 or 2")
	ErrInvalidDrag   = errors.New("drag must look like INDEX:DX,DY")
	ErrUnknownFormat = errors.New("unknown output format")
)

// EventType identifies session events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventOverlayReady
	EventMarkerDragged
	EventViewChanged
	EventExported
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Drag moves one marker by a container pixel offset.
type Drag struct {
	Index  int
	DX, DY float64
}

// Session holds the map, the image and its overlay.
type Session struct {
	mu sync.RWMutex

	cfg *config.Config
	log zerolog.Logger

	view    *mapview.View
	layer   *image.Layer
	basemap *image.Layer
	overlay *overlay.Overlay

	// Offset accumulated by the marker drag in progress.
	dragged geometry.Point2D

	listeners map[EventType][]EventListener
}

var _ canvas.Scene = (*Session)(nil)

// NewSession creates the map view described by cfg. No image is loaded yet.
func NewSession(cfg *config.Config, log zerolog.Logger) (*Session, error) {
	opts := mapview.DefaultOptions()
	opts.Logger = log.With().Str("component", "mapview").Logger()

	center := orb.Point{cfg.Map.Center.Lng, cfg.Map.Center.Lat}
	view, err := mapview.NewWithOptions(center, cfg.Map.Zoom, cfg.Map.Width, cfg.Map.Height, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create map view: %w", err)
	}

	s := &Session{
		cfg:       cfg,
		log:       log,
		view:      view,
		listeners: make(map[EventType][]EventListener),
	}

	view.On(mapview.EventMove, func(mapview.Event) {
		s.Emit(EventViewChanged, view.Center())
	})

	if cfg.Map.Basemap != "" {
		s.basemap, err = image.Load(cfg.Map.Basemap)
		if err != nil {
			return nil, fmt.Errorf("failed to load basemap: %w", err)
		}
	}
	return s, nil
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// View returns the map view.
func (s *Session) View() *mapview.View {
	return s.view
}

// Overlay returns the current overlay, or nil before an image is loaded.
func (s *Session) Overlay() *overlay.Overlay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlay
}

// LoadImage loads the image at path and places it on the map.
func (s *Session) LoadImage(path string) error {
	layer, err := image.Load(path)
	if err != nil {
		return err
	}
	return s.setLayer(layer)
}

// SetImage places an in-memory image on the map.
func (s *Session) SetImage(img goimage.Image) error {
	return s.setLayer(image.FromImage(img))
}

func (s *Session) setLayer(layer *image.Layer) error {
	if layer.Width() == 0 || layer.Height() == 0 {
		return image.ErrEmptyImage
	}
	s.Emit(EventImageLoaded, layer)

	iconColor, err := colorutil.ParseHex(s.cfg.Overlay.IconColor)
	if err != nil {
		return err
	}
	icon := mapview.DefaultIcon()
	icon.Color = iconColor

	s.mu.Lock()
	old := s.overlay
	s.overlay = nil
	s.layer = nil
	s.mu.Unlock()
	if old != nil {
		old.Dispose()
	}

	ov, err := overlay.New(s.view, layer.Image, s.cfg.Overlay.Surface, &overlay.Options{
		Icon:    overlay.IconFunc(func() mapview.Icon { return icon }),
		Opacity: s.cfg.Overlay.Opacity,
		Logger:  s.log.With().Str("component", "overlay").Logger(),
	})
	if err != nil {
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	if s.cfg.Overlay.Opacity == 0 {
		ov.SetOpacity(0)
	}

	s.mu.Lock()
	s.layer = layer
	s.overlay = ov
	s.mu.Unlock()

	s.log.Info().Str("path", layer.Path).Int("width", layer.Width()).Int("height", layer.Height()).Msg("image placed")
	s.Emit(EventOverlayReady, ov)
	return nil
}

// ApplyDrag drags one control point by a container pixel offset and ends
// the drag.
func (s *Session) ApplyDrag(d Drag) error {
	if err := s.MoveMarker(d.Index, d.DX, d.DY); err != nil {
		return err
	}
	s.EndDrag(d.Index)
	return nil
}

// MoveMarker drags marker index by a container pixel offset. The drag stays
// open until EndDrag.
func (s *Session) MoveMarker(index int, dx, dy float64) error {
	m, err := s.marker(index)
	if err != nil {
		return err
	}
	if err := s.view.DragMarkerBy(m, dx, dy); err != nil {
		return err
	}

	s.mu.Lock()
	s.dragged = s.dragged.Add(geometry.NewPoint2D(dx, dy))
	s.mu.Unlock()
	return nil
}

// EndDrag closes the drag of marker index and reports the total offset.
func (s *Session) EndDrag(index int) {
	m, err := s.marker(index)
	if err != nil {
		return
	}
	m.DragEnd()

	s.mu.Lock()
	d := Drag{Index: index, DX: s.dragged.X, DY: s.dragged.Y}
	s.dragged = geometry.Point2D{}
	s.mu.Unlock()

	s.log.Debug().Int("marker", d.Index).Float64("dx", d.DX).Float64("dy", d.DY).Msg("marker dragged")
	s.Emit(EventMarkerDragged, d)
}

// MarkerAt returns the index of the topmost visible marker whose icon covers
// the container point p, or canvas.NoMarker.
func (s *Session) MarkerAt(p geometry.Point2D) int {
	ov := s.Overlay()
	if ov == nil || !ov.MarkersVisible() {
		return canvas.NoMarker
	}
	markers := ov.Markers()
	for i := len(markers) - 1; i >= 0; i-- {
		icon := markers[i].Icon()
		tip := s.view.LatLngToContainerPoint(markers[i].LatLng())
		box := geometry.NewRect(tip.X-icon.Anchor.X, tip.Y-icon.Anchor.Y, icon.Size.X, icon.Size.Y)
		if box.Contains(p) {
			return i
		}
	}
	return canvas.NoMarker
}

func (s *Session) marker(index int) (*mapview.Marker, error) {
	ov := s.Overlay()
	if ov == nil {
		return nil, ErrNoOverlay
	}
	if index < 0 || index > 2 {
		return nil, fmt.Errorf("%w: got %d", ErrMarkerIndex, index)
	}
	return ov.Markers()[index], nil
}

// PanBy moves the view by a pixel offset.
func (s *Session) PanBy(dx, dy float64) {
	s.view.PanBy(dx, dy)
}

// Zoom sets the zoom level keeping the center.
func (s *Session) Zoom(z float64) {
	s.view.SetZoom(z)
}

// ZoomBy changes the zoom level by delta keeping the center.
func (s *Session) ZoomBy(delta float64) {
	if delta < 0 {
		s.view.ZoomOut(-delta)
		return
	}
	s.view.ZoomIn(delta)
}

// GCPs returns the current ground control points.
func (s *Session) GCPs() ([]gcp.GCP, error) {
	ov := s.Overlay()
	if ov == nil {
		return nil, ErrNoOverlay
	}
	return ov.GroundControlPoints(), nil
}

// Export writes the ground control points to w in the given format.
func (s *Session) Export(w io.Writer, format string) error {
	gcps, err := s.GCPs()
	if err != nil {
		return err
	}
	if s.Overlay().Mirrored() {
		s.log.Warn().Str("format", format).Msg("control points mirror the image")
	}

	switch format {
	case "gdal":
		_, err = fmt.Fprintln(w, gcp.TranslateCommand(s.sourcePath(), s.targetPath(), gcps))
	case "json":
		err = gcp.WriteJSON(w, gcps)
	case "yaml":
		err = gcp.WriteYAML(w, gcps)
	case "geojson":
		var data []byte
		data, err = gcp.FeatureCollection(gcps).MarshalJSON()
		if err == nil {
			_, err = fmt.Fprintln(w, string(data))
		}
	case "wkt":
		var wkt string
		if wkt, err = gcp.PointsWKT(gcps); err == nil {
			_, err = fmt.Fprintln(w, wkt)
		}
	case "footprint":
		err = s.writeFootprint(w, gcps)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", format, err)
	}

	s.Emit(EventExported, format)
	return nil
}

func (s *Session) writeFootprint(w io.Writer, gcps []gcp.GCP) error {
	gt, err := gcp.FitGeoTransform(gcps)
	if err != nil {
		return err
	}
	b := s.Overlay().Image().Bounds()
	wkt, err := gcp.FootprintWKT(gt, float64(b.Dx()), float64(b.Dy()))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, wkt)
	return err
}

// Preview composites the basemap, the overlay surface and the marker pins
// into one viewport-sized image.
func (s *Session) Preview() (*goimage.RGBA, error) {
	ov := s.Overlay()
	if ov == nil {
		return nil, ErrNoOverlay
	}
	return s.compose(ov), nil
}

// Render draws the viewport at width x height, resizing the view first when
// the size changed. Without an image only the basemap is drawn.
func (s *Session) Render(width, height int) *goimage.RGBA {
	if w, h := s.view.Size(); w != width || h != height {
		if err := s.view.Resize(width, height); err != nil {
			s.log.Warn().Err(err).Int("width", width).Int("height", height).Msg("resize failed")
		}
	}
	return s.compose(s.Overlay())
}

func (s *Session) compose(ov *overlay.Overlay) *goimage.RGBA {
	w, h := s.view.Size()
	comp := image.NewComposite(w, h)
	if s.basemap != nil {
		comp.AddLayer(s.basemap, image.BlendNormal, 0, 0)
	}
	if ov == nil {
		return comp.Render()
	}
	mode, ok := image.ParseBlendMode(s.cfg.Overlay.Blend)
	if !ok {
		s.log.Warn().Str("blend", s.cfg.Overlay.Blend).Msg("unknown blend mode, using Normal")
	}
	comp.AddLayer(image.FromImage(ov.Canvas().Image()), mode, 0, 0)
	out := comp.Render()

	decor := &canvas.Overlay{Color: colorutil.Yellow}
	b := ov.Image().Bounds()
	for _, c := range geometry.ImageCorners(ov.Transform(), float64(b.Dx()), float64(b.Dy())) {
		decor.Outline = append(decor.Outline, c)
	}
	if ov.MarkersVisible() {
		for i, m := range ov.Markers() {
			icon := m.Icon()
			decor.Markers = append(decor.Markers, canvas.OverlayMarker{
				Point:  s.view.LatLngToContainerPoint(m.LatLng()),
				Size:   icon.Size,
				Anchor: icon.Anchor,
				Color:  icon.Color,
				Label:  strconv.Itoa(i),
			})
		}
	}
	canvas.DrawOverlay(out, decor)
	return out
}

// Close removes the overlay from the map.
func (s *Session) Close() {
	s.mu.Lock()
	ov := s.overlay
	s.overlay = nil
	s.mu.Unlock()
	if ov != nil {
		ov.Dispose()
	}
}

func (s *Session) sourcePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.layer == nil || s.layer.Path == "" {
		return "input.tif"
	}
	return s.layer.Path
}

func (s *Session) targetPath() string {
	src := s.sourcePath()
	return strings.TrimSuffix(src, filepath.Ext(src)) + "_gcps.tif"
}

// ParseDrag parses "INDEX:DX,DY", e.g. "1:+100,-20".
func ParseDrag(s string) (Drag, error) {
	idx, offset, ok := strings.Cut(s, ":")
	if !ok {
		return Drag{}, fmt.Errorf("%w: %q", ErrInvalidDrag, s)
	}
	dxs, dys, ok := strings.Cut(offset, ",")
	if !ok {
		return Drag{}, fmt.Errorf("%w: %q", ErrInvalidDrag, s)
	}

	i, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return Drag{}, fmt.Errorf("%w: %q", ErrInvalidDrag, s)
	}
	if i < 0 || i > 2 {
		return Drag{}, fmt.Errorf("%w: got %d", ErrMarkerIndex, i)
	}
	dx, err := strconv.ParseFloat(strings.TrimSpace(dxs), 64)
	if err != nil {
		return Drag{}, fmt.Errorf("%w: %q", ErrInvalidDrag, s)
	}
	dy, err := strconv.ParseFloat(strings.TrimSpace(dys), 64)
	if err != nil {
		return Drag{}, fmt.Errorf("%w: %q", ErrInvalidDrag, s)
	}
	return Drag{Index: i, DX: dx, DY: dy}, nil
}
