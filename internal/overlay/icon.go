package overlay

import "affine-overlay/internal/mapview"

// IconFactory creates the icon used for each control-point marker.
type IconFactory interface {
	Create() mapview.Icon
}

// IconFunc adapts a plain function to IconFactory.
type IconFunc func() mapview.Icon

// Create calls f.
func (f IconFunc) Create() mapview.Icon {
	return f()
}

// DefaultIconFactory produces the map's standard pin.
type DefaultIconFactory struct{}

// Create returns mapview.DefaultIcon.
func (DefaultIconFactory) Create() mapview.Icon {
	return mapview.DefaultIcon()
}
