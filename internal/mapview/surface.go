package mapview

import "fmt"

// AttachSurface places s alongside the map container under id.
func (v *View) AttachSurface(id string, s Surface) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.surfaces[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSurface, id)
	}
	v.surfaces[id] = s
	v.surfaceOrder = append(v.surfaceOrder, id)
	v.opts.Logger.Debug().Str("surface", id).Int("width", s.Width()).Int("height", s.Height()).Msg("surface attached")
	return nil
}

// DetachSurface removes the surface with id. It reports whether one was attached.
func (v *View) DetachSurface(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.surfaces[id]; !ok {
		return false
	}
	delete(v.surfaces, id)
	for i, sid := range v.surfaceOrder {
		if sid == id {
			v.surfaceOrder = append(v.surfaceOrder[:i:i], v.surfaceOrder[i+1:]...)
			break
		}
	}
	return true
}

// Surface returns the surface attached under id.
func (v *View) Surface(id string) (Surface, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s, ok := v.surfaces[id]
	return s, ok
}

// Surfaces returns the attached surfaces in stacking order, bottom first.
func (v *View) Surfaces() []Surface {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Surface, 0, len(v.surfaceOrder))
	for _, id := range v.surfaceOrder {
		out = append(out, v.surfaces[id])
	}
	return out
}
