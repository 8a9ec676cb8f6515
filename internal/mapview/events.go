package mapview

import (
	"sync"

	"github.com/paulmach/orb"
)

// EventType identifies map and marker events.
type EventType int

const (
	EventMove        EventType = iota // View panned, zoomed or re-centered
	EventResize                       // Viewport size changed
	EventLayerAdd                     // Layer added to the view
	EventLayerRemove                  // Layer removed from the view
	EventDrag                         // Marker moved by a drag
	EventDragEnd                      // Marker drag finished
	EventMarkerMove                   // Marker moved programmatically
)

func (e EventType) String() string {
	switch e {
	case EventMove:
		return "move"
	case EventResize:
		return "resize"
	case EventLayerAdd:
		return "layeradd"
	case EventLayerRemove:
		return "layerremove"
	case EventDrag:
		return "drag"
	case EventDragEnd:
		return "dragend"
	case EventMarkerMove:
		return "markermove"
	default:
		return "unknown"
	}
}

// Event is passed to listeners after the state change it describes.
type Event struct {
	Type   EventType
	LatLng orb.Point // Marker position for marker events, view center otherwise
}

// Listener is called when an event occurs.
type Listener func(e Event)

// ListenerID identifies a registered listener so it can be removed.
type ListenerID uint64

type registration struct {
	id       ListenerID
	listener Listener
}

// emitter keeps listeners per event type. Listeners are invoked without the
// lock held so they may query or register on the emitting object.
type emitter struct {
	mu        sync.RWMutex
	nextID    ListenerID
	listeners map[EventType][]registration
}

func (em *emitter) on(event EventType, listener Listener) ListenerID {
	em.mu.Lock()
	defer em.mu.Unlock()
	if em.listeners == nil {
		em.listeners = make(map[EventType][]registration)
	}
	em.nextID++
	em.listeners[event] = append(em.listeners[event], registration{id: em.nextID, listener: listener})
	return em.nextID
}

func (em *emitter) off(event EventType, id ListenerID) bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	regs := em.listeners[event]
	for i, r := range regs {
		if r.id == id {
			em.listeners[event] = append(regs[:i:i], regs[i+1:]...)
			return true
		}
	}
	return false
}

func (em *emitter) count(event EventType) int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.listeners[event])
}

func (em *emitter) emit(e Event) {
	em.mu.RLock()
	regs := em.listeners[e.Type]
	em.mu.RUnlock()

	for _, r := range regs {
		r.listener(e)
	}
}
