// Package monitor tracks the physical outputs reported by the display
// server, in discovery order.
package monitor

import "github.com/lainwm/lainwm/internal/platform"

// Monitor is one physical output and its rectangle in root coordinates.
type Monitor struct {
	ID     platform.OutputID
	Name   string
	Bounds platform.Rect
}

// FromOutputs converts an enumeration result into monitors, keeping order.
func FromOutputs(outputs []platform.Output) []Monitor {
	monitors := make([]Monitor, 0, len(outputs))
	for _, o := range outputs {
		monitors = append(monitors, Monitor{ID: o.ID, Name: o.Name, Bounds: o.Bounds})
	}
	return monitors
}

// Registry is the ordered set of known monitors. It is not safe for
// concurrent use; the event loop owns it.
type Registry struct {
	monitors []Monitor
	index    map[platform.OutputID]int
	current  platform.OutputID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[platform.OutputID]int)}
}

// ReplaceAll discards the previous sequence and installs monitors. Later
// entries with a duplicate id are dropped. The current monitor survives if
// its id is still present.
func (r *Registry) ReplaceAll(monitors []Monitor) {
	r.monitors = make([]Monitor, 0, len(monitors))
	r.index = make(map[platform.OutputID]int, len(monitors))
	for _, m := range monitors {
		if _, dup := r.index[m.ID]; dup {
			continue
		}
		r.index[m.ID] = len(r.monitors)
		r.monitors = append(r.monitors, m)
	}
	if _, ok := r.index[r.current]; !ok {
		r.current = 0
	}
}

// Len returns the number of monitors.
func (r *Registry) Len() int { return len(r.monitors) }

// All returns a copy of the sequence.
func (r *Registry) All() []Monitor {
	out := make([]Monitor, len(r.monitors))
	copy(out, r.monitors)
	return out
}

// First returns the head of the sequence.
func (r *Registry) First() (Monitor, bool) {
	if len(r.monitors) == 0 {
		return Monitor{}, false
	}
	return r.monitors[0], true
}

// Next returns the monitor after the given one. There is no wraparound:
// past the last monitor, or for an unknown id, it returns false.
func (r *Registry) Next(after platform.OutputID) (Monitor, bool) {
	i, ok := r.index[after]
	if !ok || i+1 >= len(r.monitors) {
		return Monitor{}, false
	}
	return r.monitors[i+1], true
}

// Get looks a monitor up by id.
func (r *Registry) Get(id platform.OutputID) (Monitor, bool) {
	i, ok := r.index[id]
	if !ok {
		return Monitor{}, false
	}
	return r.monitors[i], true
}

// Containing returns the first monitor whose rectangle contains p.
func (r *Registry) Containing(p platform.Point) (Monitor, bool) {
	for _, m := range r.monitors {
		if m.Bounds.Contains(p) {
			return m, true
		}
	}
	return Monitor{}, false
}

// Touch marks a monitor as the most recently used one. Unknown ids are
// ignored.
func (r *Registry) Touch(id platform.OutputID) {
	if _, ok := r.index[id]; ok {
		r.current = id
	}
}

// Current returns the most recently touched monitor, falling back to the
// first one.
func (r *Registry) Current() (Monitor, bool) {
	if m, ok := r.Get(r.current); ok {
		return m, true
	}
	return r.First()
}

// Resolve picks the monitor a window should be measured against: its own
// monitor if still present, else the one under p, else the current one.
func (r *Registry) Resolve(id platform.OutputID, p platform.Point) (Monitor, bool) {
	if m, ok := r.Get(id); ok {
		return m, true
	}
	if m, ok := r.Containing(p); ok {
		return m, true
	}
	return r.Current()
}
