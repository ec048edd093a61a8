// Package client holds the registry of managed top-level windows.
package client

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lainwm/lainwm/internal/platform"
)

var (
	// ErrDuplicateClient is returned by Add when the window is already managed.
	ErrDuplicateClient = errors.New("client already managed")
	// ErrNotFound is returned for windows that are not managed.
	ErrNotFound = errors.New("client not found")
)

// Flags describe window-manager state hints read from the client.
type Flags uint8

const (
	FlagUserPositioned Flags = 1 << iota
	FlagVerticallyMaximized
	FlagMaximized
	FlagSticky
)

// Has reports whether every bit of f2 is set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// String lists the set flags, e.g. "user-positioned|sticky".
func (f Flags) String() string {
	names := []struct {
		flag Flags
		name string
	}{
		{FlagUserPositioned, "user-positioned"},
		{FlagVerticallyMaximized, "maximized-vert"},
		{FlagMaximized, "maximized"},
		{FlagSticky, "sticky"},
	}
	s := ""
	for _, n := range names {
		if f.Has(n.flag) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// FlagsFromInfo derives flags from the properties read at manage time.
func FlagsFromInfo(info platform.WindowInfo) Flags {
	var f Flags
	if info.UserPositioned {
		f |= FlagUserPositioned
	}
	if info.MaximizedVert {
		f |= FlagVerticallyMaximized
	}
	if info.MaximizedVert && info.MaximizedHorz {
		f |= FlagMaximized
	}
	if info.StickyAcrossDesk {
		f |= FlagSticky
	}
	return f
}

// Client is a managed window. Monitor is a lookup key into the monitor
// registry; zero means unknown.
type Client struct {
	ID       platform.WindowID
	Name     string
	Geometry platform.Rect
	Hints    platform.SizeHints
	Flags    Flags
	Monitor  platform.OutputID
}

// Registry maps window ids to clients. It is owned by the event loop and is
// not safe for concurrent use.
type Registry struct {
	clients map[platform.WindowID]*Client
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[platform.WindowID]*Client)}
}

// Add inserts c. The existing entry is left untouched on ErrDuplicateClient.
func (r *Registry) Add(c Client) error {
	if _, ok := r.clients[c.ID]; ok {
		return fmt.Errorf("%w: window %d", ErrDuplicateClient, c.ID)
	}
	c.Geometry = floorSize(c.Geometry)
	r.clients[c.ID] = &c
	return nil
}

// Lookup returns a copy of the client.
func (r *Registry) Lookup(id platform.WindowID) (Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return Client{}, fmt.Errorf("%w: window %d", ErrNotFound, id)
	}
	return *c, nil
}

// Contains reports whether id is managed.
func (r *Registry) Contains(id platform.WindowID) bool {
	_, ok := r.clients[id]
	return ok
}

// Remove deletes and returns the client.
func (r *Registry) Remove(id platform.WindowID) (Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return Client{}, fmt.Errorf("%w: window %d", ErrNotFound, id)
	}
	delete(r.clients, id)
	return *c, nil
}

// SetGeometry records the last-known geometry. Width and height are floored
// at 1; x and y may be negative.
func (r *Registry) SetGeometry(id platform.WindowID, g platform.Rect) error {
	c, ok := r.clients[id]
	if !ok {
		return fmt.Errorf("%w: window %d", ErrNotFound, id)
	}
	c.Geometry = floorSize(g)
	return nil
}

// SetMonitor records which monitor the client sits on.
func (r *Registry) SetMonitor(id platform.WindowID, monitor platform.OutputID) error {
	c, ok := r.clients[id]
	if !ok {
		return fmt.Errorf("%w: window %d", ErrNotFound, id)
	}
	c.Monitor = monitor
	return nil
}

// Len returns the number of managed clients.
func (r *Registry) Len() int { return len(r.clients) }

// IDs returns the managed window ids in ascending order.
func (r *Registry) IDs() []platform.WindowID {
	ids := make([]platform.WindowID, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All returns copies of every client ordered by id.
func (r *Registry) All() []Client {
	ids := r.IDs()
	out := make([]Client, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.clients[id])
	}
	return out
}

func floorSize(g platform.Rect) platform.Rect {
	if g.Width < 1 {
		g.Width = 1
	}
	if g.Height < 1 {
		g.Height = 1
	}
	return g
}
