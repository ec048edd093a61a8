// Package platformtest provides an in-memory platform.Transport for tests.
package platformtest

import (
	"sync"

	"github.com/lainwm/lainwm/internal/platform"
)

// Call records one side-effecting request made against the Transport.
type Call struct {
	Op     string
	Window platform.WindowID
	Config platform.WindowConfig
	X, Y   int
}

// Transport is a fake display server. Window geometry is kept in memory and
// updated by ConfigureWindow, so queries after a move observe the new
// position. Events pushed with Push are returned by NextEvent; Close ends
// the stream with platform.ErrTransportUnavailable.
type Transport struct {
	mu sync.Mutex

	RootID     platform.WindowID
	Pointer    platform.Point
	PointerErr error
	Outputs    []platform.Output
	OutputsErr error
	Keysyms    map[platform.Keycode]string
	Infos      map[platform.WindowID]platform.WindowInfo
	Existing   []platform.WindowID
	GrabErr    error
	RefreshErr error

	geometries map[platform.WindowID]platform.Rect
	calls      []Call
	clientList []platform.WindowID
	active     platform.WindowID

	events chan platform.Event
	once   sync.Once
}

var _ platform.Transport = (*Transport)(nil)

// New returns a fake transport with the given root window id.
func New(root platform.WindowID) *Transport {
	return &Transport{
		RootID:     root,
		Keysyms:    make(map[platform.Keycode]string),
		Infos:      make(map[platform.WindowID]platform.WindowInfo),
		geometries: make(map[platform.WindowID]platform.Rect),
		events:     make(chan platform.Event, 64),
	}
}

// AddWindow makes a window known to the fake server.
func (t *Transport) AddWindow(id platform.WindowID, r platform.Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.geometries[id] = r
}

// DestroyWindow forgets a window so geometry queries fail.
func (t *Transport) DestroyWindow(id platform.WindowID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.geometries, id)
}

// SetPointer moves the fake pointer.
func (t *Transport) SetPointer(x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Pointer = platform.Point{X: x, Y: y}
}

// Push queues an event for NextEvent.
func (t *Transport) Push(ev platform.Event) {
	t.events <- ev
}

// Close ends the event stream.
func (t *Transport) Close() {
	t.once.Do(func() { close(t.events) })
}

// Calls returns a copy of all recorded calls.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// CallsOf returns the recorded calls with the given op.
func (t *Transport) CallsOf(op string) []Call {
	var out []Call
	for _, c := range t.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (t *Transport) ResetCalls() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

// Geometry returns the stored geometry of a window.
func (t *Transport) Geometry(id platform.WindowID) (platform.Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.geometries[id]
	return r, ok
}

// ClientList returns the last published client list.
func (t *Transport) ClientList() []platform.WindowID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]platform.WindowID(nil), t.clientList...)
}

// Active returns the last published active window.
func (t *Transport) Active() platform.WindowID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Transport) record(c Call) {
	t.calls = append(t.calls, c)
}

func (t *Transport) Root() platform.WindowID { return t.RootID }

func (t *Transport) NextEvent() (platform.Event, error) {
	ev, ok := <-t.events
	if !ok {
		return nil, platform.ErrTransportUnavailable
	}
	return ev, nil
}

func (t *Transport) QueryGeometry(id platform.WindowID) (platform.Rect, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.geometries[id]
	if !ok {
		return platform.Rect{}, platform.ErrWindowNotFound
	}
	return r, nil
}

func (t *Transport) QueryPointer() (platform.Point, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.PointerErr != nil {
		return platform.Point{}, t.PointerErr
	}
	return t.Pointer, nil
}

func (t *Transport) ConfigureWindow(id platform.WindowID, cfg platform.WindowConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(Call{Op: "configure", Window: id, Config: cfg})
	r, ok := t.geometries[id]
	if !ok {
		return nil
	}
	if cfg.Has(platform.ConfigX) {
		r.X = cfg.X
	}
	if cfg.Has(platform.ConfigY) {
		r.Y = cfg.Y
	}
	if cfg.Has(platform.ConfigWidth) {
		r.Width = cfg.Width
	}
	if cfg.Has(platform.ConfigHeight) {
		r.Height = cfg.Height
	}
	t.geometries[id] = r
	return nil
}

func (t *Transport) SetInputFocus(id platform.WindowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(Call{Op: "focus", Window: id})
	return nil
}

func (t *Transport) WarpPointer(id platform.WindowID, x, y int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(Call{Op: "warp", Window: id, X: x, Y: y})
	if r, ok := t.geometries[id]; ok {
		t.Pointer = platform.Point{X: r.X + x, Y: r.Y + y}
	}
	return nil
}

func (t *Transport) GrabPointer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(Call{Op: "grab"})
	return t.GrabErr
}

func (t *Transport) UngrabPointer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(Call{Op: "ungrab"})
	return nil
}

func (t *Transport) MapWindow(id platform.WindowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(Call{Op: "map", Window: id})
	return nil
}

func (t *Transport) WatchWindow(id platform.WindowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(Call{Op: "watch", Window: id})
	return nil
}

func (t *Transport) WindowInfo(id platform.WindowID) (platform.WindowInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Infos[id], nil
}

func (t *Transport) ExistingWindows() ([]platform.WindowID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]platform.WindowID(nil), t.Existing...), nil
}

func (t *Transport) EnumerateOutputs() ([]platform.Output, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.OutputsErr != nil {
		return nil, t.OutputsErr
	}
	return append([]platform.Output(nil), t.Outputs...), nil
}

func (t *Transport) ResolveKeysym(keycode platform.Keycode) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Keysyms[keycode]
}

func (t *Transport) RefreshKeymap() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(Call{Op: "refresh-keymap"})
	return t.RefreshErr
}

func (t *Transport) SetClientList(ids []platform.WindowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clientList = append([]platform.WindowID(nil), ids...)
	return nil
}

func (t *Transport) SetActiveWindow(id platform.WindowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = id
	return nil
}
