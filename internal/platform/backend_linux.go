//go:build linux

package platform

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/lainwm/lainwm/internal/x11"
)

// LinuxBackend wraps an X11 connection behind the Transport interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Transport = (*LinuxBackend)(nil)

// SetupOptions lists the grabs installed when the backend takes over the
// display.
type SetupOptions struct {
	// Chords are key chords like "Mod4-w".
	Chords []string
	// Buttons are modifier+button bindings like "Mod1-1".
	Buttons []string
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection. display may be
// empty to use $DISPLAY.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Setup claims the window-manager role, subscribes to output changes and
// installs the configured grabs. Grab failures for individual bindings are
// collected and returned together. Failing to claim the role returns
// ErrNotWindowManager.
func (b *LinuxBackend) Setup(opts SetupOptions) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	if err := conn.BecomeWM(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotWindowManager, err)
	}

	var errs []error
	if err := conn.WatchOutputs(); err != nil {
		errs = append(errs, err)
	}
	for _, chord := range opts.Chords {
		if err := conn.GrabChord(chord); err != nil {
			errs = append(errs, err)
		}
	}
	for _, binding := range opts.Buttons {
		if err := conn.GrabButton(binding); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Root returns the X11 root window ID.
func (b *LinuxBackend) Root() WindowID {
	if b == nil || b.conn == nil {
		return 0
	}
	return WindowID(b.conn.Root)
}

// NextEvent blocks for the next X event and classifies it.
func (b *LinuxBackend) NextEvent() (Event, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	ev, err := conn.WaitForEvent()
	if err != nil {
		if errors.Is(err, x11.ErrConnectionClosed) {
			return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
		}
		return nil, fmt.Errorf("x11 protocol error: %w", err)
	}

	return classifyEvent(ev, conn.IgnoreMask()), nil
}

// classifyEvent maps a raw X event onto a platform event. ignore holds the
// lock modifiers stripped from key state.
func classifyEvent(ev xgb.Event, ignore uint16) Event {
	switch e := ev.(type) {
	case randr.ScreenChangeNotifyEvent:
		return OutputsChanged{}
	case xproto.MapRequestEvent:
		return WindowMapRequested{Window: WindowID(e.Window)}
	case xproto.ConfigureRequestEvent:
		return ConfigureRequested{Window: WindowID(e.Window), Request: configFromRequest(e)}
	case xproto.KeyPressEvent:
		return KeyPressed{
			Keycode: Keycode(e.Detail),
			State:   (e.State &^ ignore) & 0xff,
		}
	case xproto.KeyReleaseEvent:
		return KeyReleased{Keycode: Keycode(e.Detail)}
	case xproto.ButtonPressEvent:
		return ButtonPressed{
			Button: Button(e.Detail),
			Window: WindowID(e.Child),
			RootX:  int(e.RootX),
			RootY:  int(e.RootY),
		}
	case xproto.ButtonReleaseEvent:
		return ButtonReleased{Button: Button(e.Detail)}
	case xproto.MotionNotifyEvent:
		return PointerMotion{RootX: int(e.RootX), RootY: int(e.RootY)}
	case xproto.EnterNotifyEvent:
		return WindowEntered{Window: WindowID(e.Event)}
	case xproto.DestroyNotifyEvent:
		return WindowDestroyed{Window: WindowID(e.Window)}
	case xproto.MappingNotifyEvent:
		if e.Request == xproto.MappingPointer {
			return Unrecognized{Name: fmt.Sprintf("%T", ev)}
		}
		return KeymapChanged{}
	default:
		return Unrecognized{Name: fmt.Sprintf("%T", ev)}
	}
}

// QueryGeometry returns the window's geometry or ErrWindowNotFound.
func (b *LinuxBackend) QueryGeometry(windowID WindowID) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}
	geom, err := conn.GetGeometry(xproto.Window(windowID))
	if err != nil {
		return Rect{}, fmt.Errorf("%w: window %d: %v", ErrWindowNotFound, windowID, err)
	}
	return Rect{X: geom.X, Y: geom.Y, Width: geom.Width, Height: geom.Height}, nil
}

// QueryPointer returns the pointer position in root coordinates.
func (b *LinuxBackend) QueryPointer() (Point, error) {
	conn, err := b.connection()
	if err != nil {
		return Point{}, err
	}
	x, y, err := conn.QueryPointer()
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

// ConfigureWindow translates cfg into a ConfigureWindow request.
func (b *LinuxBackend) ConfigureWindow(windowID WindowID, cfg WindowConfig) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	var mask uint16
	if cfg.Has(ConfigX) {
		mask |= xproto.ConfigWindowX
	}
	if cfg.Has(ConfigY) {
		mask |= xproto.ConfigWindowY
	}
	if cfg.Has(ConfigWidth) {
		mask |= xproto.ConfigWindowWidth
	}
	if cfg.Has(ConfigHeight) {
		mask |= xproto.ConfigWindowHeight
	}
	if cfg.Has(ConfigRaise) {
		mask |= xproto.ConfigWindowStackMode
	}
	conn.ConfigureWindow(xproto.Window(windowID), x11.Configure{
		Mask:   mask,
		X:      cfg.X,
		Y:      cfg.Y,
		Width:  cfg.Width,
		Height: cfg.Height,
	})
	return nil
}

func (b *LinuxBackend) SetInputFocus(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	conn.FocusWindow(xproto.Window(windowID))
	return nil
}

func (b *LinuxBackend) WarpPointer(windowID WindowID, x, y int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	conn.WarpPointer(xproto.Window(windowID), x, y)
	return nil
}

func (b *LinuxBackend) GrabPointer() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.GrabPointer()
}

func (b *LinuxBackend) UngrabPointer() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	conn.UngrabPointer()
	return nil
}

func (b *LinuxBackend) MapWindow(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MapWindow(xproto.Window(windowID))
}

func (b *LinuxBackend) WatchWindow(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.WatchWindow(xproto.Window(windowID))
}

// WindowInfo reads size hints, EWMH state and the title of a window.
func (b *LinuxBackend) WindowInfo(windowID WindowID) (WindowInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return WindowInfo{}, err
	}
	props := conn.GetProperties(xproto.Window(windowID))

	info := WindowInfo{Name: props.Name}
	if h := props.Hints; h != nil {
		info.Hints = SizeHints{
			MinWidth:   int(h.MinWidth),
			MinHeight:  int(h.MinHeight),
			MaxWidth:   int(h.MaxWidth),
			MaxHeight:  int(h.MaxHeight),
			WidthInc:   int(h.WidthInc),
			HeightInc:  int(h.HeightInc),
			BaseWidth:  int(h.BaseWidth),
			BaseHeight: int(h.BaseHeight),
		}
		info.UserPositioned = h.Flags&icccmUSPosition != 0
	}
	for _, state := range props.States {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			info.MaximizedVert = true
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			info.MaximizedHorz = true
		case "_NET_WM_STATE_STICKY":
			info.StickyAcrossDesk = true
		}
	}
	return info, nil
}

// ExistingWindows lists top-level windows that were mapped before startup.
func (b *LinuxBackend) ExistingWindows() ([]WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	windows, err := conn.TopLevelWindows()
	if err != nil {
		return nil, err
	}
	out := make([]WindowID, 0, len(windows))
	for _, w := range windows {
		out = append(out, WindowID(w))
	}
	return out, nil
}

// EnumerateOutputs returns all active outputs in discovery order.
func (b *LinuxBackend) EnumerateOutputs() ([]Output, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	outputs := make([]Output, 0, len(monitors))
	for _, m := range monitors {
		outputs = append(outputs, outputFromMonitor(m))
	}
	return outputs, nil
}

func (b *LinuxBackend) ResolveKeysym(keycode Keycode) string {
	conn, err := b.connection()
	if err != nil {
		return ""
	}
	return conn.KeysymName(xproto.Keycode(keycode))
}

// RefreshKeymap reloads the keyboard mapping and moves the chord grabs to
// the new keycodes.
func (b *LinuxBackend) RefreshKeymap() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.RefreshKeymap()
}

func (b *LinuxBackend) SetClientList(windowIDs []WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	windows := make([]xproto.Window, 0, len(windowIDs))
	for _, id := range windowIDs {
		windows = append(windows, xproto.Window(id))
	}
	return conn.SetClientList(windows)
}

func (b *LinuxBackend) SetActiveWindow(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetActiveWindow(xproto.Window(windowID))
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("%w: x11 backend connection is nil", ErrTransportUnavailable)
	}
	return b.conn, nil
}

// icccmUSPosition is the WM_NORMAL_HINTS flag for a user-specified position.
const icccmUSPosition = 1

func outputFromMonitor(m x11.Monitor) Output {
	return Output{
		ID:   OutputID(m.ID),
		Name: m.Name,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
	}
}

func configFromRequest(e xproto.ConfigureRequestEvent) WindowConfig {
	var cfg WindowConfig
	if e.ValueMask&xproto.ConfigWindowX != 0 {
		cfg.Mask |= ConfigX
		cfg.X = int(e.X)
	}
	if e.ValueMask&xproto.ConfigWindowY != 0 {
		cfg.Mask |= ConfigY
		cfg.Y = int(e.Y)
	}
	if e.ValueMask&xproto.ConfigWindowWidth != 0 {
		cfg.Mask |= ConfigWidth
		cfg.Width = int(e.Width)
	}
	if e.ValueMask&xproto.ConfigWindowHeight != 0 {
		cfg.Mask |= ConfigHeight
		cfg.Height = int(e.Height)
	}
	// Only a plain raise is honoured. Sibling-relative stacking and border
	// width are not forwarded since clients carry no managed border.
	if e.ValueMask&xproto.ConfigWindowStackMode != 0 && e.StackMode == xproto.StackModeAbove &&
		e.ValueMask&xproto.ConfigWindowSibling == 0 {
		cfg.Mask |= ConfigRaise
	}
	return cfg
}
