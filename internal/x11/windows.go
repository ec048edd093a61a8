package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// Geometry is a window rectangle as reported by GetGeometry.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Configure mirrors xproto's ConfigWindow* value mask and the matching values.
type Configure struct {
	Mask   uint16
	X      int
	Y      int
	Width  int
	Height int
}

// Properties are the client-side hints read when a window is managed.
type Properties struct {
	Name   string
	Hints  *icccm.NormalHints
	States []string
}

// GetGeometry queries a window's geometry. Windows are never reparented, so
// the position is already in root coordinates.
func (c *Connection) GetGeometry(windowID xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{
		X:      int(geom.X),
		Y:      int(geom.Y),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// QueryPointer returns the pointer position in root coordinates.
func (c *Connection) QueryPointer() (int, int, error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}

// ConfigureWindow sends a ConfigureWindow request without waiting for a
// reply. Errors arrive later through the event stream.
func (c *Connection) ConfigureWindow(windowID xproto.Window, cfg Configure) {
	var values []uint32
	if cfg.Mask&xproto.ConfigWindowX != 0 {
		values = append(values, uint32(int32(cfg.X)))
	}
	if cfg.Mask&xproto.ConfigWindowY != 0 {
		values = append(values, uint32(int32(cfg.Y)))
	}
	if cfg.Mask&xproto.ConfigWindowWidth != 0 {
		values = append(values, uint32(cfg.Width))
	}
	if cfg.Mask&xproto.ConfigWindowHeight != 0 {
		values = append(values, uint32(cfg.Height))
	}
	if cfg.Mask&xproto.ConfigWindowStackMode != 0 {
		values = append(values, xproto.StackModeAbove)
	}
	if len(values) == 0 {
		return
	}
	xproto.ConfigureWindow(c.XUtil.Conn(), windowID, cfg.Mask, values)
}

// FocusWindow gives a window the input focus.
func (c *Connection) FocusWindow(windowID xproto.Window) {
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, windowID, xproto.TimeCurrentTime)
}

// WarpPointer moves the pointer to x,y relative to the window origin.
func (c *Connection) WarpPointer(windowID xproto.Window, x, y int) {
	xproto.WarpPointer(c.XUtil.Conn(), 0, windowID, 0, 0, 0, 0, int16(x), int16(y))
}

// MapWindow maps a window.
func (c *Connection) MapWindow(windowID xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// WatchWindow subscribes to pointer-entry and structure events on a client.
func (c *Connection) WatchWindow(windowID xproto.Window) error {
	return xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(),
		windowID,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskEnterWindow | xproto.EventMaskStructureNotify},
	).Check()
}

// TopLevelWindows lists mapped, non-override-redirect children of the root.
func (c *Connection) TopLevelWindows() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, err
	}
	var out []xproto.Window
	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), child).Reply()
		if err != nil {
			continue
		}
		if attrs.OverrideRedirect || attrs.MapState == xproto.MapStateUnmapped {
			continue
		}
		out = append(out, child)
	}
	return out, nil
}

// GetProperties reads WM_NORMAL_HINTS, _NET_WM_STATE and the window title.
// Missing properties are not errors.
func (c *Connection) GetProperties(windowID xproto.Window) Properties {
	props := Properties{Name: c.windowTitle(windowID)}
	if hints, err := icccm.WmNormalHintsGet(c.XUtil, windowID); err == nil {
		props.Hints = hints
	}
	if states, err := ewmh.WmStateGet(c.XUtil, windowID); err == nil {
		props.States = states
	}
	return props
}

// SetClientList publishes _NET_CLIENT_LIST for pagers and status bars.
func (c *Connection) SetClientList(windows []xproto.Window) error {
	return ewmh.ClientListSet(c.XUtil, windows)
}

// SetActiveWindow publishes _NET_ACTIVE_WINDOW.
func (c *Connection) SetActiveWindow(windowID xproto.Window) error {
	return ewmh.ActiveWindowSet(c.XUtil, windowID)
}

func (c *Connection) windowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	return ""
}
