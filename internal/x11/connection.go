package x11

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
)

// ErrAnotherWM is returned by BecomeWM when substructure redirection on the
// root window is already owned by another client.
var ErrAnotherWM = errors.New("another window manager is already running")

// ErrConnectionClosed is returned by WaitForEvent once the server hangs up.
var ErrConnectionClosed = errors.New("x11 connection closed")

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// ignoreMask is read by the event reader while RefreshKeymap may
	// rewrite it on the loop goroutine.
	ignoreMask atomic.Uint32
	keyGrabs   []keyGrab
}

// NewConnection connects to display (empty means $DISPLAY) and initializes
// the keyboard and mouse binding modules.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	keybind.Initialize(xu)
	mousebind.Initialize(xu)

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	c.ignoreMask.Store(uint32(configureIgnoreMods(xu)))
	return c, nil
}

// BecomeWM selects substructure redirection on the root window. Only one
// client may hold it, so failure means another window manager is running.
func (c *Connection) BecomeWM() error {
	mask := uint32(xproto.EventMaskSubstructureRedirect |
		xproto.EventMaskStructureNotify |
		xproto.EventMaskSubstructureNotify |
		xproto.EventMaskPropertyChange)

	err := xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(),
		c.Root,
		xproto.CwEventMask,
		[]uint32{mask},
	).Check()
	if err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return ErrAnotherWM
		}
		return fmt.Errorf("failed to select root events: %w", err)
	}
	return nil
}

// WaitForEvent blocks for the next event. A protocol error is returned as a
// non-nil error with a nil event; a closed connection yields ErrConnectionClosed.
func (c *Connection) WaitForEvent() (xgb.Event, error) {
	ev, err := c.XUtil.Conn().WaitForEvent()
	if ev == nil && err == nil {
		return nil, ErrConnectionClosed
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// IgnoreMask returns the lock modifiers (Caps, Num, Scroll) that are ignored
// when matching chords.
func (c *Connection) IgnoreMask() uint16 {
	return uint16(c.ignoreMask.Load())
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
