package platform

import "errors"

// WindowID is a platform-neutral window identifier. Zero is the null window.
type WindowID uint32

// OutputID identifies a physical output as reported by the display server.
type OutputID uint32

// Keycode is a raw hardware keycode.
type Keycode uint8

// Button is a pointer button number (1 = primary, 3 = secondary).
type Button uint8

var (
	// ErrTransportUnavailable means the display connection could not be
	// established or was lost.
	ErrTransportUnavailable = errors.New("display transport unavailable")
	// ErrWindowNotFound is returned by geometry queries for windows that
	// no longer exist.
	ErrWindowNotFound = errors.New("window not found")
	// ErrNotWindowManager means the window-manager role could not be
	// claimed, usually because another one is running.
	ErrNotWindowManager = errors.New("could not become the window manager")
)

// Rect describes a rectangular region in root-window coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the x coordinate one past the right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the y coordinate one past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Point is a position in root-window coordinates.
type Point struct {
	X int
	Y int
}

// Output describes one enumerated physical output.
type Output struct {
	ID     OutputID
	Name   string
	Bounds Rect
}

// ConfigMask selects which fields of a WindowConfig are applied.
type ConfigMask uint8

const (
	ConfigX ConfigMask = 1 << iota
	ConfigY
	ConfigWidth
	ConfigHeight
	ConfigRaise
)

// WindowConfig is a partial configuration request for a window.
type WindowConfig struct {
	Mask   ConfigMask
	X      int
	Y      int
	Width  int
	Height int
}

// MoveTo returns a config that only sets the position.
func MoveTo(x, y int) WindowConfig {
	return WindowConfig{Mask: ConfigX | ConfigY, X: x, Y: y}
}

// ResizeTo returns a config that only sets the size.
func ResizeTo(width, height int) WindowConfig {
	return WindowConfig{Mask: ConfigWidth | ConfigHeight, Width: width, Height: height}
}

// Raise returns a config that puts the window on top of the stacking order.
func Raise() WindowConfig {
	return WindowConfig{Mask: ConfigRaise}
}

// Has reports whether every bit of m is set.
func (c WindowConfig) Has(m ConfigMask) bool {
	return c.Mask&m == m
}

// SizeHints mirrors WM_NORMAL_HINTS. Values are advisory only.
type SizeHints struct {
	MinWidth   int
	MinHeight  int
	MaxWidth   int
	MaxHeight  int
	WidthInc   int
	HeightInc  int
	BaseWidth  int
	BaseHeight int
}

// WindowInfo carries the client-side properties read when a window is managed.
type WindowInfo struct {
	Name             string
	Hints            SizeHints
	UserPositioned   bool
	MaximizedVert    bool
	MaximizedHorz    bool
	StickyAcrossDesk bool
}

// Transport is the narrow view of the display server used by the window
// manager core. Implementations must be safe to call from a single goroutine;
// NextEvent may be called from a separate reader goroutine.
type Transport interface {
	// Root returns the root window id.
	Root() WindowID
	// NextEvent blocks for the next classified event.
	NextEvent() (Event, error)
	QueryGeometry(windowID WindowID) (Rect, error)
	QueryPointer() (Point, error)
	// ConfigureWindow is best-effort; no confirmation is awaited.
	ConfigureWindow(windowID WindowID, cfg WindowConfig) error
	SetInputFocus(windowID WindowID) error
	// WarpPointer moves the pointer to x,y relative to the window origin.
	WarpPointer(windowID WindowID, x, y int) error
	GrabPointer() error
	UngrabPointer() error
	MapWindow(windowID WindowID) error
	// WatchWindow subscribes to enter and structure events for a client.
	WatchWindow(windowID WindowID) error
	WindowInfo(windowID WindowID) (WindowInfo, error)
	ExistingWindows() ([]WindowID, error)
	EnumerateOutputs() ([]Output, error)
	ResolveKeysym(keycode Keycode) string
	// RefreshKeymap reloads the keyboard mapping and re-installs key grabs.
	RefreshKeymap() error
	SetClientList(windowIDs []WindowID) error
	SetActiveWindow(windowID WindowID) error
}
