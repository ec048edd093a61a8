// Package interaction turns pointer events into move, resize and focus
// operations on managed windows.
package interaction

import (
	"log/slog"

	"github.com/lainwm/lainwm/internal/client"
	"github.com/lainwm/lainwm/internal/monitor"
	"github.com/lainwm/lainwm/internal/platform"
)

// Options selects the buttons that start an interaction.
type Options struct {
	MoveButton   platform.Button
	ResizeButton platform.Button
	// WarpPointer moves the pointer to the drag anchor corner on press.
	WarpPointer bool
}

// DefaultOptions mirrors the classic Alt+Button1 move, Alt+Button3 resize.
func DefaultOptions() Options {
	return Options{MoveButton: 1, ResizeButton: 3, WarpPointer: true}
}

// Machine is the interaction state machine. It owns the drag state and the
// focus scalar. All methods must be called from the event loop goroutine.
type Machine struct {
	transport platform.Transport
	clients   *client.Registry
	monitors  *monitor.Registry
	opts      Options
	logger    *slog.Logger

	state   State
	focused platform.WindowID
}

// NewMachine creates an idle machine.
func NewMachine(transport platform.Transport, clients *client.Registry, monitors *monitor.Registry, opts Options, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		transport: transport,
		clients:   clients,
		monitors:  monitors,
		opts:      opts,
		logger:    logger,
	}
}

// State returns a copy of the current interaction state.
func (m *Machine) State() State { return m.state }

// Focused returns the focused window, or zero.
func (m *Machine) Focused() platform.WindowID { return m.focused }

// Press starts a move or resize on a managed window. Presses while an
// interaction is already running are ignored.
func (m *Machine) Press(button platform.Button, window platform.WindowID, rootX, rootY int) {
	if m.state.Active() {
		m.logger.Debug("press ignored, interaction in progress", "window", window, "phase", m.state.Phase)
		return
	}
	if !m.operable(window) {
		return
	}

	var phase Phase
	switch button {
	case m.opts.MoveButton:
		phase = PhaseDragging
	case m.opts.ResizeButton:
		phase = PhaseResizing
	default:
		return
	}

	geom, err := m.transport.QueryGeometry(window)
	if err != nil {
		m.logger.Debug("press ignored, geometry query failed", "window", window, "error", err)
		return
	}

	m.configure(window, platform.Raise())
	if m.opts.WarpPointer {
		x, y := 0, 0
		if phase == PhaseResizing {
			x, y = geom.Width, geom.Height
		}
		if err := m.transport.WarpPointer(window, x, y); err != nil {
			m.logger.Debug("warp pointer failed", "window", window, "error", err)
		}
	}
	if err := m.transport.GrabPointer(); err != nil {
		m.logger.Warn("pointer grab failed", "window", window, "error", err)
	}

	m.state = State{
		Phase:          phase,
		Window:         window,
		AnchorPointer:  platform.Point{X: rootX, Y: rootY},
		AnchorGeometry: geom,
	}
	_ = m.clients.SetGeometry(window, geom)
	m.logger.Debug("interaction started", "window", window, "phase", phase)
}

// Motion applies one pointer motion to the running interaction. Every
// motion yields at most one configure request.
func (m *Machine) Motion(rootX, rootY int) {
	if !m.state.Active() {
		return
	}
	window := m.state.Window

	p, err := m.transport.QueryPointer()
	if err != nil {
		p = platform.Point{X: rootX, Y: rootY}
	}
	geom, err := m.transport.QueryGeometry(window)
	if err != nil {
		m.logger.Debug("motion ignored, geometry query failed", "window", window, "error", err)
		return
	}
	c, err := m.clients.Lookup(window)
	if err != nil {
		return
	}

	switch m.state.Phase {
	case PhaseDragging:
		if mon, ok := m.monitors.Containing(p); ok && mon.ID != c.Monitor {
			_ = m.clients.SetMonitor(window, mon.ID)
			c.Monitor = mon.ID
		}
		m.monitors.Touch(c.Monitor)
		m.moveTo(c, p.X, p.Y, geom)
	case PhaseResizing:
		anchor := m.state.AnchorGeometry
		m.resizeTo(c, p.X-anchor.X, p.Y-anchor.Y, geom)
	}
}

// Release ends any running interaction, whichever button was released.
func (m *Machine) Release() {
	if !m.state.Active() {
		return
	}
	if err := m.transport.UngrabPointer(); err != nil {
		m.logger.Debug("ungrab pointer failed", "error", err)
	}
	m.logger.Debug("interaction finished", "window", m.state.Window, "phase", m.state.Phase)
	m.state.Reset()
}

// Enter implements sloppy focus: the entered window gets the input focus.
// The root and null windows leave focus unchanged.
func (m *Machine) Enter(window platform.WindowID) {
	if window == 0 || window == m.transport.Root() {
		return
	}
	m.Focus(window)
}

// Focus gives window the input focus and publishes it as active.
func (m *Machine) Focus(window platform.WindowID) {
	if window == 0 || window == m.transport.Root() {
		return
	}
	m.focused = window
	if err := m.transport.SetInputFocus(window); err != nil {
		m.logger.Debug("set input focus failed", "window", window, "error", err)
	}
	if err := m.transport.SetActiveWindow(window); err != nil {
		m.logger.Debug("set active window failed", "window", window, "error", err)
	}
	if c, err := m.clients.Lookup(window); err == nil {
		m.monitors.Touch(c.Monitor)
	}
}

// Forget drops any focus or interaction that refers to a vanished window.
func (m *Machine) Forget(window platform.WindowID) {
	if m.focused == window {
		m.focused = 0
	}
	if m.state.Active() && m.state.Window == window {
		if err := m.transport.UngrabPointer(); err != nil {
			m.logger.Debug("ungrab pointer failed", "error", err)
		}
		m.state.Reset()
	}
}

// Geometry queries the authoritative geometry of a managed window and
// records it. It fails for the root, null and unmanaged windows.
func (m *Machine) Geometry(window platform.WindowID) (platform.Rect, bool) {
	if !m.operable(window) {
		return platform.Rect{}, false
	}
	geom, err := m.transport.QueryGeometry(window)
	if err != nil {
		m.logger.Debug("geometry query failed", "window", window, "error", err)
		return platform.Rect{}, false
	}
	_ = m.clients.SetGeometry(window, geom)
	return geom, true
}

// MoveWindow moves a managed window so its top-left corner is at x,y,
// clamped so the right and bottom edges stay on the window's monitor. It
// reports whether a configure request was issued.
func (m *Machine) MoveWindow(window platform.WindowID, x, y int) bool {
	if !m.operable(window) {
		return false
	}
	geom, err := m.transport.QueryGeometry(window)
	if err != nil {
		m.logger.Debug("move ignored, geometry query failed", "window", window, "error", err)
		return false
	}
	c, err := m.clients.Lookup(window)
	if err != nil {
		return false
	}
	m.moveTo(c, x, y, geom)
	return true
}

// ResizeWindow resizes a managed window, flooring both dimensions at 1.
func (m *Machine) ResizeWindow(window platform.WindowID, width, height int) bool {
	if !m.operable(window) {
		return false
	}
	geom, err := m.transport.QueryGeometry(window)
	if err != nil {
		m.logger.Debug("resize ignored, geometry query failed", "window", window, "error", err)
		return false
	}
	c, err := m.clients.Lookup(window)
	if err != nil {
		return false
	}
	m.resizeTo(c, width, height, geom)
	return true
}

// operable rejects the root window, the null window and unmanaged windows.
func (m *Machine) operable(window platform.WindowID) bool {
	if window == 0 || window == m.transport.Root() {
		return false
	}
	return m.clients.Contains(window)
}

func (m *Machine) moveTo(c client.Client, x, y int, geom platform.Rect) {
	if mon, ok := m.monitors.Resolve(c.Monitor, platform.Point{X: x, Y: y}); ok {
		x, y = Clamp(x, y, geom.Width, geom.Height, mon.Bounds)
	}
	m.configure(c.ID, platform.MoveTo(x, y))
	_ = m.clients.SetGeometry(c.ID, platform.Rect{X: x, Y: y, Width: geom.Width, Height: geom.Height})
}

func (m *Machine) resizeTo(c client.Client, width, height int, geom platform.Rect) {
	width, height = FloorSize(width, height)
	m.configure(c.ID, platform.ResizeTo(width, height))
	_ = m.clients.SetGeometry(c.ID, platform.Rect{X: geom.X, Y: geom.Y, Width: width, Height: height})
}

func (m *Machine) configure(window platform.WindowID, cfg platform.WindowConfig) {
	if err := m.transport.ConfigureWindow(window, cfg); err != nil {
		m.logger.Debug("configure window failed", "window", window, "error", err)
	}
}

// Clamp pulls x,y back so a width×height window does not overflow the right
// or bottom edge of bounds. The top-left edge is never enforced.
func Clamp(x, y, width, height int, bounds platform.Rect) (int, int) {
	if x+width > bounds.Right() {
		x = bounds.Right() - width
	}
	if y+height > bounds.Bottom() {
		y = bounds.Bottom() - height
	}
	return x, y
}

// FloorSize keeps both dimensions at least 1.
func FloorSize(width, height int) (int, int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}
