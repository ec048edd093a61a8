// Package hotkeys maps key chords to window-manager commands.
package hotkeys

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lainwm/lainwm/internal/client"
	"github.com/lainwm/lainwm/internal/interaction"
	"github.com/lainwm/lainwm/internal/monitor"
	"github.com/lainwm/lainwm/internal/platform"
)

// Launcher starts the external helper program.
type Launcher interface {
	Launch() error
}

// Dispatcher runs the command bound to a pressed chord. It is driven from
// the event loop goroutine.
type Dispatcher struct {
	machine  *interaction.Machine
	clients  *client.Registry
	monitors *monitor.Registry
	launcher Launcher
	bindings []Binding
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher. launcher may be nil, in which case the
// launch action only logs.
func NewDispatcher(machine *interaction.Machine, clients *client.Registry, monitors *monitor.Registry, launcher Launcher, bindings []Binding, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		machine:  machine,
		clients:  clients,
		monitors: monitors,
		launcher: launcher,
		bindings: bindings,
		logger:   logger,
	}
}

// Chords returns the textual chords to grab, e.g. "Mod4-w".
func (d *Dispatcher) Chords() []string {
	out := make([]string, 0, len(d.bindings))
	for _, b := range d.bindings {
		out = append(out, b.Text)
	}
	return out
}

// Dispatch runs the action bound to sym with exactly the given modifiers.
// It reports whether a binding matched.
func (d *Dispatcher) Dispatch(sym string, mods uint16) bool {
	if sym == "" {
		return false
	}
	for _, b := range d.bindings {
		if b.Chord.Matches(sym, mods) {
			d.logger.Debug("hotkey triggered", "chord", b.Text, "action", b.Action)
			d.Run(b.Action)
			return true
		}
	}
	return false
}

// Run executes an action directly.
func (d *Dispatcher) Run(action Action) {
	switch action {
	case ActionSnapLeft:
		d.snapLeft()
	case ActionSnapRight:
		d.snapRight()
	case ActionNextMonitor:
		d.nextMonitor()
	case ActionHeadMonitor:
		d.headMonitor()
	case ActionLaunch:
		d.launch()
	default:
		d.logger.Warn("unknown action", "action", action)
	}
}

func (d *Dispatcher) focusedClient() (client.Client, bool) {
	focused := d.machine.Focused()
	if focused == 0 {
		return client.Client{}, false
	}
	c, err := d.clients.Lookup(focused)
	if err != nil {
		return client.Client{}, false
	}
	return c, true
}

func (d *Dispatcher) ownMonitor(c client.Client) (monitor.Monitor, bool) {
	return d.monitors.Resolve(c.Monitor, platform.Point{X: c.Geometry.X, Y: c.Geometry.Y})
}

func (d *Dispatcher) snapLeft() {
	c, ok := d.focusedClient()
	if !ok {
		return
	}
	var origin platform.Point
	if mon, ok := d.ownMonitor(c); ok {
		origin = platform.Point{X: mon.Bounds.X, Y: mon.Bounds.Y}
	}
	d.machine.MoveWindow(c.ID, origin.X, origin.Y)
}

func (d *Dispatcher) snapRight() {
	c, ok := d.focusedClient()
	if !ok {
		return
	}
	geom, ok := d.machine.Geometry(c.ID)
	if !ok {
		return
	}
	mon, ok := d.ownMonitor(c)
	if !ok {
		return
	}
	d.machine.MoveWindow(c.ID, mon.Bounds.Right()-geom.Width, geom.Y)
}

func (d *Dispatcher) nextMonitor() {
	c, ok := d.focusedClient()
	if !ok {
		return
	}
	cur, ok := d.ownMonitor(c)
	if !ok {
		return
	}
	next, ok := d.monitors.Next(cur.ID)
	if !ok {
		d.logger.Debug("no monitor after current one", "monitor", cur.Name)
		return
	}
	d.sendTo(c, next)
}

func (d *Dispatcher) headMonitor() {
	c, ok := d.focusedClient()
	if !ok {
		return
	}
	head, ok := d.monitors.First()
	if !ok {
		return
	}
	d.sendTo(c, head)
}

// sendTo moves c to mon's left edge at y=0 and reassigns it. The
// assignment is rolled back when the window could not be moved.
func (d *Dispatcher) sendTo(c client.Client, mon monitor.Monitor) {
	_ = d.clients.SetMonitor(c.ID, mon.ID)
	if !d.machine.MoveWindow(c.ID, mon.Bounds.X, 0) {
		_ = d.clients.SetMonitor(c.ID, c.Monitor)
		return
	}
	d.monitors.Touch(mon.ID)
}

func (d *Dispatcher) launch() {
	if d.launcher == nil {
		d.logger.Warn("launch requested but no launcher is configured")
		return
	}
	if err := d.launcher.Launch(); err != nil {
		d.logger.Warn("launch failed", "error", err)
	}
}

// ParseBindings converts an action→chord map into bindings ordered by action
// name. Empty chords disable an action.
func ParseBindings(keys map[string]string) ([]Binding, error) {
	actions := make([]string, 0, len(keys))
	for a := range keys {
		actions = append(actions, a)
	}
	sort.Strings(actions)

	bindings := make([]Binding, 0, len(actions))
	seen := make(map[Chord]Action)
	for _, a := range actions {
		text := strings.TrimSpace(keys[a])
		if text == "" {
			continue
		}
		action := Action(a)
		if !action.Valid() {
			return nil, fmt.Errorf("unknown action %q", a)
		}
		chord, err := ParseChord(text)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", a, err)
		}
		if prev, dup := seen[chord]; dup {
			return nil, fmt.Errorf("chord %q bound to both %q and %q", text, prev, action)
		}
		seen[chord] = action
		bindings = append(bindings, Binding{Action: action, Chord: chord, Text: text})
	}
	return bindings, nil
}
