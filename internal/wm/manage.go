package wm

import (
	"errors"

	"github.com/lainwm/lainwm/internal/client"
	"github.com/lainwm/lainwm/internal/monitor"
	"github.com/lainwm/lainwm/internal/platform"
)

// refreshMonitors re-enumerates outputs. When enumeration fails or finds
// nothing the root window geometry stands in as a single monitor.
func (d *Driver) refreshMonitors() {
	outputs, err := d.transport.EnumerateOutputs()
	if err != nil {
		d.logger.Warn("output enumeration failed", "error", err)
	}
	monitors := monitor.FromOutputs(outputs)
	if len(monitors) == 0 {
		rootGeom, err := d.transport.QueryGeometry(d.transport.Root())
		if err != nil {
			d.logger.Warn("no outputs and root geometry unavailable, keeping previous monitors", "error", err)
			return
		}
		monitors = []monitor.Monitor{{ID: 1, Name: "screen", Bounds: rootGeom}}
	}
	d.monitors.ReplaceAll(monitors)

	// Clients on vanished monitors are reassigned by position; zero marks
	// them as unknown until they move.
	for _, c := range d.clients.All() {
		if _, ok := d.monitors.Get(c.Monitor); ok {
			continue
		}
		var id platform.OutputID
		if m, ok := d.monitors.Containing(platform.Point{X: c.Geometry.X, Y: c.Geometry.Y}); ok {
			id = m.ID
		}
		_ = d.clients.SetMonitor(c.ID, id)
	}

	for _, m := range d.monitors.All() {
		d.logger.Info("monitor", "id", m.ID, "name", m.Name,
			"x", m.Bounds.X, "y", m.Bounds.Y, "width", m.Bounds.Width, "height", m.Bounds.Height)
	}
}

// manage takes over a window that asked to be mapped.
func (d *Driver) manage(id platform.WindowID) {
	if id == 0 || id == d.transport.Root() {
		return
	}
	if d.clients.Contains(id) {
		d.logger.Debug("map request for managed window", "window", id)
		if err := d.transport.MapWindow(id); err != nil {
			d.logger.Debug("map window failed", "window", id, "error", err)
		}
		return
	}

	if err := d.transport.MapWindow(id); err != nil {
		d.logger.Warn("map window failed", "window", id, "error", err)
		return
	}
	if d.opts.NewWindowWidth > 0 && d.opts.NewWindowHeight > 0 {
		d.configure(id, platform.ResizeTo(d.opts.NewWindowWidth, d.opts.NewWindowHeight))
	}

	var mon monitor.Monitor
	var ok bool
	if p, err := d.transport.QueryPointer(); err == nil {
		mon, ok = d.monitors.Containing(p)
	}
	if !ok {
		mon, _ = d.monitors.Current()
	}

	if !d.track(id, mon.ID) {
		return
	}
	d.monitors.Touch(mon.ID)
	d.machine.Focus(id)
	d.publishClientList()
}

// adopt manages a window that was already mapped at startup.
func (d *Driver) adopt(id platform.WindowID) {
	if id == 0 || id == d.transport.Root() || d.clients.Contains(id) {
		return
	}
	geom, err := d.transport.QueryGeometry(id)
	if err != nil {
		return
	}
	var monID platform.OutputID
	if m, ok := d.monitors.Containing(platform.Point{X: geom.X, Y: geom.Y}); ok {
		monID = m.ID
	} else if m, ok := d.monitors.Current(); ok {
		monID = m.ID
	}
	d.track(id, monID)
}

// track subscribes to a window's events and adds it to the registry.
func (d *Driver) track(id platform.WindowID, monID platform.OutputID) bool {
	if err := d.transport.WatchWindow(id); err != nil {
		d.logger.Debug("watch window failed", "window", id, "error", err)
	}
	info, err := d.transport.WindowInfo(id)
	if err != nil {
		d.logger.Debug("window info unavailable", "window", id, "error", err)
	}
	geom, err := d.transport.QueryGeometry(id)
	if err != nil {
		geom = platform.Rect{Width: d.opts.NewWindowWidth, Height: d.opts.NewWindowHeight}
	}

	err = d.clients.Add(client.Client{
		ID:       id,
		Name:     info.Name,
		Geometry: geom,
		Hints:    info.Hints,
		Flags:    client.FlagsFromInfo(info),
		Monitor:  monID,
	})
	if err != nil {
		d.logger.Warn("failed to manage window", "window", id, "error", err)
		return false
	}
	d.logger.Info("managing window", "window", id, "name", info.Name, "monitor", monID)
	return true
}

func (d *Driver) unmanage(id platform.WindowID) {
	c, err := d.clients.Remove(id)
	if err != nil {
		return
	}
	d.machine.Forget(id)
	d.publishClientList()
	d.logger.Info("window gone", "window", id, "name", c.Name)
}

// configureRequest honours a client's own configure request and mirrors it
// into the registry.
func (d *Driver) configureRequest(e platform.ConfigureRequested) {
	if e.Request.Mask != 0 {
		d.configure(e.Window, e.Request)
	}
	c, err := d.clients.Lookup(e.Window)
	if err != nil {
		return
	}
	g := c.Geometry
	if e.Request.Has(platform.ConfigX) {
		g.X = e.Request.X
	}
	if e.Request.Has(platform.ConfigY) {
		g.Y = e.Request.Y
	}
	if e.Request.Has(platform.ConfigWidth) {
		g.Width = e.Request.Width
	}
	if e.Request.Has(platform.ConfigHeight) {
		g.Height = e.Request.Height
	}
	_ = d.clients.SetGeometry(e.Window, g)
}

func (d *Driver) pruneStale() []platform.WindowID {
	var removed []platform.WindowID
	for _, id := range d.clients.IDs() {
		geom, err := d.transport.QueryGeometry(id)
		if err != nil {
			if errors.Is(err, platform.ErrWindowNotFound) {
				d.unmanage(id)
				removed = append(removed, id)
			}
			continue
		}
		_ = d.clients.SetGeometry(id, geom)
	}
	return removed
}

func (d *Driver) publishClientList() {
	if err := d.transport.SetClientList(d.clients.IDs()); err != nil {
		d.logger.Debug("failed to publish client list", "error", err)
	}
}

func (d *Driver) configure(id platform.WindowID, cfg platform.WindowConfig) {
	if err := d.transport.ConfigureWindow(id, cfg); err != nil {
		d.logger.Debug("configure window failed", "window", id, "error", err)
	}
}
