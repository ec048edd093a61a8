// Package wm is the event loop that ties the transport to the registries,
// the interaction machine and the command dispatcher.
package wm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lainwm/lainwm/internal/client"
	"github.com/lainwm/lainwm/internal/hotkeys"
	"github.com/lainwm/lainwm/internal/interaction"
	"github.com/lainwm/lainwm/internal/monitor"
	"github.com/lainwm/lainwm/internal/platform"
)

// Options configure the driver.
type Options struct {
	// NewWindowWidth and NewWindowHeight size freshly mapped windows. Zero
	// keeps the size the client asked for.
	NewWindowWidth  int
	NewWindowHeight int
	Interaction     interaction.Options
	Bindings        []hotkeys.Binding
}

// Snapshot is a consistent copy of the window manager's state.
type Snapshot struct {
	Monitors       []monitor.Monitor
	CurrentMonitor platform.OutputID
	Clients        []client.Client
	Focused        platform.WindowID
	Interaction    interaction.State
}

// Driver owns every piece of mutable state. Only the goroutine running Run
// touches it; other goroutines go through Do.
type Driver struct {
	transport  platform.Transport
	monitors   *monitor.Registry
	clients    *client.Registry
	machine    *interaction.Machine
	dispatcher *hotkeys.Dispatcher
	opts       Options
	logger     *slog.Logger

	calls       chan func()
	initialized bool
}

// New wires the components together. launcher may be nil.
func New(transport platform.Transport, launcher hotkeys.Launcher, opts Options, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	monitors := monitor.NewRegistry()
	clients := client.NewRegistry()
	machine := interaction.NewMachine(transport, clients, monitors, opts.Interaction, logger.With("component", "interaction"))
	dispatcher := hotkeys.NewDispatcher(machine, clients, monitors, launcher, opts.Bindings, logger.With("component", "hotkeys"))

	return &Driver{
		transport:  transport,
		monitors:   monitors,
		clients:    clients,
		machine:    machine,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
		calls:      make(chan func()),
	}
}

// Chords returns the key chords the transport should grab.
func (d *Driver) Chords() []string {
	return d.dispatcher.Chords()
}

// Init enumerates outputs and adopts windows that were mapped before the
// window manager started. Run calls it if it has not been called yet.
func (d *Driver) Init() {
	if d.initialized {
		return
	}
	d.initialized = true

	d.refreshMonitors()

	existing, err := d.transport.ExistingWindows()
	if err != nil {
		d.logger.Warn("failed to list existing windows", "error", err)
	}
	for _, id := range existing {
		d.adopt(id)
	}
	d.publishClientList()
	d.logger.Info("window manager initialized", "monitors", d.monitors.Len(), "clients", d.clients.Len())
}

// Run processes events until ctx is cancelled or the transport goes away.
// A reader goroutine forwards events; everything else happens here.
func (d *Driver) Run(ctx context.Context) error {
	d.Init()

	events := make(chan platform.Event)
	fatal := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	// The reader may block on the next event while a handler runs. The
	// unbuffered channel keeps delivery in order, one handler at a time.
	go func() {
		for {
			ev, err := d.transport.NextEvent()
			if err != nil {
				if errors.Is(err, platform.ErrTransportUnavailable) {
					fatal <- err
					return
				}
				d.logger.Debug("transport error", "error", err)
				continue
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-fatal:
			return err
		case ev := <-events:
			d.Handle(ev)
		case fn := <-d.calls:
			fn()
		}
	}
}

// Do runs fn on the event loop goroutine and waits for it to finish.
func (d *Driver) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	call := func() {
		defer close(finished)
		fn()
	}
	select {
	case d.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot copies the current state from the event loop.
func (d *Driver) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := d.Do(ctx, func() { snap = d.snapshot() })
	return snap, err
}

// Reconcile drops clients whose windows no longer exist and refreshes the
// geometry of the rest. It returns the removed window ids.
func (d *Driver) Reconcile(ctx context.Context) ([]platform.WindowID, error) {
	var removed []platform.WindowID
	err := d.Do(ctx, func() { removed = d.pruneStale() })
	return removed, err
}

// Handle dispatches one event to exactly one handler.
func (d *Driver) Handle(ev platform.Event) {
	switch e := ev.(type) {
	case platform.OutputsChanged:
		d.refreshMonitors()
	case platform.WindowMapRequested:
		d.manage(e.Window)
	case platform.ConfigureRequested:
		d.configureRequest(e)
	case platform.KeyPressed:
		sym := d.transport.ResolveKeysym(e.Keycode)
		if !d.dispatcher.Dispatch(sym, e.State) {
			d.logger.Debug("unbound key", "keycode", e.Keycode, "sym", sym, "state", e.State)
		}
	case platform.KeyReleased:
	case platform.ButtonPressed:
		d.machine.Press(e.Button, e.Window, e.RootX, e.RootY)
	case platform.ButtonReleased:
		d.machine.Release()
	case platform.PointerMotion:
		d.machine.Motion(e.RootX, e.RootY)
	case platform.WindowEntered:
		d.machine.Enter(e.Window)
	case platform.WindowDestroyed:
		d.unmanage(e.Window)
	case platform.KeymapChanged:
		if err := d.transport.RefreshKeymap(); err != nil {
			d.logger.Warn("failed to re-grab chords after keymap change", "error", err)
			return
		}
		d.logger.Info("keyboard mapping reloaded")
	default:
		if ev != nil {
			d.logger.Debug("ignoring event", "kind", ev.Kind())
		}
	}
}

func (d *Driver) snapshot() Snapshot {
	snap := Snapshot{
		Monitors:    d.monitors.All(),
		Clients:     d.clients.All(),
		Focused:     d.machine.Focused(),
		Interaction: d.machine.State(),
	}
	if cur, ok := d.monitors.Current(); ok {
		snap.CurrentMonitor = cur.ID
	}
	return snap
}
