package wm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/lainwm/lainwm/internal/hotkeys"
	"github.com/lainwm/lainwm/internal/interaction"
	"github.com/lainwm/lainwm/internal/platform"
	"github.com/lainwm/lainwm/internal/platform/platformtest"
)

const root platform.WindowID = 1

var (
	landscape = platform.Output{ID: 10, Name: "DP-1", Bounds: platform.Rect{Width: 1920, Height: 1080}}
	portrait  = platform.Output{ID: 20, Name: "DP-2", Bounds: platform.Rect{X: 1920, Width: 1080, Height: 1920}}
)

type countingLauncher struct{ calls int }

func (l *countingLauncher) Launch() error {
	l.calls++
	return nil
}

func newDriver(t *testing.T, tr *platformtest.Transport) (*Driver, *countingLauncher) {
	t.Helper()
	bindings, err := hotkeys.ParseBindings(map[string]string{
		"snap-left":    "Mod4-w",
		"snap-right":   "Mod4-e",
		"launch":       "Mod4-p",
		"next-monitor": "Mod4-period",
		"head-monitor": "Mod4-comma",
	})
	if err != nil {
		t.Fatalf("parse bindings: %v", err)
	}
	launcher := &countingLauncher{}
	d := New(tr, launcher, Options{
		NewWindowWidth:  200,
		NewWindowHeight: 200,
		Interaction:     interaction.DefaultOptions(),
		Bindings:        bindings,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return d, launcher
}

func mod4(t *testing.T) uint16 {
	t.Helper()
	c, err := hotkeys.ParseChord("Mod4-x")
	if err != nil {
		t.Fatalf("parse chord: %v", err)
	}
	return c.Mods
}

func TestDriver_MapThenNextMonitor(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape, portrait}
	tr.Keysyms[60] = "period"
	tr.SetPointer(100, 100)
	d, _ := newDriver(t, tr)
	d.Init()

	tr.AddWindow(0x10, platform.Rect{X: 30, Y: 40, Width: 640, Height: 480})
	d.Handle(platform.WindowMapRequested{Window: 0x10})

	snap := d.snapshot()
	if len(snap.Clients) != 1 {
		t.Fatalf("clients = %+v, want one", snap.Clients)
	}
	c := snap.Clients[0]
	if c.Geometry.Width != 200 || c.Geometry.Height != 200 {
		t.Fatalf("new window size = %dx%d, want 200x200", c.Geometry.Width, c.Geometry.Height)
	}
	if c.Monitor != 10 {
		t.Fatalf("new window monitor = %d, want 10", c.Monitor)
	}
	if snap.Focused != 0x10 {
		t.Fatalf("focused = %d, want new window", snap.Focused)
	}
	if got := tr.ClientList(); !reflect.DeepEqual(got, []platform.WindowID{0x10}) {
		t.Fatalf("client list = %v", got)
	}

	d.Handle(platform.KeyPressed{Keycode: 60, State: mod4(t)})

	g, _ := tr.Geometry(0x10)
	if g.X != 1920 || g.Y != 0 {
		t.Fatalf("position after next-monitor = (%d,%d), want (1920,0)", g.X, g.Y)
	}
}

func TestDriver_NewWindowLandsOnMonitorUnderPointer(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape, portrait}
	tr.SetPointer(2500, 1500)
	d, _ := newDriver(t, tr)
	d.Init()

	tr.AddWindow(0x10, platform.Rect{Width: 10, Height: 10})
	d.Handle(platform.WindowMapRequested{Window: 0x10})

	snap := d.snapshot()
	if snap.Clients[0].Monitor != 20 || snap.CurrentMonitor != 20 {
		t.Fatalf("monitor = %d current = %d, want 20", snap.Clients[0].Monitor, snap.CurrentMonitor)
	}
}

func TestDriver_DuplicateMapRequestOnlyRemaps(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape}
	d, _ := newDriver(t, tr)
	d.Init()

	tr.AddWindow(0x10, platform.Rect{Width: 10, Height: 10})
	d.Handle(platform.WindowMapRequested{Window: 0x10})
	tr.ResetCalls()
	d.Handle(platform.WindowMapRequested{Window: 0x10})

	calls := tr.Calls()
	if len(calls) != 1 || calls[0].Op != "map" {
		t.Fatalf("calls = %+v, want a single map", calls)
	}
	if d.clients.Len() != 1 {
		t.Fatalf("clients = %d, want 1", d.clients.Len())
	}
}

func TestDriver_InitAdoptsExistingWindows(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape, portrait}
	tr.AddWindow(0x10, platform.Rect{X: 10, Y: 10, Width: 300, Height: 300})
	tr.AddWindow(0x20, platform.Rect{X: 2000, Y: 10, Width: 300, Height: 300})
	tr.Infos[0x20] = platform.WindowInfo{Name: "xterm", UserPositioned: true}
	tr.Existing = []platform.WindowID{0x10, 0x20, 0x30}
	d, _ := newDriver(t, tr)

	d.Init()

	snap := d.snapshot()
	if len(snap.Clients) != 2 {
		t.Fatalf("clients = %+v, want two adopted windows", snap.Clients)
	}
	if snap.Clients[0].Monitor != 10 || snap.Clients[1].Monitor != 20 {
		t.Fatalf("monitors = %d,%d, want 10,20", snap.Clients[0].Monitor, snap.Clients[1].Monitor)
	}
	if snap.Clients[1].Name != "xterm" {
		t.Fatalf("name = %q, want xterm", snap.Clients[1].Name)
	}
	if snap.Clients[0].Geometry.Width != 300 {
		t.Fatalf("adopted window was resized: %+v", snap.Clients[0].Geometry)
	}
	if snap.Focused != 0 {
		t.Fatalf("adoption changed focus to %d", snap.Focused)
	}
	if got := tr.ClientList(); !reflect.DeepEqual(got, []platform.WindowID{0x10, 0x20}) {
		t.Fatalf("client list = %v", got)
	}
}

func TestDriver_DestroyRemovesClientAndFocus(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape}
	d, _ := newDriver(t, tr)
	d.Init()

	tr.AddWindow(0x10, platform.Rect{Width: 10, Height: 10})
	d.Handle(platform.WindowMapRequested{Window: 0x10})
	d.Handle(platform.ButtonPressed{Button: 1, Window: 0x10, RootX: 5, RootY: 5})
	d.Handle(platform.WindowDestroyed{Window: 0x10})

	snap := d.snapshot()
	if len(snap.Clients) != 0 {
		t.Fatalf("clients = %+v, want none", snap.Clients)
	}
	if snap.Focused != 0 || snap.Interaction.Active() {
		t.Fatalf("focus %d / interaction %+v survived destroy", snap.Focused, snap.Interaction)
	}
	if got := tr.ClientList(); len(got) != 0 {
		t.Fatalf("client list = %v, want empty", got)
	}

	// Destroy of an unknown window is a no-op.
	tr.ResetCalls()
	d.Handle(platform.WindowDestroyed{Window: 0x99})
	if calls := tr.Calls(); len(calls) != 0 {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestDriver_OutputsChanged(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape, portrait}
	tr.AddWindow(root, platform.Rect{Width: 1280, Height: 1024})
	tr.SetPointer(2500, 100)
	d, _ := newDriver(t, tr)
	d.Init()

	tr.AddWindow(0x10, platform.Rect{Width: 10, Height: 10})
	d.Handle(platform.WindowMapRequested{Window: 0x10})

	tr.Outputs = nil
	tr.OutputsErr = errors.New("randr gone")
	d.Handle(platform.OutputsChanged{})

	snap := d.snapshot()
	if len(snap.Monitors) != 1 || snap.Monitors[0].Bounds != (platform.Rect{Width: 1280, Height: 1024}) {
		t.Fatalf("monitors = %+v, want root geometry fallback", snap.Monitors)
	}
	if snap.Clients[0].Monitor != 1 {
		t.Fatalf("client monitor = %d, want reassignment to fallback monitor", snap.Clients[0].Monitor)
	}
}

func TestDriver_ConfigureRequest(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape}
	d, _ := newDriver(t, tr)
	d.Init()

	tr.AddWindow(0x10, platform.Rect{Width: 10, Height: 10})
	d.Handle(platform.WindowMapRequested{Window: 0x10})
	tr.ResetCalls()

	req := platform.WindowConfig{Mask: platform.ConfigWidth | platform.ConfigHeight, Width: 640, Height: 480}
	d.Handle(platform.ConfigureRequested{Window: 0x10, Request: req})

	calls := tr.CallsOf("configure")
	if len(calls) != 1 || calls[0].Config != req {
		t.Fatalf("configure calls = %+v, want forwarded request", calls)
	}
	c, _ := d.clients.Lookup(0x10)
	if c.Geometry.Width != 640 || c.Geometry.Height != 480 {
		t.Fatalf("registry geometry = %+v", c.Geometry)
	}

	// A raise is forwarded without touching the tracked geometry.
	d.Handle(platform.ConfigureRequested{Window: 0x10, Request: platform.Raise()})
	if calls := tr.CallsOf("configure"); len(calls) != 2 || !calls[1].Config.Has(platform.ConfigRaise) {
		t.Fatalf("configure calls = %+v, want forwarded raise", calls)
	}
	c, _ = d.clients.Lookup(0x10)
	if c.Geometry.Width != 640 || c.Geometry.Height != 480 {
		t.Fatalf("registry geometry after raise = %+v", c.Geometry)
	}

	// Unmanaged windows are configured but not tracked.
	d.Handle(platform.ConfigureRequested{Window: 0x77, Request: platform.MoveTo(5, 5)})
	if d.clients.Contains(0x77) {
		t.Fatalf("unmanaged window entered the registry")
	}
	if got := len(tr.CallsOf("configure")); got != 3 {
		t.Fatalf("configure calls = %d, want 3", got)
	}
}

func TestDriver_PointerDragThroughEvents(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape}
	tr.SetPointer(60, 60)
	d, _ := newDriver(t, tr)
	d.Init()

	tr.AddWindow(0x10, platform.Rect{X: 50, Y: 50, Width: 100, Height: 100})
	d.Handle(platform.WindowMapRequested{Window: 0x10})
	d.Handle(platform.WindowEntered{Window: 0x10})
	d.Handle(platform.ButtonPressed{Button: 1, Window: 0x10, RootX: 60, RootY: 60})
	tr.SetPointer(1900, 1079)
	d.Handle(platform.PointerMotion{RootX: 1900, RootY: 1079})
	d.Handle(platform.ButtonReleased{Button: 3})

	g, _ := tr.Geometry(0x10)
	if g.X != 1720 || g.Y != 880 {
		t.Fatalf("position = (%d,%d), want (1720,880)", g.X, g.Y)
	}
	if d.machine.State().Active() {
		t.Fatalf("interaction still active after release")
	}
}

func TestDriver_UnrecognizedAndKeyReleaseAreNoops(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape}
	d, launcher := newDriver(t, tr)
	d.Init()
	tr.ResetCalls()

	d.Handle(platform.Unrecognized{Name: "xproto.PropertyNotifyEvent"})
	d.Handle(platform.KeyReleased{Keycode: 33})
	d.Handle(platform.KeyPressed{Keycode: 200, State: mod4(t)})

	if calls := tr.Calls(); len(calls) != 0 {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if launcher.calls != 0 {
		t.Fatalf("launcher called %d times", launcher.calls)
	}
}

func TestDriver_KeymapChangedRegrabsBeforeNextKey(t *testing.T) {
	tests := []struct {
		name       string
		refreshErr error
	}{
		{name: "reload succeeds"},
		{name: "reload fails", refreshErr: errors.New("grab refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := platformtest.New(root)
			tr.Outputs = []platform.Output{landscape}
			tr.RefreshErr = tt.refreshErr
			d, launcher := newDriver(t, tr)
			d.Init()
			tr.ResetCalls()

			d.Handle(platform.KeymapChanged{})
			if got := tr.CallsOf("refresh-keymap"); len(got) != 1 {
				t.Fatalf("refresh-keymap calls = %d, want 1", len(got))
			}

			// After the layout switch "p" lives on a different keycode.
			tr.Keysyms[46] = "p"
			d.Handle(platform.KeyPressed{Keycode: 46, State: mod4(t)})
			if launcher.calls != 1 {
				t.Fatalf("launcher calls = %d, want 1", launcher.calls)
			}
		})
	}
}

func TestDriver_RunHandlesEventsUntilTransportCloses(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape}
	tr.Keysyms[33] = "p"
	d, launcher := newDriver(t, tr)

	tr.AddWindow(0x10, platform.Rect{Width: 10, Height: 10})
	tr.Push(platform.WindowMapRequested{Window: 0x10})
	tr.Push(platform.KeyPressed{Keycode: 33, State: mod4(t)})
	tr.Close()

	err := d.Run(context.Background())
	if !errors.Is(err, platform.ErrTransportUnavailable) {
		t.Fatalf("Run error = %v, want ErrTransportUnavailable", err)
	}
	if !d.clients.Contains(0x10) {
		t.Fatalf("window was not managed")
	}
	if launcher.calls != 1 {
		t.Fatalf("launcher calls = %d, want 1", launcher.calls)
	}
}

func TestDriver_DoSnapshotAndReconcileWhileRunning(t *testing.T) {
	tr := platformtest.New(root)
	tr.Outputs = []platform.Output{landscape, portrait}
	tr.AddWindow(0x10, platform.Rect{Width: 10, Height: 10})
	tr.AddWindow(0x20, platform.Rect{X: 2000, Width: 10, Height: 10})
	tr.Existing = []platform.WindowID{0x10, 0x20}
	d, _ := newDriver(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
	defer callCancel()

	snap, err := d.Snapshot(callCtx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Monitors) != 2 || len(snap.Clients) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}

	tr.DestroyWindow(0x20)
	removed, err := d.Reconcile(callCtx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !reflect.DeepEqual(removed, []platform.WindowID{0x20}) {
		t.Fatalf("removed = %v, want [0x20]", removed)
	}

	ran := false
	if err := d.Do(callCtx, func() { ran = d.clients.Len() == 1 }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Fatalf("Do did not observe the pruned registry")
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned %v after cancel, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestDriver_DoHonoursContext(t *testing.T) {
	tr := platformtest.New(root)
	d, _ := newDriver(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Do(ctx, func() {}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Do error = %v, want context.Canceled", err)
	}
}
