package hotkeys

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/lainwm/lainwm/internal/client"
	"github.com/lainwm/lainwm/internal/interaction"
	"github.com/lainwm/lainwm/internal/monitor"
	"github.com/lainwm/lainwm/internal/platform"
	"github.com/lainwm/lainwm/internal/platform/platformtest"
)

type fakeLauncher struct {
	calls int
	err   error
}

func (l *fakeLauncher) Launch() error {
	l.calls++
	return l.err
}

type fixture struct {
	tr       *platformtest.Transport
	clients  *client.Registry
	monitors *monitor.Registry
	machine  *interaction.Machine
	launcher *fakeLauncher
	d        *Dispatcher
}

func newFixture(t *testing.T, monitors ...monitor.Monitor) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := platformtest.New(1)
	mons := monitor.NewRegistry()
	mons.ReplaceAll(monitors)
	clients := client.NewRegistry()
	machine := interaction.NewMachine(tr, clients, mons, interaction.DefaultOptions(), logger)
	bindings, err := ParseBindings(map[string]string{
		"snap-left":    "Mod4-w",
		"snap-right":   "Mod4-e",
		"launch":       "Mod4-p",
		"next-monitor": "Mod4-period",
		"head-monitor": "Mod4-comma",
	})
	if err != nil {
		t.Fatalf("parse bindings: %v", err)
	}
	launcher := &fakeLauncher{}
	return &fixture{
		tr:       tr,
		clients:  clients,
		monitors: mons,
		machine:  machine,
		launcher: launcher,
		d:        NewDispatcher(machine, clients, mons, launcher, bindings, logger),
	}
}

func (f *fixture) manageFocused(t *testing.T, id platform.WindowID, r platform.Rect, mon platform.OutputID) {
	t.Helper()
	f.tr.AddWindow(id, r)
	if err := f.clients.Add(client.Client{ID: id, Geometry: r, Monitor: mon}); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.machine.Focus(id)
	f.tr.ResetCalls()
}

var (
	landscape = monitor.Monitor{ID: 1, Name: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}}
	portrait  = monitor.Monitor{ID: 2, Name: "DP-2", Bounds: platform.Rect{X: 1920, Y: 0, Width: 1080, Height: 1920}}
)

func TestDispatcher_NextMonitor(t *testing.T) {
	f := newFixture(t, landscape, portrait)
	f.manageFocused(t, 0x10, platform.Rect{X: 300, Y: 200, Width: 200, Height: 200}, 1)

	if !f.d.Dispatch("period", xproto.ModMask4) {
		t.Fatalf("Mod4-period did not match")
	}

	g, _ := f.tr.Geometry(0x10)
	if g.X != 1920 || g.Y != 0 {
		t.Fatalf("position = (%d,%d), want (1920,0)", g.X, g.Y)
	}
	c, _ := f.clients.Lookup(0x10)
	if c.Monitor != 2 {
		t.Fatalf("client monitor = %d, want 2", c.Monitor)
	}

	// No wraparound past the last monitor.
	f.tr.ResetCalls()
	f.d.Run(ActionNextMonitor)
	if calls := f.tr.CallsOf("configure"); len(calls) != 0 {
		t.Fatalf("next-monitor on last monitor configured: %+v", calls)
	}
	if g, _ := f.tr.Geometry(0x10); g.X != 1920 || g.Y != 0 {
		t.Fatalf("window moved to (%d,%d) past last monitor", g.X, g.Y)
	}

	f.d.Run(ActionHeadMonitor)
	if g, _ := f.tr.Geometry(0x10); g.X != 0 || g.Y != 0 {
		t.Fatalf("head-monitor position = (%d,%d), want (0,0)", g.X, g.Y)
	}
	if c, _ := f.clients.Lookup(0x10); c.Monitor != 1 {
		t.Fatalf("client monitor = %d, want 1", c.Monitor)
	}
}

func TestDispatcher_MonitorCommandsKeepYAtZero(t *testing.T) {
	top := monitor.Monitor{ID: 1, Name: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}}
	bottom := monitor.Monitor{ID: 2, Name: "DP-2", Bounds: platform.Rect{X: 0, Y: 1080, Width: 1920, Height: 1080}}
	offset := monitor.Monitor{ID: 3, Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Y: 400, Width: 1280, Height: 1024}}

	tests := []struct {
		name     string
		monitors []monitor.Monitor
		start    platform.Rect
		startMon platform.OutputID
		action   Action
		wantX    int
		wantMon  platform.OutputID
	}{
		{name: "next below", monitors: []monitor.Monitor{top, bottom}, start: platform.Rect{X: 300, Y: 200, Width: 200, Height: 200}, startMon: 1, action: ActionNextMonitor, wantX: 0, wantMon: 2},
		{name: "next with vertical offset", monitors: []monitor.Monitor{top, offset}, start: platform.Rect{X: 300, Y: 200, Width: 200, Height: 200}, startMon: 1, action: ActionNextMonitor, wantX: 1920, wantMon: 3},
		{name: "head from below", monitors: []monitor.Monitor{top, bottom}, start: platform.Rect{X: 50, Y: 1500, Width: 200, Height: 200}, startMon: 2, action: ActionHeadMonitor, wantX: 0, wantMon: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.monitors...)
			f.manageFocused(t, 0x10, tt.start, tt.startMon)

			f.d.Run(tt.action)

			g, _ := f.tr.Geometry(0x10)
			if g.X != tt.wantX || g.Y != 0 {
				t.Fatalf("position = (%d,%d), want (%d,0)", g.X, g.Y, tt.wantX)
			}
			if c, _ := f.clients.Lookup(0x10); c.Monitor != tt.wantMon {
				t.Fatalf("client monitor = %d, want %d", c.Monitor, tt.wantMon)
			}
		})
	}
}

func TestDispatcher_SnapRight(t *testing.T) {
	f := newFixture(t, landscape)
	f.manageFocused(t, 0x10, platform.Rect{X: 100, Y: 100, Width: 300, Height: 200}, 1)

	f.d.Run(ActionSnapRight)

	g, _ := f.tr.Geometry(0x10)
	if g.X != 1620 || g.Y != 100 {
		t.Fatalf("position = (%d,%d), want (1620,100)", g.X, g.Y)
	}
}

func TestDispatcher_SnapLeftUsesMonitorOrigin(t *testing.T) {
	f := newFixture(t, landscape, portrait)
	f.manageFocused(t, 0x10, platform.Rect{X: 2200, Y: 700, Width: 300, Height: 200}, 2)

	f.d.Run(ActionSnapLeft)

	g, _ := f.tr.Geometry(0x10)
	if g.X != 1920 || g.Y != 0 {
		t.Fatalf("position = (%d,%d), want (1920,0)", g.X, g.Y)
	}
}

func TestDispatcher_NoFocusIsNoop(t *testing.T) {
	f := newFixture(t, landscape, portrait)
	f.tr.AddWindow(0x10, platform.Rect{Width: 10, Height: 10})
	_ = f.clients.Add(client.Client{ID: 0x10, Monitor: 1})

	for _, a := range []Action{ActionSnapLeft, ActionSnapRight, ActionNextMonitor, ActionHeadMonitor} {
		f.d.Run(a)
	}
	if calls := f.tr.Calls(); len(calls) != 0 {
		t.Fatalf("unexpected calls without focus: %+v", calls)
	}
}

func TestDispatcher_SnapRightWithoutGeometryIsNoop(t *testing.T) {
	f := newFixture(t, landscape)
	f.manageFocused(t, 0x10, platform.Rect{X: 100, Y: 100, Width: 300, Height: 200}, 1)
	f.tr.DestroyWindow(0x10)

	f.d.Run(ActionSnapRight)
	if calls := f.tr.CallsOf("configure"); len(calls) != 0 {
		t.Fatalf("unexpected configure: %+v", calls)
	}
}

func TestDispatcher_Launch(t *testing.T) {
	f := newFixture(t, landscape)
	if !f.d.Dispatch("p", xproto.ModMask4) {
		t.Fatalf("Mod4-p did not match")
	}
	if f.launcher.calls != 1 {
		t.Fatalf("launcher calls = %d, want 1", f.launcher.calls)
	}

	f.launcher.err = errors.New("boom")
	f.d.Run(ActionLaunch)
	if f.launcher.calls != 2 {
		t.Fatalf("launcher calls = %d, want 2", f.launcher.calls)
	}
}

func TestDispatcher_ModifiersMustMatchExactly(t *testing.T) {
	f := newFixture(t, landscape)

	tests := []struct {
		name string
		sym  string
		mods uint16
		want bool
	}{
		{name: "exact", sym: "p", mods: xproto.ModMask4, want: true},
		{name: "case insensitive sym", sym: "P", mods: xproto.ModMask4, want: true},
		{name: "missing modifier", sym: "p", mods: 0, want: false},
		{name: "extra shift", sym: "p", mods: xproto.ModMask4 | xproto.ModMaskShift, want: false},
		{name: "unbound key", sym: "q", mods: xproto.ModMask4, want: false},
		{name: "empty sym", sym: "", mods: xproto.ModMask4, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.d.Dispatch(tt.sym, tt.mods); got != tt.want {
				t.Fatalf("Dispatch(%q, %#x) = %v, want %v", tt.sym, tt.mods, got, tt.want)
			}
		})
	}
}

func TestDispatcher_ChordsForGrab(t *testing.T) {
	f := newFixture(t, landscape)
	if got := len(f.d.Chords()); got != 5 {
		t.Fatalf("chords = %d, want 5", got)
	}
}
