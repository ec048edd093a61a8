package monitor

import (
	"reflect"
	"testing"

	"github.com/lainwm/lainwm/internal/platform"
)

func twoMonitors() []Monitor {
	return []Monitor{
		{ID: 10, Name: "DP-1", Bounds: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		{ID: 20, Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Y: 0, Width: 1080, Height: 1920}},
	}
}

func TestRegistry_FirstAndNext(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.First(); ok {
		t.Fatalf("expected no first monitor in empty registry")
	}

	r.ReplaceAll(twoMonitors())

	first, ok := r.First()
	if !ok || first.ID != 10 {
		t.Fatalf("first = %+v (ok=%v), want id 10", first, ok)
	}
	next, ok := r.Next(first.ID)
	if !ok || next.ID != 20 {
		t.Fatalf("next = %+v (ok=%v), want id 20", next, ok)
	}
	if _, ok := r.Next(next.ID); ok {
		t.Fatalf("expected no monitor after the last one")
	}
	if _, ok := r.Next(99); ok {
		t.Fatalf("expected no monitor after an unknown id")
	}
}

func TestRegistry_Containing(t *testing.T) {
	r := NewRegistry()
	r.ReplaceAll(twoMonitors())

	tests := []struct {
		name   string
		point  platform.Point
		wantID platform.OutputID
		wantOK bool
	}{
		{name: "origin", point: platform.Point{X: 0, Y: 0}, wantID: 10, wantOK: true},
		{name: "last pixel of first", point: platform.Point{X: 1919, Y: 1079}, wantID: 10, wantOK: true},
		{name: "first pixel of second", point: platform.Point{X: 1920, Y: 0}, wantID: 20, wantOK: true},
		{name: "below first", point: platform.Point{X: 100, Y: 1500}, wantOK: false},
		{name: "negative", point: platform.Point{X: -1, Y: 0}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := r.Containing(tt.point)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && m.ID != tt.wantID {
				t.Fatalf("id = %d, want %d", m.ID, tt.wantID)
			}
		})
	}
}

func TestRegistry_ReplaceAllDropsDuplicatesAndKeepsOrder(t *testing.T) {
	r := NewRegistry()
	monitors := append(twoMonitors(), Monitor{ID: 10, Name: "dup"})
	r.ReplaceAll(monitors)

	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
	if got := r.All(); !reflect.DeepEqual(got, twoMonitors()) {
		t.Fatalf("all = %+v, want %+v", got, twoMonitors())
	}
}

func TestRegistry_CurrentFollowsTouchAndSurvivesReplace(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Current(); ok {
		t.Fatalf("expected no current monitor in empty registry")
	}

	r.ReplaceAll(twoMonitors())
	if cur, _ := r.Current(); cur.ID != 10 {
		t.Fatalf("current = %d, want first monitor 10", cur.ID)
	}

	r.Touch(20)
	if cur, _ := r.Current(); cur.ID != 20 {
		t.Fatalf("current = %d, want 20", cur.ID)
	}

	r.Touch(99)
	if cur, _ := r.Current(); cur.ID != 20 {
		t.Fatalf("touching unknown id changed current to %d", cur.ID)
	}

	r.ReplaceAll(twoMonitors())
	if cur, _ := r.Current(); cur.ID != 20 {
		t.Fatalf("current = %d after identical re-enumeration, want 20", cur.ID)
	}

	r.ReplaceAll(twoMonitors()[:1])
	if cur, _ := r.Current(); cur.ID != 10 {
		t.Fatalf("current = %d after monitor removal, want fallback 10", cur.ID)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	r.ReplaceAll(twoMonitors())
	r.Touch(20)

	if m, _ := r.Resolve(10, platform.Point{X: 2000, Y: 10}); m.ID != 10 {
		t.Fatalf("owning monitor should win, got %d", m.ID)
	}
	if m, _ := r.Resolve(0, platform.Point{X: 10, Y: 10}); m.ID != 10 {
		t.Fatalf("monitor under point should win for unknown owner, got %d", m.ID)
	}
	if m, _ := r.Resolve(0, platform.Point{X: -50, Y: -50}); m.ID != 20 {
		t.Fatalf("current monitor should be the fallback, got %d", m.ID)
	}
}

func TestFromOutputs(t *testing.T) {
	outputs := []platform.Output{
		{ID: 3, Name: "eDP-1", Bounds: platform.Rect{Width: 1366, Height: 768}},
		{ID: 1, Name: "DP-2", Bounds: platform.Rect{X: 1366, Width: 1920, Height: 1080}},
	}
	got := FromOutputs(outputs)
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 1 {
		t.Fatalf("FromOutputs = %+v, want discovery order preserved", got)
	}
	if got[1].Bounds.X != 1366 || got[1].Name != "DP-2" {
		t.Fatalf("second monitor = %+v", got[1])
	}
}
