package hotkeys

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		in      string
		want    Chord
		wantErr bool
	}{
		{in: "Mod4-w", want: Chord{Mods: xproto.ModMask4, Sym: "w"}},
		{in: "Mod4-Shift-Return", want: Chord{Mods: xproto.ModMask4 | xproto.ModMaskShift, Sym: "return"}},
		{in: "ctrl-alt-Delete", want: Chord{Mods: xproto.ModMaskControl | xproto.ModMask1, Sym: "delete"}},
		{in: "F12", want: Chord{Sym: "f12"}},
		{in: " super-period ", want: Chord{Mods: xproto.ModMask4, Sym: "period"}},
		{in: "", wantErr: true},
		{in: "Mod4-", wantErr: true},
		{in: "Hyper-w", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChord(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseChord(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestChordString(t *testing.T) {
	c := Chord{Mods: xproto.ModMask4 | xproto.ModMaskShift, Sym: "w"}
	if got := c.String(); got != "Shift-Mod4-w" {
		t.Fatalf("String() = %q, want %q", got, "Shift-Mod4-w")
	}
}

func TestParseBindings(t *testing.T) {
	bindings, err := ParseBindings(map[string]string{
		"snap-right": "Mod4-e",
		"snap-left":  "Mod4-w",
		"launch":     "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("bindings = %+v, want 2 (empty chord disables launch)", bindings)
	}
	if bindings[0].Action != ActionSnapLeft || bindings[1].Action != ActionSnapRight {
		t.Fatalf("bindings not ordered by action: %+v", bindings)
	}

	if _, err := ParseBindings(map[string]string{"tile": "Mod4-t"}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	if _, err := ParseBindings(map[string]string{"snap-left": "Mod4-w", "snap-right": "mod4-W"}); err == nil {
		t.Fatalf("expected error for duplicate chord")
	}
}
