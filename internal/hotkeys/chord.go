package hotkeys

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
)

// Action names a dispatcher command.
type Action string

const (
	ActionSnapLeft    Action = "snap-left"
	ActionSnapRight   Action = "snap-right"
	ActionNextMonitor Action = "next-monitor"
	ActionHeadMonitor Action = "head-monitor"
	ActionLaunch      Action = "launch"
)

// Actions lists every known action.
func Actions() []Action {
	return []Action{ActionSnapLeft, ActionSnapRight, ActionNextMonitor, ActionHeadMonitor, ActionLaunch}
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}
	return false
}

// Chord is a modifier mask plus a keysym name.
type Chord struct {
	Mods uint16
	Sym  string
}

// Binding ties a chord to an action. Text keeps the configured spelling for
// the grab.
type Binding struct {
	Action Action
	Chord  Chord
	Text   string
}

var modifierMasks = map[string]uint16{
	"shift":   xproto.ModMaskShift,
	"lock":    xproto.ModMaskLock,
	"control": xproto.ModMaskControl,
	"ctrl":    xproto.ModMaskControl,
	"mod1":    xproto.ModMask1,
	"alt":     xproto.ModMask1,
	"mod2":    xproto.ModMask2,
	"mod3":    xproto.ModMask3,
	"mod4":    xproto.ModMask4,
	"super":   xproto.ModMask4,
	"mod5":    xproto.ModMask5,
}

// ParseModifiers parses a "-" separated modifier list like "Mod4-Shift".
func ParseModifiers(s string) (uint16, error) {
	var mods uint16
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	for _, part := range strings.Split(s, "-") {
		mask, ok := modifierMasks[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return 0, fmt.Errorf("unknown modifier %q", part)
		}
		mods |= mask
	}
	return mods, nil
}

// ParseChord parses chords of the form "Mod4-Shift-w". The last component is
// the keysym name; the others are modifiers.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("empty chord")
	}
	i := strings.LastIndex(s, "-")
	if i == len(s)-1 {
		return Chord{}, fmt.Errorf("chord %q has no key", s)
	}
	sym := s[i+1:]
	mods, err := ParseModifiers(s[:max(i, 0)])
	if err != nil {
		return Chord{}, fmt.Errorf("chord %q: %w", s, err)
	}
	return Chord{Mods: mods, Sym: strings.ToLower(sym)}, nil
}

// Matches reports whether a pressed key with the given modifier state
// triggers the chord. Modifiers must match exactly.
func (c Chord) Matches(sym string, mods uint16) bool {
	return c.Mods == mods && strings.EqualFold(c.Sym, sym)
}

// String formats the chord back into "Mod4-w" form.
func (c Chord) String() string {
	names := []struct {
		mask uint16
		name string
	}{
		{xproto.ModMaskShift, "Shift"},
		{xproto.ModMaskLock, "Lock"},
		{xproto.ModMaskControl, "Control"},
		{xproto.ModMask1, "Mod1"},
		{xproto.ModMask2, "Mod2"},
		{xproto.ModMask3, "Mod3"},
		{xproto.ModMask4, "Mod4"},
		{xproto.ModMask5, "Mod5"},
	}
	var parts []string
	for _, n := range names {
		if c.Mods&n.mask != 0 {
			parts = append(parts, n.name)
		}
	}
	parts = append(parts, c.Sym)
	return strings.Join(parts, "-")
}
