package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// keyGrab remembers an installed chord so it can be released and grabbed
// again when the keyboard mapping changes.
type keyGrab struct {
	chord string
	mods  uint16
	codes []xproto.Keycode
}

// GrabChord grabs a key chord such as "Mod4-w" on the root window. The grab
// is repeated for every combination of ignored lock modifiers.
func (c *Connection) GrabChord(chord string) error {
	mods, keycodes, err := keybind.ParseString(c.XUtil, chord)
	if err != nil {
		return fmt.Errorf("invalid chord %q: %w", chord, err)
	}

	// Unresolvable chords are still recorded; a later keymap may bind them.
	g := keyGrab{chord: chord, mods: mods}
	defer func() { c.keyGrabs = append(c.keyGrabs, g) }()

	if len(keycodes) == 0 {
		return fmt.Errorf("chord %q maps to no keycode", chord)
	}
	for _, kc := range keycodes {
		if err := keybind.GrabChecked(c.XUtil, c.Root, mods, kc); err != nil {
			return fmt.Errorf("failed to grab %q: %w", chord, err)
		}
		g.codes = append(g.codes, kc)
	}
	return nil
}

// RefreshKeymap reloads the keyboard and modifier maps after a
// MappingNotify and moves every chord grab to the new keycodes. keybind
// only does this on its own from xevent.Main, which we do not run.
func (c *Connection) RefreshKeymap() error {
	for _, g := range c.keyGrabs {
		for _, kc := range g.codes {
			keybind.Ungrab(c.XUtil, c.Root, g.mods, kc)
		}
	}

	keyMap, modMap := keybind.MapsGet(c.XUtil)
	keybind.KeyMapSet(c.XUtil, keyMap)
	keybind.ModMapSet(c.XUtil, modMap)
	c.ignoreMask.Store(uint32(configureIgnoreMods(c.XUtil)))

	grabs := c.keyGrabs
	c.keyGrabs = nil
	var errs []error
	for _, g := range grabs {
		if err := c.GrabChord(g.chord); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GrabButton grabs a modifier+button combination such as "Mod1-1" on the
// root window so presses over any client are reported to us.
func (c *Connection) GrabButton(binding string) error {
	mods, button, err := mousebind.ParseString(c.XUtil, binding)
	if err != nil {
		return fmt.Errorf("invalid button binding %q: %w", binding, err)
	}
	if err := mousebind.GrabChecked(c.XUtil, c.Root, mods, button, false); err != nil {
		return fmt.Errorf("failed to grab %q: %w", binding, err)
	}
	return nil
}

// GrabPointer grabs the pointer on the root window for the duration of a
// move or resize.
func (c *Connection) GrabPointer() error {
	ok, err := mousebind.GrabPointer(c.XUtil, c.Root, c.Root, 0)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("pointer grab refused")
	}
	return nil
}

// UngrabPointer releases a pointer grab.
func (c *Connection) UngrabPointer() {
	mousebind.UngrabPointer(c.XUtil)
}

// KeysymName returns the unshifted keysym name for a keycode, e.g. "w" or
// "period".
func (c *Connection) KeysymName(keycode xproto.Keycode) string {
	return keybind.LookupString(c.XUtil, 0, keycode)
}

// configureIgnoreMods makes grabs insensitive to Caps/Num/Scroll lock and
// returns the union of those masks.
func configureIgnoreMods(xu *xgbutil.XUtil) uint16 {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	var union uint16
	for _, m := range base {
		union |= m
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
	return union
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
