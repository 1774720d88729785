package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"pluswm/internal/wm"
)

const xkNumLock = 0xff7f

const buttonEventMask = xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion

// findNumLock scans the modifier map for the modifier Num Lock sits on.
func (d *Display) findNumLock() uint16 {
	mm, err := xproto.GetModifierMapping(d.X.Conn()).Reply()
	if err != nil {
		d.log.Warn("Failed to read modifier map, assuming Mod2 for Num Lock", "error", err)
		return xproto.ModMask2
	}
	per := int(mm.KeycodesPerModifier)
	for mod := 0; mod < 8; mod++ {
		for _, kc := range mm.Keycodes[mod*per : (mod+1)*per] {
			if kc != 0 && keybind.KeysymGet(d.X, kc, 0) == xkNumLock {
				return 1 << uint(mod)
			}
		}
	}
	return 0
}

// useNumLock makes every grab, ours and keybind's, repeat over the lock
// combinations for numLock.
func useNumLock(numLock uint16) {
	xevent.IgnoreMods = ignoreMods(numLock)
}

// ignoreMods lists the lock combinations every grab is repeated for.
func ignoreMods(numLock uint16) []uint16 {
	if numLock == 0 {
		return []uint16{0, xproto.ModMaskLock}
	}
	return []uint16{0, xproto.ModMaskLock, numLock, xproto.ModMaskLock | numLock}
}

func (d *Display) NumLockMask() uint16 { return d.numLock }

// keycodes returns every keycode producing sym without shift.
func (d *Display) keycodes(sym xproto.Keysym) []xproto.Keycode {
	setup := xproto.Setup(d.X.Conn())
	var out []xproto.Keycode
	for kc := setup.MinKeycode; ; kc++ {
		if keybind.KeysymGet(d.X, kc, 0) == sym {
			out = append(out, kc)
		}
		if kc == setup.MaxKeycode {
			break
		}
	}
	return out
}

// GrabKeys replaces all key grabs on the root window. Keys without a
// keycode or already grabbed by another client are logged and skipped.
func (d *Display) GrabKeys(keys []wm.KeyBinding) error {
	d.keys = keys
	xproto.UngrabKey(d.X.Conn(), xproto.GrabAny, d.root, xproto.ModMaskAny)

	for _, kb := range keys {
		codes := d.keycodes(xproto.Keysym(kb.Keysym))
		if len(codes) == 0 {
			d.log.Warn("No keycode for key binding", "key", kb.Key)
			continue
		}
		for _, kc := range codes {
			if err := keybind.GrabChecked(d.X, d.root, kb.Mods, kc); err != nil {
				d.log.Warn("Failed to grab key", "key", kb.Key, "error", err)
			}
		}
	}
	d.log.Debug("Grabbed keys", "count", len(keys))
	return nil
}

// GrabButtons grabs the pointer bindings on the root window, once per lock
// combination.
func (d *Display) GrabButtons(buttons []wm.ButtonBinding) error {
	conn := d.X.Conn()
	xproto.UngrabButton(conn, xproto.ButtonIndexAny, d.root, xproto.ModMaskAny)

	for _, b := range buttons {
		for _, m := range xevent.IgnoreMods {
			err := xproto.GrabButtonChecked(conn, false, d.root, uint16(buttonEventMask),
				xproto.GrabModeAsync, xproto.GrabModeAsync, xproto.WindowNone, d.cursorMove,
				b.Button, b.Mods|m).Check()
			if err != nil {
				d.log.Warn("Failed to grab button", "button", b.Button, "action", b.Action.String(), "error", err)
			}
		}
	}
	return nil
}

// refreshKeyboard reloads the keyboard and modifier maps after the server
// announced a change and grabs the keys again under the new keycodes.
func (d *Display) refreshKeyboard(e xproto.MappingNotifyEvent) {
	if e.Request != xproto.MappingKeyboard && e.Request != xproto.MappingModifier {
		return
	}
	keyMap, modMap := keybind.MapsGet(d.X)
	keybind.KeyMapSet(d.X, keyMap)
	keybind.ModMapSet(d.X, modMap)

	if e.Request == xproto.MappingModifier {
		if numLock := d.findNumLock(); numLock != d.numLock {
			d.log.Warn("Num Lock moved to another modifier", "was", d.numLock, "now", numLock)
			d.numLock = numLock
			useNumLock(numLock)
		}
	}
	d.log.Info("Keyboard mapping changed, grabbing keys again")
	_ = d.GrabKeys(d.keys)
}
