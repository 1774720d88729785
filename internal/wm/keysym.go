package wm

import (
	"fmt"
	"strings"
)

// Keysym is an X keysym value.
type Keysym uint32

// Modifier mask bits as carried in key and button event state.
const (
	ModShift   uint16 = 1 << 0
	ModLock    uint16 = 1 << 1
	ModControl uint16 = 1 << 2
	Mod1       uint16 = 1 << 3
	Mod2       uint16 = 1 << 4
	Mod3       uint16 = 1 << 5
	Mod4       uint16 = 1 << 6
	Mod5       uint16 = 1 << 7

	// ModRelevant is every modifier a binding may name.
	ModRelevant = ModShift | ModControl | Mod1 | Mod2 | Mod3 | Mod4 | Mod5
)

var modifierNames = map[string]uint16{
	"shift":   ModShift,
	"lock":    ModLock,
	"control": ModControl,
	"ctrl":    ModControl,
	"mod1":    Mod1,
	"mod2":    Mod2,
	"mod3":    Mod3,
	"mod4":    Mod4,
	"mod5":    Mod5,
}

// named keysyms beyond the printable latin-1 range
var keysymNames = map[string]Keysym{
	"space":        0x0020,
	"exclam":       0x0021,
	"quotedbl":     0x0022,
	"numbersign":   0x0023,
	"dollar":       0x0024,
	"percent":      0x0025,
	"ampersand":    0x0026,
	"apostrophe":   0x0027,
	"parenleft":    0x0028,
	"parenright":   0x0029,
	"asterisk":     0x002a,
	"plus":         0x002b,
	"comma":        0x002c,
	"minus":        0x002d,
	"period":       0x002e,
	"slash":        0x002f,
	"colon":        0x003a,
	"semicolon":    0x003b,
	"less":         0x003c,
	"equal":        0x003d,
	"greater":      0x003e,
	"question":     0x003f,
	"at":           0x0040,
	"bracketleft":  0x005b,
	"backslash":    0x005c,
	"bracketright": 0x005d,
	"asciicircum":  0x005e,
	"underscore":   0x005f,
	"grave":        0x0060,
	"braceleft":    0x007b,
	"bar":          0x007c,
	"braceright":   0x007d,
	"asciitilde":   0x007e,

	"BackSpace": 0xff08,
	"Tab":       0xff09,
	"Return":    0xff0d,
	"Pause":     0xff13,
	"Escape":    0xff1b,
	"Delete":    0xffff,
	"Home":      0xff50,
	"Left":      0xff51,
	"Up":        0xff52,
	"Right":     0xff53,
	"Down":      0xff54,
	"Prior":     0xff55,
	"Page_Up":   0xff55,
	"Next":      0xff56,
	"Page_Down": 0xff56,
	"End":       0xff57,
	"Print":     0xff61,
	"Insert":    0xff63,
	"Menu":      0xff67,

	"F1":  0xffbe,
	"F2":  0xffbf,
	"F3":  0xffc0,
	"F4":  0xffc1,
	"F5":  0xffc2,
	"F6":  0xffc3,
	"F7":  0xffc4,
	"F8":  0xffc5,
	"F9":  0xffc6,
	"F10": 0xffc7,
	"F11": 0xffc8,
	"F12": 0xffc9,

	"XF86MonBrightnessUp":   0x1008ff02,
	"XF86MonBrightnessDown": 0x1008ff03,
	"XF86AudioLowerVolume":  0x1008ff11,
	"XF86AudioMute":         0x1008ff12,
	"XF86AudioRaiseVolume":  0x1008ff13,
	"XF86AudioPlay":         0x1008ff14,
	"XF86AudioStop":         0x1008ff15,
	"XF86AudioPrev":         0x1008ff16,
	"XF86AudioNext":         0x1008ff17,
}

// LookupKeysym resolves a key name ("q", "Return", "F5") to its keysym.
// Letters resolve to their lower-case keysym, which is what the first column
// of the keyboard map reports.
func LookupKeysym(name string) (Keysym, bool) {
	if ks, ok := keysymNames[name]; ok {
		return ks, true
	}
	if len(name) == 1 {
		c := name[0]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c > 0x20 && c < 0x7f {
			return Keysym(c), true
		}
	}
	return 0, false
}

// ParseModifiers converts modifier names into a mask. "mod" expands to
// modKey, itself a modifier name such as "Mod4".
func ParseModifiers(names []string, modKey string) (uint16, error) {
	var mask uint16
	for _, name := range names {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "mod" {
			n = strings.ToLower(modKey)
		}
		bit, ok := modifierNames[n]
		if !ok {
			return 0, fmt.Errorf("unknown modifier %q", name)
		}
		mask |= bit
	}
	return mask, nil
}

// ParseKeys splits "mod-Shift-q" into a modifier mask and the final key
// name. A trailing "-" is taken literally, so "mod--" binds minus.
func ParseKeys(s, modKey string) (uint16, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "", fmt.Errorf("empty key combination")
	}
	var key string
	var mods []string
	if strings.HasSuffix(s, "--") || s == "-" {
		key = "-"
		if rest := strings.TrimSuffix(s, "--"); rest != s && rest != "" {
			mods = strings.Split(rest, "-")
		}
	} else {
		parts := strings.Split(s, "-")
		key = parts[len(parts)-1]
		mods = parts[:len(parts)-1]
	}
	if key == "" {
		return 0, "", fmt.Errorf("key combination %q has no key", s)
	}
	mask, err := ParseModifiers(mods, modKey)
	if err != nil {
		return 0, "", fmt.Errorf("key combination %q: %w", s, err)
	}
	return mask, key, nil
}

// CleanMask strips lock modifiers (Caps Lock and the Num Lock bit) and
// pointer button state, keeping only modifiers a binding can match on.
func CleanMask(state, numLock uint16) uint16 {
	return state &^ (ModLock | numLock) & ModRelevant
}
