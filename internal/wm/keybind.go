package wm

import (
	"fmt"

	"pluswm/pkg/config"
)

// KeyBinding is a resolved (modifiers, keysym) → action entry.
type KeyBinding struct {
	Mods   uint16
	Keysym Keysym
	// Key is the configured key name, used for grabbing.
	Key    string
	Action Action
}

// ButtonAction is what a pointer binding starts.
type ButtonAction int

const (
	ButtonMove ButtonAction = iota
	ButtonResize
)

func (a ButtonAction) String() string {
	if a == ButtonResize {
		return "resize"
	}
	return "move"
}

// ButtonBinding is a resolved (modifiers, button) → drag entry.
type ButtonBinding struct {
	Mods   uint16
	Button uint8
	Action ButtonAction
}

// KeyBindingResolver matches normalized input against the configured
// bindings. The first matching entry wins.
type KeyBindingResolver struct {
	keys    []KeyBinding
	buttons []ButtonBinding
	numLock func() uint16
}

// NewKeyBindingResolver builds a resolver. numLock reports the modifier bit
// the Num Lock key is currently mapped to (usually Mod2); it is asked on
// every lookup because a keymap change can move it. That bit is stripped
// like Caps Lock.
func NewKeyBindingResolver(keys []KeyBinding, buttons []ButtonBinding, numLock func() uint16) *KeyBindingResolver {
	return &KeyBindingResolver{
		keys:    append([]KeyBinding(nil), keys...),
		buttons: append([]ButtonBinding(nil), buttons...),
		numLock: numLock,
	}
}

// Keys returns the key bindings in configuration order.
func (r *KeyBindingResolver) Keys() []KeyBinding {
	return append([]KeyBinding(nil), r.keys...)
}

// Buttons returns the button bindings in configuration order.
func (r *KeyBindingResolver) Buttons() []ButtonBinding {
	return append([]ButtonBinding(nil), r.buttons...)
}

// Normalize strips lock modifiers from an event state.
func (r *KeyBindingResolver) Normalize(state uint16) uint16 {
	var numLock uint16
	if r.numLock != nil {
		numLock = r.numLock()
	}
	return CleanMask(state, numLock)
}

// Resolve finds the action bound to a raw event state and keysym.
func (r *KeyBindingResolver) Resolve(state uint16, sym Keysym) (Action, bool) {
	mask := r.Normalize(state)
	for _, kb := range r.keys {
		if kb.Mods == mask && kb.Keysym == sym {
			return kb.Action, true
		}
	}
	return Action{}, false
}

// ResolveButton finds the drag bound to a raw event state and button.
func (r *KeyBindingResolver) ResolveButton(state uint16, button uint8) (ButtonAction, bool) {
	mask := r.Normalize(state)
	for _, bb := range r.buttons {
		if bb.Mods == mask && bb.Button == button {
			return bb.Action, true
		}
	}
	return 0, false
}

// CompileBindings validates the configured bindings against the action
// table. Unknown keys, unknown actions and arguments of the wrong shape are
// reported here, before the event loop starts.
func CompileBindings(cfg *config.Config, table *ActionTable) ([]KeyBinding, []ButtonBinding, error) {
	var keys []KeyBinding
	for i, kb := range cfg.Keybinds() {
		mods, name, err := ParseKeys(kb.Keys, cfg.ModKey())
		if err != nil {
			return nil, nil, fmt.Errorf("keybinds[%d]: %w", i, err)
		}
		sym, ok := LookupKeysym(name)
		if !ok {
			return nil, nil, fmt.Errorf("keybinds[%d]: unknown key %q", i, name)
		}
		action, err := table.BindValue(kb.Action, kb.Arg)
		if err != nil {
			return nil, nil, fmt.Errorf("keybinds[%d]: %w", i, err)
		}
		keys = append(keys, KeyBinding{Mods: mods, Keysym: sym, Key: name, Action: action})
	}

	var buttons []ButtonBinding
	for i, b := range cfg.Buttons() {
		mods, name, err := ParseKeys(b.Keys, cfg.ModKey())
		if err != nil {
			return nil, nil, fmt.Errorf("buttons[%d]: %w", i, err)
		}
		var button uint8
		if len(name) == 1 && name[0] >= '1' && name[0] <= '5' {
			button = name[0] - '0'
		} else {
			return nil, nil, fmt.Errorf("buttons[%d]: unknown button %q (want 1-5)", i, name)
		}
		var action ButtonAction
		switch b.Action {
		case "move":
			action = ButtonMove
		case "resize":
			action = ButtonResize
		default:
			return nil, nil, fmt.Errorf("buttons[%d]: unknown button action %q", i, b.Action)
		}
		buttons = append(buttons, ButtonBinding{Mods: mods, Button: button, Action: action})
	}
	return keys, buttons, nil
}
