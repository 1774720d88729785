package wm

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ParamKind is the fixed parameter shape of an action.
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamString
	ParamUint
	ParamFloat
	ParamInt
)

func (k ParamKind) String() string {
	switch k {
	case ParamNone:
		return "none"
	case ParamString:
		return "string"
	case ParamUint:
		return "unsigned"
	case ParamFloat:
		return "float"
	case ParamInt:
		return "signed"
	}
	return fmt.Sprintf("ParamKind(%d)", int(k))
}

// Param is a parameter value of a known shape.
type Param struct {
	Kind ParamKind
	S    string
	U    uint
	F    float64
	I    int
}

func (p Param) String() string {
	switch p.Kind {
	case ParamString:
		return strconv.Quote(p.S)
	case ParamUint:
		return strconv.FormatUint(uint64(p.U), 10)
	case ParamFloat:
		return strconv.FormatFloat(p.F, 'g', -1, 64)
	case ParamInt:
		return strconv.Itoa(p.I)
	}
	return ""
}

// ParamFromValue converts a decoded configuration value into a Param of the
// requested kind. TOML yields int64/float64, YAML int/float64.
func ParamFromValue(kind ParamKind, v interface{}) (Param, error) {
	p := Param{Kind: kind}
	switch kind {
	case ParamNone:
		if v != nil {
			return Param{}, fmt.Errorf("takes no argument, got %v", v)
		}
	case ParamString:
		s, ok := v.(string)
		if !ok {
			return Param{}, fmt.Errorf("wants a string argument, got %T", v)
		}
		p.S = s
	case ParamUint:
		n, ok := asInt64(v)
		if !ok || n < 0 {
			return Param{}, fmt.Errorf("wants an unsigned integer argument, got %v", v)
		}
		p.U = uint(n)
	case ParamInt:
		n, ok := asInt64(v)
		if !ok {
			return Param{}, fmt.Errorf("wants an integer argument, got %v", v)
		}
		p.I = int(n)
	case ParamFloat:
		switch f := v.(type) {
		case float64:
			p.F = f
		case float32:
			p.F = float64(f)
		default:
			n, ok := asInt64(v)
			if !ok {
				return Param{}, fmt.Errorf("wants a number argument, got %v", v)
			}
			p.F = float64(n)
		}
		if math.IsNaN(p.F) || math.IsInf(p.F, 0) {
			return Param{}, fmt.Errorf("wants a finite number argument, got %v", v)
		}
	default:
		return Param{}, fmt.Errorf("unknown parameter kind %v", kind)
	}
	return p, nil
}

// ParamFromString parses a textual argument, as received over the control
// socket, into a Param of the requested kind.
func ParamFromString(kind ParamKind, s string, present bool) (Param, error) {
	if kind == ParamNone {
		if present {
			return Param{}, fmt.Errorf("takes no argument, got %q", s)
		}
		return Param{Kind: ParamNone}, nil
	}
	if !present {
		return Param{}, fmt.Errorf("wants a %v argument", kind)
	}
	switch kind {
	case ParamString:
		return Param{Kind: kind, S: s}, nil
	case ParamUint:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return Param{}, fmt.Errorf("wants an unsigned integer argument: %w", err)
		}
		return Param{Kind: kind, U: uint(n)}, nil
	case ParamInt:
		n, err := strconv.Atoi(s)
		if err != nil {
			return Param{}, fmt.Errorf("wants an integer argument: %w", err)
		}
		return Param{Kind: kind, I: n}, nil
	case ParamFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Param{}, fmt.Errorf("wants a number argument, got %q", s)
		}
		return Param{Kind: kind, F: f}, nil
	}
	return Param{}, fmt.Errorf("unknown parameter kind %v", kind)
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// Operation is a manager operation with its parameter already captured.
type Operation func(m *Manager)

// Action is an action id bound to a parameter.
type Action struct {
	Name  string
	Param Param
	run   Operation
}

// Invoke runs the action against m.
func (a Action) Invoke(m *Manager) {
	if a.run == nil {
		return
	}
	a.run(m)
}

func (a Action) String() string {
	if a.Param.Kind == ParamNone {
		return a.Name
	}
	return a.Name + "(" + a.Param.String() + ")"
}

type actionDef struct {
	kind     ParamKind
	bind     func(p Param) Operation
	validate func(p Param) error
}

func validTag(p Param) error {
	if p.U >= NumTags {
		return fmt.Errorf("tag %d out of range 0..%d", p.U, NumTags-1)
	}
	return nil
}

// ActionTable maps action ids to their parameter shape and operation. It is
// built once and read-only afterwards.
type ActionTable struct {
	defs map[string]actionDef
}

// NewActionTable returns the table of built-in actions.
func NewActionTable() *ActionTable {
	none := func(op Operation) actionDef {
		return actionDef{kind: ParamNone, bind: func(Param) Operation { return op }}
	}
	return &ActionTable{defs: map[string]actionDef{
		"spawn": {kind: ParamString, bind: func(p Param) Operation {
			return func(m *Manager) { m.Spawn(p.S) }
		}},
		"kill_client":       none((*Manager).KillFocused),
		"toggle_fullscreen": none((*Manager).ToggleFullscreenFocused),
		"stack_focus": {kind: ParamInt, bind: func(p Param) Operation {
			return func(m *Manager) { m.StackFocus(p.I) }
		}},
		"stack_push": {kind: ParamInt, bind: func(p Param) Operation {
			return func(m *Manager) { m.StackPush(p.I) }
		}},
		"make_master": none((*Manager).MakeMaster),
		"inc_master_size": {kind: ParamFloat, bind: func(p Param) Operation {
			return func(m *Manager) { m.AdjustMasterRatio(p.F) }
		}},
		"dec_master_size": {kind: ParamFloat, bind: func(p Param) Operation {
			return func(m *Manager) { m.AdjustMasterRatio(-p.F) }
		}},
		"inc_master_count": {kind: ParamInt, bind: func(p Param) Operation {
			return func(m *Manager) { m.AdjustMasterCount(p.I) }
		}},
		"dec_master_count": {kind: ParamInt, bind: func(p Param) Operation {
			return func(m *Manager) { m.AdjustMasterCount(-p.I) }
		}},
		"tag_view": {kind: ParamUint, validate: validTag, bind: func(p Param) Operation {
			return func(m *Manager) { m.TagView(p.U) }
		}},
		"tag_toggle": {kind: ParamUint, validate: validTag, bind: func(p Param) Operation {
			return func(m *Manager) { m.TagToggle(p.U) }
		}},
		"tag_move_to": {kind: ParamUint, validate: validTag, bind: func(p Param) Operation {
			return func(m *Manager) { m.TagMoveTo(p.U) }
		}},
		"toggle_float":  none((*Manager).ToggleFloat),
		"toggle_aot":    none((*Manager).ToggleAlwaysOnTop),
		"toggle_sticky": none((*Manager).ToggleSticky),
	}}
}

// Kind returns the parameter shape of the named action.
func (t *ActionTable) Kind(name string) (ParamKind, bool) {
	def, ok := t.defs[name]
	return def.kind, ok
}

// Names returns the known action ids, sorted.
func (t *ActionTable) Names() []string {
	names := make([]string, 0, len(t.defs))
	for name := range t.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind checks p against the action's parameter shape and captures it.
func (t *ActionTable) Bind(name string, p Param) (Action, error) {
	def, ok := t.defs[name]
	if !ok {
		return Action{}, fmt.Errorf("unknown action %q", name)
	}
	if p.Kind != def.kind {
		return Action{}, fmt.Errorf("action %q takes a %v parameter, got %v", name, def.kind, p.Kind)
	}
	if def.validate != nil {
		if err := def.validate(p); err != nil {
			return Action{}, fmt.Errorf("action %q: %w", name, err)
		}
	}
	return Action{Name: name, Param: p, run: def.bind(p)}, nil
}

// BindValue converts a decoded configuration value and binds it.
func (t *ActionTable) BindValue(name string, v interface{}) (Action, error) {
	kind, ok := t.Kind(name)
	if !ok {
		return Action{}, fmt.Errorf("unknown action %q", name)
	}
	p, err := ParamFromValue(kind, v)
	if err != nil {
		return Action{}, fmt.Errorf("action %q %w", name, err)
	}
	return t.Bind(name, p)
}
