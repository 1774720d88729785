package config

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	ColorBorderActive   = "border_active"
	ColorBorderInactive = "border_inactive"
)

// Gaps are the pixel margins kept free around the work area.
type Gaps struct {
	Top    int `toml:"top" yaml:"top"`
	Bottom int `toml:"bottom" yaml:"bottom"`
	Left   int `toml:"left" yaml:"left"`
	Right  int `toml:"right" yaml:"right"`
}

// Keybind binds a key combination such as "mod-q" to an action.
type Keybind struct {
	Keys   string      `toml:"keys" yaml:"keys"`
	Action string      `toml:"action" yaml:"action"`
	Arg    interface{} `toml:"arg" yaml:"arg"`
}

// Button binds a modifier and pointer button such as "mod-1" to a drag action.
type Button struct {
	Keys   string `toml:"keys" yaml:"keys"`
	Action string `toml:"action" yaml:"action"`
}

// Rule matches windows by class, instance or title. Rules are carried but not applied.
type Rule struct {
	Class    string `toml:"class" yaml:"class"`
	Instance string `toml:"instance" yaml:"instance"`
	Title    string `toml:"title" yaml:"title"`
	Tags     uint   `toml:"tags" yaml:"tags"`
	Floating bool   `toml:"floating" yaml:"floating"`
	Terminal bool   `toml:"terminal" yaml:"terminal"`
	Monitor  int    `toml:"monitor" yaml:"monitor"`
}

// Config holds the window manager configuration. Fields are private so the
// value stays immutable once loaded.
type Config struct {
	modKey            string
	snapDistance      int
	borderWidth       int
	gaps              Gaps
	smartGaps         bool
	focusFollowsMouse bool
	colors            map[string]string
	keybinds          []Keybind
	buttons           []Button
	rules             []Rule
	socketPath        string
	logFile           string

	// Internal fields
	pixels map[string]uint32
	path   string
}

// fileConfig is the on-disk shape shared by the TOML and YAML loaders.
type fileConfig struct {
	ModKey            string            `toml:"modkey" yaml:"modkey"`
	SnapDistance      *int              `toml:"snap_distance" yaml:"snap_distance"`
	BorderWidth       *int              `toml:"border_width" yaml:"border_width"`
	Gaps              *Gaps             `toml:"gaps" yaml:"gaps"`
	SmartGaps         *bool             `toml:"smart_gaps" yaml:"smart_gaps"`
	FocusFollowsMouse *bool             `toml:"focus_follows_mouse" yaml:"focus_follows_mouse"`
	Colors            map[string]string `toml:"colors" yaml:"colors"`
	Keybinds          []Keybind         `toml:"keybinds" yaml:"keybinds"`
	Buttons           []Button          `toml:"buttons" yaml:"buttons"`
	Rules             []Rule            `toml:"rules" yaml:"rules"`
	SocketPath        string            `toml:"socket_path" yaml:"socket_path"`
	LogFile           string            `toml:"log_file" yaml:"log_file"`
}

// ModKey returns the X modifier name that "mod" expands to.
func (c *Config) ModKey() string {
	return c.modKey
}

func (c *Config) SnapDistance() int {
	return c.snapDistance
}

func (c *Config) BorderWidth() int {
	return c.borderWidth
}

func (c *Config) Gaps() Gaps {
	return c.gaps
}

func (c *Config) SmartGaps() bool {
	return c.smartGaps
}

func (c *Config) FocusFollowsMouse() bool {
	return c.focusFollowsMouse
}

// ColorPixel returns the 24-bit RGB pixel value of a named colour.
func (c *Config) ColorPixel(name string) (uint32, bool) {
	p, ok := c.pixels[name]
	return p, ok
}

// GetColors returns a copy of the colour table.
func (c *Config) GetColors() map[string]string {
	colorsCopy := make(map[string]string, len(c.colors))
	for k, v := range c.colors {
		colorsCopy[k] = v
	}
	return colorsCopy
}

// Keybinds returns a copy of the keybindings in configuration order.
func (c *Config) Keybinds() []Keybind {
	return append([]Keybind(nil), c.keybinds...)
}

// Buttons returns a copy of the button bindings in configuration order.
func (c *Config) Buttons() []Button {
	return append([]Button(nil), c.buttons...)
}

// Rules returns a copy of the window rules.
func (c *Config) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// SocketPath is the control socket location; empty means the default.
func (c *Config) SocketPath() string {
	return c.socketPath
}

// LogFile is the log file location; empty means the logger default.
func (c *Config) LogFile() string {
	return c.logFile
}

// Path returns the file the configuration was read from, if any.
func (c *Config) Path() string {
	return c.path
}

// normalizeModKey maps the accepted spellings onto X modifier names.
func normalizeModKey(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "l_alt", "alt", "mod1":
		return "Mod1", nil
	case "winkey", "super", "mod4":
		return "Mod4", nil
	default:
		return "", fmt.Errorf("unknown modkey %q (want l_alt or winkey)", s)
	}
}

// ParsePixel converts "#rrggbb" into a 24-bit TrueColor pixel.
func ParsePixel(hex string) (uint32, error) {
	col, err := colorful.Hex(hex)
	if err != nil {
		return 0, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := col.RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b), nil
}

// apply overlays a decoded file onto c and validates the result.
func (c *Config) apply(fc fileConfig) error {
	if fc.ModKey != "" {
		c.modKey = fc.ModKey
	}
	if fc.SnapDistance != nil {
		c.snapDistance = *fc.SnapDistance
	}
	if fc.BorderWidth != nil {
		c.borderWidth = *fc.BorderWidth
	}
	if fc.Gaps != nil {
		c.gaps = *fc.Gaps
	}
	if fc.SmartGaps != nil {
		c.smartGaps = *fc.SmartGaps
	}
	if fc.FocusFollowsMouse != nil {
		c.focusFollowsMouse = *fc.FocusFollowsMouse
	}
	if c.colors == nil {
		c.colors = map[string]string{}
	}
	for k, v := range fc.Colors {
		c.colors[k] = v
	}
	if fc.Keybinds != nil {
		c.keybinds = fc.Keybinds
	}
	if fc.Buttons != nil {
		c.buttons = fc.Buttons
	}
	if fc.Rules != nil {
		c.rules = fc.Rules
	}
	if fc.SocketPath != "" {
		c.socketPath = fc.SocketPath
	}
	if fc.LogFile != "" {
		c.logFile = fc.LogFile
	}
	return c.compile()
}

// compile validates scalar settings and resolves colours to pixels.
func (c *Config) compile() error {
	mod, err := normalizeModKey(c.modKey)
	if err != nil {
		return err
	}
	c.modKey = mod

	if c.borderWidth < 0 {
		return fmt.Errorf("border_width must not be negative, got %d", c.borderWidth)
	}
	if c.snapDistance < 0 {
		return fmt.Errorf("snap_distance must not be negative, got %d", c.snapDistance)
	}
	g := c.gaps
	if g.Top < 0 || g.Bottom < 0 || g.Left < 0 || g.Right < 0 {
		return fmt.Errorf("gaps must not be negative: %+v", g)
	}

	c.pixels = make(map[string]uint32, len(c.colors))
	for name, hex := range c.colors {
		p, err := ParsePixel(hex)
		if err != nil {
			return fmt.Errorf("colors.%s: %w", name, err)
		}
		c.pixels[name] = p
	}
	for _, required := range []string{ColorBorderActive, ColorBorderInactive} {
		if _, ok := c.pixels[required]; !ok {
			return fmt.Errorf("colors.%s is required", required)
		}
	}

	for i, kb := range c.keybinds {
		if strings.TrimSpace(kb.Keys) == "" || kb.Action == "" {
			return fmt.Errorf("keybinds[%d]: keys and action are required", i)
		}
	}
	for i, b := range c.buttons {
		if strings.TrimSpace(b.Keys) == "" || b.Action == "" {
			return fmt.Errorf("buttons[%d]: keys and action are required", i)
		}
	}
	return nil
}
