package wm

import (
	"fmt"

	"pluswm/pkg/config"
	"pluswm/pkg/core"
)

// Spawner launches external programs.
type Spawner interface {
	Spawn(command string) error
}

type drag struct {
	window Window
	action ButtonAction
	button uint8
	origin Point
	start  Rect
}

// Manager applies window management operations: it mutates the registry
// and issues the matching display requests. There is exactly one per
// process, created in main and handed to the dispatcher.
type Manager struct {
	display  Display
	registry *Registry
	cfg      *config.Config
	spawner  Spawner
	log      core.Logger

	monitors []Rect
	view     uint32
	layout   Layout
	params   LayoutParams

	activePixel   uint32
	inactivePixel uint32

	drag *drag
}

// NewManager creates a manager viewing the first tag with the floating
// layout.
func NewManager(d Display, cfg *config.Config, sp Spawner, log core.Logger) *Manager {
	active, _ := cfg.ColorPixel(config.ColorBorderActive)
	inactive, _ := cfg.ColorPixel(config.ColorBorderInactive)
	return &Manager{
		display:       d,
		registry:      NewRegistry(),
		cfg:           cfg,
		spawner:       sp,
		log:           log,
		view:          tagMask(0),
		layout:        Floating{},
		params:        DefaultLayoutParams,
		activePixel:   active,
		inactivePixel: inactive,
	}
}

// SetLayout replaces the layout and re-arranges.
func (m *Manager) SetLayout(l Layout) {
	m.layout = l
	m.arrange()
}

func (m *Manager) Layout() Layout { return m.layout }

func (m *Manager) LayoutParams() LayoutParams { return m.params }

// View returns the mask of viewed tags.
func (m *Manager) View() uint32 { return m.view }

// Clients returns copies of the tracked records, newest first.
func (m *Manager) Clients() []Client { return m.registry.Clients() }

// Focused returns the focused client, if any.
func (m *Manager) Focused() (Client, bool) { return m.registry.Focused() }

// Monitors returns the known monitor rectangles.
func (m *Manager) Monitors() []Rect { return append([]Rect(nil), m.monitors...) }

// RefreshMonitors re-reads the monitor layout from the display.
func (m *Manager) RefreshMonitors() {
	mons, err := m.display.Monitors()
	if err != nil {
		m.log.Error("Failed to query monitors", err)
		return
	}
	if len(mons) == 0 {
		m.log.Warn("Display reported no monitors")
		return
	}
	m.monitors = mons
	m.log.Info("Monitors detected", "count", len(mons), "primary", mons[0].String())
	m.arrange()
}

// Adopt manages the windows that were already on screen at startup.
func (m *Manager) Adopt() error {
	ws, err := m.display.TopLevelWindows()
	if err != nil {
		return fmt.Errorf("list existing windows: %w", err)
	}
	for _, w := range ws {
		if err := m.Manage(w); err != nil {
			m.log.Warn("Failed to adopt window", "window", w, "error", err)
		}
	}
	m.log.Info("Adopted existing windows", "count", len(ws))
	return nil
}

// Manage grants a map request and starts tracking the window.
func (m *Manager) Manage(w Window) error {
	geom, err := m.display.Geometry(w)
	if err != nil {
		return fmt.Errorf("manage %#x: %w", uint32(w), err)
	}
	if _, err := m.registry.Track(w, geom.Point, geom.Size); err != nil {
		m.log.Error("Map request for a managed window", err, "window", w)
		if mapErr := m.display.MapWindow(w); mapErr != nil {
			return fmt.Errorf("map %#x: %w", uint32(w), mapErr)
		}
		return err
	}
	view := m.view
	m.registry.Update(w, func(c *Client) { c.Tags = view })

	if err := m.display.SelectClientInput(w); err != nil {
		m.log.Warn("Failed to select client input", "window", w, "error", err)
	}
	m.setBorder(w, false)
	if err := m.display.MapWindow(w); err != nil {
		return fmt.Errorf("map %#x: %w", uint32(w), err)
	}
	m.log.Debug("Managing window", "window", w, "geometry", geom.String())

	m.arrange()
	m.updateClientList()
	m.focus(w)
	return nil
}

// Unmanage stops tracking w. It reports false when w was not tracked, which
// is normal for windows the manager never took.
func (m *Manager) Unmanage(w Window) bool {
	var wasFocused bool
	if f, ok := m.registry.Focused(); ok && f.Handle() == w {
		wasFocused = true
	}
	if _, ok := m.registry.Untrack(w); !ok {
		m.log.Debug("Ignoring unmanaged window", "window", w)
		return false
	}
	if m.drag != nil && m.drag.window == w {
		m.drag = nil
	}
	m.log.Debug("Unmanaged window", "window", w)

	m.updateClientList()
	m.arrange()
	if wasFocused {
		m.focusFallback()
	}
	return true
}

// MarkMapped records the server's confirmation that w is mapped.
func (m *Manager) MarkMapped(w Window) {
	_ = m.registry.Update(w, func(c *Client) { c.Mapped = true })
}

// ConfigureRequest grants a client's geometry request. The border width of
// managed windows is always the configured one.
func (m *Manager) ConfigureRequest(req ConfigureRequest) {
	if c, ok := m.registry.Get(req.Window); ok {
		req.Mask |= ConfigBorderWidth
		req.BorderWidth = m.borderWidth(c)
		geom := req.Apply(c.Geometry())
		_ = m.registry.Reconcile(req.Window, geom)
		if c.Hidden {
			// stays off screen until its tag is viewed again
			req.Mask &^= ConfigX | ConfigY
		}
	}
	if err := m.display.ConfigureWindow(req); err != nil {
		m.log.Error("Failed to configure window", err, "window", req.Window)
	}
}

// Reconcile overwrites a record's geometry with what the server reported.
// Hidden clients are skipped, their record keeps the on-screen position.
func (m *Manager) Reconcile(ev ConfigureNotify) {
	c, ok := m.registry.Get(ev.Window)
	if !ok || c.Hidden {
		return
	}
	if c.Geometry() != ev.Geometry {
		m.log.Debug("Reconciling geometry", "window", ev.Window, "was", c.Geometry().String(), "now", ev.Geometry.String())
	}
	_ = m.registry.Reconcile(ev.Window, ev.Geometry)
}

// FocusWindow focuses a managed window and raises it. A client on tags
// that are not viewed brings its tags into view first.
func (m *Manager) FocusWindow(w Window) error {
	c, ok := m.registry.Get(w)
	if !ok {
		return fmt.Errorf("focus %#x: %w", uint32(w), ErrUnknownHandle)
	}
	if !m.visible(c) {
		if c.Tags&allTags == 0 {
			return fmt.Errorf("focus %#x: client has no tags", uint32(w))
		}
		m.view = c.Tags & allTags
		m.log.Debug("Switching view to focus window", "window", w, "view", m.view)
		m.applyVisibility()
	}
	m.focus(w)
	m.raise(w)
	return nil
}

// PointerEntered applies focus-follows-mouse.
func (m *Manager) PointerEntered(w Window) {
	if !m.registry.Contains(w) {
		return
	}
	if f, ok := m.registry.Focused(); ok && f.Handle() == w {
		return
	}
	m.focus(w)
}

func (m *Manager) focus(w Window) {
	change, err := m.registry.Focus(w)
	if err != nil {
		m.log.Error("Focus on unmanaged window", err, "window", w)
		return
	}
	if !change.Changed {
		return
	}
	if change.Previous != None {
		m.setBorder(change.Previous, false)
	}
	m.setBorder(w, true)
	if err := m.display.Focus(w); err != nil {
		m.log.Error("Failed to set input focus", err, "window", w)
	}
}

// focusFallback focuses the newest visible client, or nothing.
func (m *Manager) focusFallback() {
	if next, ok := m.registry.Next(None, 1, m.visible); ok {
		m.focus(next)
		return
	}
	if prev, ok := m.registry.ClearFocus(); ok {
		m.setBorder(prev, false)
	}
	if err := m.display.Focus(None); err != nil {
		m.log.Error("Failed to reset input focus", err)
	}
}

func (m *Manager) visible(c Client) bool {
	return c.VisibleOn(m.view)
}

func (m *Manager) raise(w Window) {
	if err := m.registry.Raise(w); err != nil {
		m.log.Error("Raise of unmanaged window", err, "window", w)
		return
	}
	if err := m.display.Raise(w); err != nil {
		m.log.Error("Failed to raise window", err, "window", w)
	}
	// oldest first so the newest always-on-top client ends up highest
	clients := m.registry.Clients()
	for i := len(clients) - 1; i >= 0; i-- {
		c := clients[i]
		if c.AlwaysOnTop && c.Handle() != w && m.visible(c) {
			if err := m.display.Raise(c.Handle()); err != nil {
				m.log.Error("Failed to raise window", err, "window", c.Handle())
			}
		}
	}
}

func (m *Manager) borderWidth(c Client) uint {
	if c.Fullscreen {
		return 0
	}
	return uint(m.cfg.BorderWidth())
}

func (m *Manager) setBorder(w Window, active bool) {
	c, ok := m.registry.Get(w)
	if !ok {
		return
	}
	pixel := m.inactivePixel
	if active {
		pixel = m.activePixel
	}
	if err := m.display.SetBorder(w, m.borderWidth(c), pixel); err != nil {
		m.log.Warn("Failed to set border", "window", w, "error", err)
	}
}

func (m *Manager) place(w Window, geom Rect) {
	if _, err := m.registry.Move(w, geom.Point); err != nil {
		m.log.Error("Move of unmanaged window", err, "window", w)
		return
	}
	_, _ = m.registry.Resize(w, geom.Size)
	if err := m.display.MoveResize(w, geom); err != nil {
		m.log.Error("Failed to move window", err, "window", w)
	}
}

func (m *Manager) updateClientList() {
	stack := m.registry.Stack()
	list := make([]Window, len(stack))
	for i, w := range stack {
		list[len(stack)-1-i] = w
	}
	if err := m.display.SetClientList(list); err != nil {
		m.log.Warn("Failed to update client list", "error", err)
	}
}

// monitorFor returns the monitor containing the centre of geom.
func (m *Manager) monitorFor(geom Rect) (int, Rect) {
	if len(m.monitors) == 0 {
		return 0, geom
	}
	center := geom.Center()
	for i, mon := range m.monitors {
		if mon.Contains(center) {
			return i, mon
		}
	}
	return 0, m.monitors[0]
}

func (m *Manager) gapArea(mon Rect) Rect {
	g := m.cfg.Gaps()
	return mon.Shrink(g.Top, g.Bottom, g.Left, g.Right)
}

// arrange runs the layout over the tiled clients of every monitor.
func (m *Manager) arrange() {
	if len(m.monitors) == 0 {
		return
	}
	tiled := make([][]Client, len(m.monitors))
	for _, c := range m.registry.Clients() {
		if c.Floating || c.Fullscreen || !m.visible(c) {
			continue
		}
		i, _ := m.monitorFor(c.Geometry())
		tiled[i] = append(tiled[i], c)
	}
	for i, mon := range m.monitors {
		if len(tiled[i]) == 0 {
			continue
		}
		area := mon
		if !m.cfg.SmartGaps() || len(tiled[i]) > 1 {
			area = m.gapArea(mon)
		}
		for w, geom := range m.layout.Arrange(area, tiled[i], m.params) {
			m.place(w, geom)
		}
	}
}

// applyVisibility moves clients off or back on screen to match the view.
func (m *Manager) applyVisibility() {
	bw := m.cfg.BorderWidth()
	for _, c := range m.registry.Clients() {
		w := c.Handle()
		show := m.visible(c)
		switch {
		case show && c.Hidden:
			_ = m.registry.Update(w, func(c *Client) { c.Hidden = false })
			if err := m.display.MoveResize(w, c.Geometry()); err != nil {
				m.log.Error("Failed to show window", err, "window", w)
			}
		case !show && !c.Hidden:
			_ = m.registry.Update(w, func(c *Client) { c.Hidden = true })
			off := Rect{Point: Point{X: -2 * (int(c.Size.Width) + 2*bw), Y: c.Position.Y}, Size: c.Size}
			if err := m.display.MoveResize(w, off); err != nil {
				m.log.Error("Failed to hide window", err, "window", w)
			}
		}
	}
	if f, ok := m.registry.Focused(); !ok || !m.visible(f) {
		m.focusFallback()
	}
	m.arrange()
}

// KillFocused closes the focused client.
func (m *Manager) KillFocused() {
	c, ok := m.registry.Focused()
	if !ok {
		m.log.Debug("No focused client to kill")
		return
	}
	if err := m.display.CloseWindow(c.Handle()); err != nil {
		m.log.Error("Failed to close window", err, "window", c.Handle())
	}
}

// ToggleFullscreenFocused flips the focused client in or out of fullscreen
// on the monitor it is on.
func (m *Manager) ToggleFullscreenFocused() {
	c, ok := m.registry.Focused()
	if !ok {
		return
	}
	w := c.Handle()
	_, mon := m.monitorFor(c.Geometry())
	change, err := m.registry.ToggleFullscreen(w, mon)
	if err != nil {
		m.log.Error("Failed to toggle fullscreen", err, "window", w)
		return
	}
	if err := m.display.SetFullscreen(w, change.Entered); err != nil {
		m.log.Warn("Failed to set fullscreen state", "window", w, "error", err)
	}
	m.setBorder(w, true)
	if err := m.display.MoveResize(w, change.Geometry); err != nil {
		m.log.Error("Failed to move window", err, "window", w)
	}
	if change.Entered {
		m.raise(w)
	} else {
		m.arrange()
	}
	m.log.Debug("Toggled fullscreen", "window", w, "fullscreen", change.Entered)
}

// Spawn launches command. Failure is logged and otherwise ignored.
func (m *Manager) Spawn(command string) {
	if err := m.spawner.Spawn(command); err != nil {
		m.log.Error("Failed to spawn command", err, "command", command)
	}
}

// StackFocus moves focus dir steps along the stack, skipping hidden
// clients.
func (m *Manager) StackFocus(dir int) {
	cur := None
	if f, ok := m.registry.Focused(); ok {
		cur = f.Handle()
	}
	next, ok := m.registry.Next(cur, dir, m.visible)
	if !ok {
		return
	}
	m.focus(next)
	m.raise(next)
}

// StackPush moves the focused client dir places along the stack.
func (m *Manager) StackPush(dir int) {
	f, ok := m.registry.Focused()
	if !ok || dir == 0 {
		return
	}
	if err := m.registry.Shift(f.Handle(), dir); err != nil {
		m.log.Error("Failed to reorder stack", err, "window", f.Handle())
		return
	}
	m.updateClientList()
	m.arrange()
}

// MakeMaster moves the focused client to the front of the stack.
func (m *Manager) MakeMaster() {
	f, ok := m.registry.Focused()
	if !ok {
		return
	}
	if err := m.registry.MoveToFront(f.Handle()); err != nil {
		m.log.Error("Failed to reorder stack", err, "window", f.Handle())
		return
	}
	m.updateClientList()
	m.arrange()
}

func (m *Manager) AdjustMasterRatio(delta float64) {
	m.params.MasterRatio = clampRatio(m.params.MasterRatio + delta)
	m.log.Debug("Master ratio changed", "ratio", m.params.MasterRatio)
	m.arrange()
}

func (m *Manager) AdjustMasterCount(delta int) {
	n := m.params.MasterCount + delta
	if n < 0 {
		n = 0
	}
	m.params.MasterCount = n
	m.log.Debug("Master count changed", "count", n)
	m.arrange()
}

// TagView shows only tag i.
func (m *Manager) TagView(i uint) {
	mask := tagMask(i)
	if mask&allTags == 0 || mask == m.view {
		return
	}
	m.view = mask
	m.applyVisibility()
}

// TagToggle adds or removes tag i from the view. The last viewed tag cannot
// be removed.
func (m *Manager) TagToggle(i uint) {
	view := (m.view ^ tagMask(i)) & allTags
	if view == 0 || view == m.view {
		return
	}
	m.view = view
	m.applyVisibility()
}

// TagMoveTo puts the focused client on tag i only.
func (m *Manager) TagMoveTo(i uint) {
	f, ok := m.registry.Focused()
	mask := tagMask(i)
	if !ok || mask&allTags == 0 {
		return
	}
	_ = m.registry.Update(f.Handle(), func(c *Client) { c.Tags = mask })
	m.applyVisibility()
}

func (m *Manager) ToggleFloat() {
	f, ok := m.registry.Focused()
	if !ok {
		return
	}
	_ = m.registry.Update(f.Handle(), func(c *Client) { c.Floating = !c.Floating })
	m.arrange()
}

func (m *Manager) ToggleAlwaysOnTop() {
	f, ok := m.registry.Focused()
	if !ok {
		return
	}
	_ = m.registry.Update(f.Handle(), func(c *Client) { c.AlwaysOnTop = !c.AlwaysOnTop })
	if !f.AlwaysOnTop {
		m.raise(f.Handle())
	}
}

func (m *Manager) ToggleSticky() {
	f, ok := m.registry.Focused()
	if !ok {
		return
	}
	_ = m.registry.Update(f.Handle(), func(c *Client) { c.Sticky = !c.Sticky })
	m.applyVisibility()
}

// BeginDrag starts a pointer move or resize of w.
func (m *Manager) BeginDrag(action ButtonAction, button uint8, w Window, at Point) {
	c, ok := m.registry.Get(w)
	if !ok || c.Fullscreen {
		return
	}
	m.focus(w)
	m.raise(w)
	if !c.Floating {
		_ = m.registry.Update(w, func(c *Client) { c.Floating = true })
		m.arrange()
	}
	m.drag = &drag{window: w, action: action, button: button, origin: at, start: c.Geometry()}
	m.log.Debug("Drag started", "window", w, "action", action.String())
}

// Dragging reports whether a pointer drag is in progress.
func (m *Manager) Dragging() bool { return m.drag != nil }

// DragTo follows the pointer during a drag.
func (m *Manager) DragTo(at Point) {
	d := m.drag
	if d == nil {
		return
	}
	dx, dy := at.X-d.origin.X, at.Y-d.origin.Y
	geom := d.start
	switch d.action {
	case ButtonMove:
		geom.X += dx
		geom.Y += dy
		_, mon := m.monitorFor(geom)
		area := m.gapArea(mon)
		bw := m.cfg.BorderWidth()
		dist := m.cfg.SnapDistance()
		geom.X += snapOffset(geom.X, geom.X+int(geom.Width)+2*bw, area.X, area.X+int(area.Width), dist)
		geom.Y += snapOffset(geom.Y, geom.Y+int(geom.Height)+2*bw, area.Y, area.Y+int(area.Height), dist)
	case ButtonResize:
		w, h := int(d.start.Width)+dx, int(d.start.Height)+dy
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		geom.Width, geom.Height = uint(w), uint(h)
	}
	m.place(d.window, geom)
}

// EndDrag finishes the drag started with button.
func (m *Manager) EndDrag(button uint8) {
	if m.drag != nil && m.drag.button == button {
		m.log.Debug("Drag finished", "window", m.drag.window)
		m.drag = nil
	}
}
