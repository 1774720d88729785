package wm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pluswm/pkg/core"
)

// Dispatcher is the event loop. It pulls one event at a time from the
// display and routes it to the manager or the bound action; nothing else
// touches the manager while it runs.
type Dispatcher struct {
	display  Display
	manager  *Manager
	table    *ActionTable
	resolver *KeyBindingResolver
	log      core.Logger

	focusFollowsMouse bool
}

// NewDispatcher wires the loop together.
func NewDispatcher(d Display, m *Manager, table *ActionTable, resolver *KeyBindingResolver, log core.Logger) *Dispatcher {
	return &Dispatcher{
		display:           d,
		manager:           m,
		table:             table,
		resolver:          resolver,
		log:               log,
		focusFollowsMouse: m.cfg.FocusFollowsMouse(),
	}
}

// Setup takes control of the display. It fails with ErrAnotherWM when
// another manager owns it; in that case nothing else has been changed.
func (d *Dispatcher) Setup() error {
	if err := d.display.BecomeManager(); err != nil {
		return err
	}
	d.log.Info("Took control of the display")

	d.manager.RefreshMonitors()
	if err := d.display.GrabKeys(d.resolver.Keys()); err != nil {
		return fmt.Errorf("grab keys: %w", err)
	}
	if err := d.display.GrabButtons(d.resolver.Buttons()); err != nil {
		return fmt.Errorf("grab buttons: %w", err)
	}
	if err := d.manager.Adopt(); err != nil {
		d.log.Warn("Failed to adopt existing windows", "error", err)
	}
	return nil
}

// Run processes events until a Shutdown event arrives or the connection
// goes away.
func (d *Dispatcher) Run() error {
	d.log.Info("Event loop started")
	for {
		ev, err := d.display.NextEvent()
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			return fmt.Errorf("next event: %w", err)
		}
		if d.Dispatch(ev) {
			d.log.Info("Event loop stopped")
			return nil
		}
	}
}

// Dispatch handles one event and reports whether the loop should stop. A
// panic in a handler is logged and swallowed.
func (d *Dispatcher) Dispatch(ev Event) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Event handler panicked", fmt.Errorf("%v", r), "event", fmt.Sprintf("%T", ev))
			stop = false
		}
	}()

	switch e := ev.(type) {
	case CreateNotify:
		d.log.Debug("Window created", "window", e.Window, "override_redirect", e.OverrideRedirect)
	case MapRequest:
		if err := d.manager.Manage(e.Window); err != nil {
			d.log.Error("Failed to manage window", err, "window", e.Window)
		}
	case MapNotify:
		d.manager.MarkMapped(e.Window)
	case UnmapNotify:
		d.manager.Unmanage(e.Window)
	case DestroyNotify:
		// only still tracked if it was destroyed before it was ever mapped
		if d.manager.Unmanage(e.Window) {
			d.log.Debug("Window destroyed without unmap", "window", e.Window)
		}
	case ConfigureRequest:
		d.manager.ConfigureRequest(e)
	case ConfigureNotify:
		d.manager.Reconcile(e)
	case KeyPress:
		action, ok := d.resolver.Resolve(e.State, e.Keysym)
		if !ok {
			return false
		}
		d.log.Debug("Key binding matched", "action", action.String())
		action.Invoke(d.manager)
	case ButtonPress:
		kind, ok := d.resolver.ResolveButton(e.State, e.Button)
		if !ok {
			return false
		}
		d.manager.BeginDrag(kind, e.Button, e.Child, e.Root)
	case MotionNotify:
		d.manager.DragTo(e.Root)
	case ButtonRelease:
		d.manager.EndDrag(e.Button)
	case EnterNotify:
		if d.focusFollowsMouse && !d.manager.Dragging() {
			d.manager.PointerEntered(e.Window)
		}
	case ScreenChange:
		d.log.Info("Screen changed", "size", e.Size.String())
		d.manager.RefreshMonitors()
	case ProtocolError:
		d.log.Error("Protocol error", e,
			"request", e.Request,
			"code", e.Code,
			"resource", fmt.Sprintf("%#x", e.Resource))
	case Command:
		d.reply(e, d.command(e))
	case Shutdown:
		d.log.Info("Shutting down", "reason", e.Reason)
		return true
	default:
		d.log.Debug("Ignoring event", "event", fmt.Sprintf("%T", ev))
	}
	return false
}

func (d *Dispatcher) reply(cmd Command, res CommandResult) {
	if cmd.Reply == nil {
		return
	}
	select {
	case cmd.Reply <- res:
	default:
		d.log.Warn("Dropped command reply", "command", cmd.Name)
	}
}

func (d *Dispatcher) command(cmd Command) CommandResult {
	d.log.Debug("Control command", "command", cmd.Name, "args", strings.Join(cmd.Args, " "))
	switch cmd.Name {
	case "clients":
		return CommandResult{Clients: d.manager.Clients()}
	case "action":
		if len(cmd.Args) == 0 {
			return CommandResult{Err: errors.New("action: missing action name")}
		}
		name := cmd.Args[0]
		kind, ok := d.table.Kind(name)
		if !ok {
			return CommandResult{Err: fmt.Errorf("unknown action %q", name)}
		}
		arg := strings.Join(cmd.Args[1:], " ")
		p, err := ParamFromString(kind, arg, len(cmd.Args) > 1)
		if err != nil {
			return CommandResult{Err: fmt.Errorf("action %q %w", name, err)}
		}
		action, err := d.table.Bind(name, p)
		if err != nil {
			return CommandResult{Err: err}
		}
		action.Invoke(d.manager)
		return CommandResult{Message: action.String()}
	case "focus":
		if len(cmd.Args) != 1 {
			return CommandResult{Err: errors.New("focus: want exactly one window id")}
		}
		n, err := strconv.ParseUint(cmd.Args[0], 0, 32)
		if err != nil {
			return CommandResult{Err: fmt.Errorf("focus: bad window id %q", cmd.Args[0])}
		}
		if err := d.manager.FocusWindow(Window(n)); err != nil {
			return CommandResult{Err: err}
		}
		return CommandResult{Message: fmt.Sprintf("focused %#x", n)}
	}
	return CommandResult{Err: fmt.Errorf("unknown command %q", cmd.Name)}
}
