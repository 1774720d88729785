package wm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	xkQ Keysym = 'q'
	xkZ Keysym = 'z'
	xkF Keysym = 'f'
	xkP Keysym = 'p'
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *harness) {
	t.Helper()
	h := newHarness(t)
	table := NewActionTable()
	keys, buttons, err := CompileBindings(h.manager.cfg, table)
	require.NoError(t, err)
	resolver := NewKeyBindingResolver(keys, buttons, h.display.NumLockMask)
	return NewDispatcher(h.display, h.manager, table, resolver, h.log), h
}

func TestSetupReportsAnotherWindowManager(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.becomeErr = fmt.Errorf("select root events: %w", ErrAnotherWM)

	err := d.Setup()
	assert.ErrorIs(t, err, ErrAnotherWM)
	assert.Nil(t, h.display.keys, "nothing is grabbed once another manager is detected")
	assert.Nil(t, h.display.buttons)
}

func TestSetupGrabsBindingsAndAdopts(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.topLevel = []Window{9}
	h.display.geoms[9] = rect(0, 0, 50, 50)

	require.NoError(t, d.Setup())
	assert.True(t, h.display.managerTook)
	require.Len(t, h.display.keys, 3)
	assert.Equal(t, "p", h.display.keys[0].Key)
	assert.Equal(t, []ButtonBinding{{Mods: Mod1, Button: 1, Action: ButtonMove}}, h.display.buttons)
	assert.True(t, h.manager.registry.Contains(9))
}

func TestRunStopsOnShutdown(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.geoms[1] = rect(0, 0, 100, 100)
	h.display.events = []Event{
		CreateNotify{Window: 1},
		MapRequest{Window: 1},
		MapNotify{Window: 1},
		KeyPress{State: Mod1 | ModLock, Keysym: xkQ},
		Shutdown{Reason: "signal"},
		UnmapNotify{Window: 1},
	}

	require.NoError(t, d.Run())
	assert.Equal(t, []Window{1}, h.display.closed)
	c, ok := h.manager.registry.Get(1)
	require.True(t, ok, "events after shutdown are not processed")
	assert.True(t, c.Mapped)
	assert.Len(t, h.display.events, 1)
}

func TestRunReturnsWhenConnectionCloses(t *testing.T) {
	d, _ := newTestDispatcher(t)
	err := d.Run()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUnmapUntracksAndDestroyIsIdempotent(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.geoms[1] = rect(0, 0, 100, 100)

	d.Dispatch(MapRequest{Window: 1})
	d.Dispatch(UnmapNotify{Window: 1})
	assert.False(t, h.manager.registry.Contains(1))

	d.Dispatch(DestroyNotify{Window: 1})
	d.Dispatch(UnmapNotify{Window: 400})
	assert.False(t, h.log.has("debug", "Window destroyed without unmap"))

	d.Dispatch(MapRequest{Window: 1})
	d.Dispatch(DestroyNotify{Window: 1})
	assert.False(t, h.manager.registry.Contains(1))
	assert.True(t, h.log.has("debug", "Window destroyed without unmap"))
}

func TestKeyPressWithoutBindingIsIgnored(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.geoms[1] = rect(0, 0, 100, 100)
	d.Dispatch(MapRequest{Window: 1})

	assert.False(t, d.Dispatch(KeyPress{State: Mod1, Keysym: xkZ}))
	assert.False(t, d.Dispatch(KeyPress{State: Mod4, Keysym: xkQ}))
	assert.Empty(t, h.display.closed)

	d.Dispatch(KeyPress{State: Mod1 | Mod2, Keysym: xkF})
	c, _ := h.manager.registry.Get(1)
	assert.True(t, c.Fullscreen)

	d.Dispatch(KeyPress{State: Mod1, Keysym: xkP})
	assert.Equal(t, []string{"echo"}, h.spawner.commands)
}

func TestEnterNotifyFocusFollowsMouse(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.geoms[1] = rect(0, 0, 100, 100)
	h.display.geoms[2] = rect(0, 0, 100, 100)
	d.Dispatch(MapRequest{Window: 1})
	d.Dispatch(MapRequest{Window: 2})

	d.Dispatch(EnterNotify{Window: 1})
	assert.Equal(t, Window(1), h.display.focus)

	// no focus changes while dragging
	d.Dispatch(ButtonPress{Child: 1, Button: 1, State: Mod1, Root: Point{X: 10, Y: 10}})
	require.True(t, h.manager.Dragging())
	d.Dispatch(EnterNotify{Window: 2})
	assert.Equal(t, Window(1), h.display.focus)

	d.Dispatch(MotionNotify{State: Mod1, Root: Point{X: 210, Y: 310}})
	assert.Equal(t, rect(200, 300, 100, 100), h.display.moves[1])
	d.Dispatch(ButtonRelease{Button: 1})
	assert.False(t, h.manager.Dragging())

	d.Dispatch(ButtonPress{Child: 2, Button: 3, State: Mod1})
	assert.False(t, h.manager.Dragging(), "button 3 is not bound")
}

func TestProtocolErrorIsLoggedAndLoopContinues(t *testing.T) {
	d, h := newTestDispatcher(t)
	stop := d.Dispatch(ProtocolError{Request: "ConfigureWindow", Code: "BadWindow", Resource: 0x400001, Sequence: 7})
	assert.False(t, stop)
	require.True(t, h.log.has("error", "Protocol error"))

	var logged error
	for _, e := range h.log.entries {
		if e.msg == "Protocol error" {
			logged = e.err
		}
	}
	assert.EqualError(t, logged, "ConfigureWindow failed: BadWindow (resource 0x400001, sequence 7)")
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.panicOn = 13

	assert.False(t, d.Dispatch(MapRequest{Window: 13}))
	assert.True(t, h.log.has("error", "Event handler panicked"))

	h.display.geoms[14] = rect(0, 0, 10, 10)
	d.Dispatch(MapRequest{Window: 14})
	assert.True(t, h.manager.registry.Contains(14))
}

func runCommand(d *Dispatcher, name string, args ...string) CommandResult {
	reply := make(chan CommandResult, 1)
	d.Dispatch(Command{Name: name, Args: args, Reply: reply})
	return <-reply
}

func TestControlCommands(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.geoms[1] = rect(0, 0, 100, 100)
	h.display.geoms[2] = rect(0, 0, 100, 100)
	d.Dispatch(MapRequest{Window: 1})
	d.Dispatch(MapRequest{Window: 2})

	res := runCommand(d, "clients")
	require.NoError(t, res.Err)
	require.Len(t, res.Clients, 2)
	assert.Equal(t, Window(2), res.Clients[0].Handle())

	res = runCommand(d, "action", "spawn", "xterm", "-e", "top")
	require.NoError(t, res.Err)
	assert.Equal(t, `spawn("xterm -e top")`, res.Message)
	assert.Equal(t, []string{"xterm -e top"}, h.spawner.commands)

	res = runCommand(d, "action", "tag_view", "2")
	require.NoError(t, res.Err)
	assert.Equal(t, uint32(4), h.manager.View())

	res = runCommand(d, "action", "tag_view", "9")
	assert.Error(t, res.Err)
	res = runCommand(d, "action", "kill_client", "now")
	assert.Error(t, res.Err)
	res = runCommand(d, "action", "inc_master_size")
	assert.Error(t, res.Err)
	res = runCommand(d, "action", "warp")
	assert.Error(t, res.Err)
	res = runCommand(d, "action")
	assert.Error(t, res.Err)

	res = runCommand(d, "action", "tag_view", "0")
	require.NoError(t, res.Err)
	res = runCommand(d, "focus", "0x1")
	require.NoError(t, res.Err)
	assert.Equal(t, Window(1), h.display.focus)

	res = runCommand(d, "focus", "0x99")
	assert.True(t, errors.Is(res.Err, ErrUnknownHandle))
	res = runCommand(d, "focus", "abc")
	assert.Error(t, res.Err)

	res = runCommand(d, "reboot")
	assert.EqualError(t, res.Err, `unknown command "reboot"`)
}

func TestCommandReplyNeverBlocks(t *testing.T) {
	d, h := newTestDispatcher(t)
	reply := make(chan CommandResult)
	assert.False(t, d.Dispatch(Command{Name: "clients", Reply: reply}))
	assert.True(t, h.log.has("warn", "Dropped command reply"))

	assert.False(t, d.Dispatch(Command{Name: "clients"}))
}

func TestScreenChangeRereadsMonitors(t *testing.T) {
	d, h := newTestDispatcher(t)
	h.display.monitors = []Rect{rect(0, 0, 1920, 1080), rect(1920, 0, 1280, 1024)}

	assert.False(t, d.Dispatch(ScreenChange{Size: Size{Width: 3200, Height: 1080}}))
	assert.Equal(t, h.display.monitors, h.manager.Monitors())
	assert.True(t, h.log.has("info", "Screen changed"))
}
