package wm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"pluswm/pkg/config"
)

type border struct {
	width uint
	pixel uint32
}

// fakeDisplay records every request and replays a fixed event queue.
type fakeDisplay struct {
	geoms    map[Window]Rect
	monitors []Rect
	topLevel []Window
	events   []Event

	becomeErr error
	panicOn   Window

	mapped      []Window
	selected    []Window
	borders     map[Window]border
	moves       map[Window]Rect
	configured  []ConfigureRequest
	raised      []Window
	fullscreen  map[Window]bool
	focus       Window
	focusCalls  int
	closed      []Window
	clientList  []Window
	keys        []KeyBinding
	buttons     []ButtonBinding
	managerTook bool
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		geoms:      map[Window]Rect{},
		monitors:   []Rect{{Size: Size{Width: 1920, Height: 1080}}},
		borders:    map[Window]border{},
		moves:      map[Window]Rect{},
		fullscreen: map[Window]bool{},
	}
}

func (d *fakeDisplay) BecomeManager() error {
	if d.becomeErr != nil {
		return d.becomeErr
	}
	d.managerTook = true
	return nil
}

func (d *fakeDisplay) Monitors() ([]Rect, error) { return d.monitors, nil }

func (d *fakeDisplay) NumLockMask() uint16 { return Mod2 }

func (d *fakeDisplay) GrabKeys(keys []KeyBinding) error {
	d.keys = keys
	return nil
}

func (d *fakeDisplay) GrabButtons(buttons []ButtonBinding) error {
	d.buttons = buttons
	return nil
}

func (d *fakeDisplay) TopLevelWindows() ([]Window, error) { return d.topLevel, nil }

func (d *fakeDisplay) NextEvent() (Event, error) {
	if len(d.events) == 0 {
		return nil, ErrClosed
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, nil
}

func (d *fakeDisplay) Inject(ev Event) { d.events = append(d.events, ev) }

func (d *fakeDisplay) Geometry(w Window) (Rect, error) {
	if w == d.panicOn && w != None {
		panic("geometry exploded")
	}
	g, ok := d.geoms[w]
	if !ok {
		return Rect{}, errors.New("BadWindow")
	}
	return g, nil
}

func (d *fakeDisplay) SelectClientInput(w Window) error {
	d.selected = append(d.selected, w)
	return nil
}

func (d *fakeDisplay) MapWindow(w Window) error {
	d.mapped = append(d.mapped, w)
	return nil
}

func (d *fakeDisplay) MoveResize(w Window, geom Rect) error {
	d.moves[w] = geom
	return nil
}

func (d *fakeDisplay) ConfigureWindow(req ConfigureRequest) error {
	d.configured = append(d.configured, req)
	return nil
}

func (d *fakeDisplay) Raise(w Window) error {
	d.raised = append(d.raised, w)
	return nil
}

func (d *fakeDisplay) SetBorder(w Window, width uint, pixel uint32) error {
	d.borders[w] = border{width: width, pixel: pixel}
	return nil
}

func (d *fakeDisplay) SetFullscreen(w Window, on bool) error {
	d.fullscreen[w] = on
	return nil
}

func (d *fakeDisplay) Focus(w Window) error {
	d.focus = w
	d.focusCalls++
	return nil
}

func (d *fakeDisplay) CloseWindow(w Window) error {
	d.closed = append(d.closed, w)
	return nil
}

func (d *fakeDisplay) SetClientList(ws []Window) error {
	d.clientList = append([]Window(nil), ws...)
	return nil
}

func (d *fakeDisplay) Close() error { return nil }

type fakeSpawner struct {
	commands []string
	err      error
}

func (s *fakeSpawner) Spawn(command string) error {
	s.commands = append(s.commands, command)
	return s.err
}

type logEntry struct {
	level string
	msg   string
	err   error
}

// recordingLogger keeps every entry for assertions.
type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) {
	l.entries = append(l.entries, logEntry{level: "debug", msg: msg})
}

func (l *recordingLogger) Info(msg string, _ ...interface{}) {
	l.entries = append(l.entries, logEntry{level: "info", msg: msg})
}

func (l *recordingLogger) Warn(msg string, _ ...interface{}) {
	l.entries = append(l.entries, logEntry{level: "warn", msg: msg})
}

func (l *recordingLogger) Error(msg string, err error, _ ...interface{}) {
	l.entries = append(l.entries, logEntry{level: "error", msg: msg, err: err})
}

func (l *recordingLogger) has(level, msg string) bool {
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

func (l *recordingLogger) String() string {
	return fmt.Sprintf("%+v", l.entries)
}

const (
	activePixel   uint32 = 0x689d6a
	inactivePixel uint32 = 0x1d2021
)

type harness struct {
	display *fakeDisplay
	spawner *fakeSpawner
	log     *recordingLogger
	manager *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg, err := config.DefaultConfig()
	require.NoError(t, err)

	h := &harness{
		display: newFakeDisplay(),
		spawner: &fakeSpawner{},
		log:     &recordingLogger{},
	}
	h.manager = NewManager(h.display, cfg, h.spawner, h.log)
	h.manager.RefreshMonitors()
	return h
}

// manage registers geometry for w and runs a map request through the manager.
func (h *harness) manage(t *testing.T, w Window, geom Rect) {
	t.Helper()
	h.display.geoms[w] = geom
	require.NoError(t, h.manager.Manage(w))
}

func rect(x, y int, w, h uint) Rect {
	return Rect{Point: Point{X: x, Y: y}, Size: Size{Width: w, Height: h}}
}
