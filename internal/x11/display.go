// Package x11 implements the window manager's display boundary on top of
// the X protocol.
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	xgbxinerama "github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xwindow"

	"pluswm/internal/wm"
	"pluswm/pkg/core"
)

// WMName is advertised through _NET_WM_NAME on the check window.
const WMName = "pluswm"

const rootEventMask = xproto.EventMaskSubstructureRedirect |
	xproto.EventMaskSubstructureNotify |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskPropertyChange

const clientEventMask = xproto.EventMaskEnterWindow |
	xproto.EventMaskPropertyChange |
	xproto.EventMaskFocusChange

// queued is one entry of the event queue: a raw X event or error from the
// connection, or an event injected by another goroutine.
type queued struct {
	event    xgb.Event
	xerr     xgb.Error
	injected wm.Event
	closed   bool
}

var _ wm.Display = (*Display)(nil)

// Display is a connection to an X server acting as window manager.
type Display struct {
	X    *xgbutil.XUtil
	root xproto.Window
	log  core.Logger

	queue     chan queued
	done      chan struct{}
	closeOnce sync.Once

	atoms   atoms
	numLock uint16
	keys    []wm.KeyBinding

	checkWin     *xwindow.Window
	cursorNormal xproto.Cursor
	cursorMove   xproto.Cursor
	hasXinerama  bool
}

// Open connects to the display named by displayName, or $DISPLAY when
// empty.
func Open(displayName string, log core.Logger) (*Display, error) {
	X, err := xgbutil.NewConnDisplay(displayName)
	if err != nil {
		return nil, fmt.Errorf("connect to display %q: %w", displayName, err)
	}

	d := &Display{
		X:     X,
		root:  X.RootWin(),
		log:   log,
		queue: make(chan queued, 256),
		done:  make(chan struct{}),
	}

	if err := xgbxinerama.Init(X.Conn()); err != nil {
		log.Warn("Xinerama unavailable, using root geometry", "error", err)
	} else {
		d.hasXinerama = true
	}

	keybind.Initialize(X)
	d.numLock = d.findNumLock()
	useNumLock(d.numLock)

	if d.atoms, err = internAtoms(X); err != nil {
		X.Conn().Close()
		return nil, err
	}

	log.Info("Connected to display",
		"display", displayName,
		"root", fmt.Sprintf("%#x", uint32(d.root)),
		"numlock_mask", d.numLock)
	return d, nil
}

// BecomeManager asks for substructure redirection on the root window. The
// request is checked, so the reply (or the access error raised when another
// manager holds the redirection) is received before anything else happens.
func (d *Display) BecomeManager() error {
	err := xproto.ChangeWindowAttributesChecked(d.X.Conn(), d.root,
		xproto.CwEventMask, []uint32{rootEventMask}).Check()
	if err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return fmt.Errorf("select substructure redirect: %w", wm.ErrAnotherWM)
		}
		return fmt.Errorf("select substructure redirect: %w", err)
	}

	if err := d.setupCursors(); err != nil {
		d.log.Warn("Failed to create cursors", "error", err)
	}
	if err := d.setupEWMH(); err != nil {
		d.log.Warn("Failed to set up EWMH properties", "error", err)
	}

	// from here on errors of unchecked requests arrive as events
	go d.pump()
	return nil
}

func (d *Display) setupCursors() error {
	var err error
	if d.cursorNormal, err = xcursor.CreateCursor(d.X, xcursor.LeftPtr); err != nil {
		return err
	}
	if d.cursorMove, err = xcursor.CreateCursor(d.X, xcursor.Fleur); err != nil {
		return err
	}
	return xproto.ChangeWindowAttributesChecked(d.X.Conn(), d.root,
		xproto.CwCursor, []uint32{uint32(d.cursorNormal)}).Check()
}

func (d *Display) setupEWMH() error {
	win, err := xwindow.Create(d.X, d.root)
	if err != nil {
		return fmt.Errorf("create check window: %w", err)
	}
	d.checkWin = win

	if err := ewmh.SupportingWmCheckSet(d.X, d.root, win.Id); err != nil {
		return err
	}
	if err := ewmh.SupportingWmCheckSet(d.X, win.Id, win.Id); err != nil {
		return err
	}
	if err := ewmh.WmNameSet(d.X, win.Id, WMName); err != nil {
		return err
	}
	if err := ewmh.SupportedSet(d.X, supportedHints); err != nil {
		return err
	}
	if err := ewmh.ClientListSet(d.X, nil); err != nil {
		return err
	}
	return ewmh.ActiveWindowSet(d.X, 0)
}

func (d *Display) pump() {
	for {
		ev, xerr := d.X.Conn().WaitForEvent()
		item := queued{event: ev, xerr: xerr, closed: ev == nil && xerr == nil}
		select {
		case d.queue <- item:
		case <-d.done:
			return
		}
		if item.closed {
			return
		}
	}
}

// Inject queues ev behind the events already received. It is safe to call
// from any goroutine.
func (d *Display) Inject(ev wm.Event) {
	select {
	case d.queue <- queued{injected: ev}:
	case <-d.done:
	}
}

// NextEvent returns the next event the window manager cares about. Raw
// events are translated here, on the caller's goroutine, so keyboard map
// lookups never race with MappingNotify handling.
func (d *Display) NextEvent() (wm.Event, error) {
	for {
		var item queued
		select {
		case item = <-d.queue:
		case <-d.done:
			return nil, wm.ErrClosed
		}
		switch {
		case item.closed:
			return nil, wm.ErrClosed
		case item.injected != nil:
			return item.injected, nil
		case item.xerr != nil:
			return translateError(item.xerr), nil
		}
		if ev := d.translate(item.event); ev != nil {
			return ev, nil
		}
	}
}

func (d *Display) translate(event xgb.Event) wm.Event {
	switch e := event.(type) {
	case xproto.CreateNotifyEvent:
		return wm.CreateNotify{Window: wm.Window(e.Window), OverrideRedirect: e.OverrideRedirect}
	case xproto.MapRequestEvent:
		return wm.MapRequest{Window: wm.Window(e.Window)}
	case xproto.MapNotifyEvent:
		return wm.MapNotify{Window: wm.Window(e.Window), OverrideRedirect: e.OverrideRedirect}
	case xproto.UnmapNotifyEvent:
		return wm.UnmapNotify{Window: wm.Window(e.Window)}
	case xproto.DestroyNotifyEvent:
		return wm.DestroyNotify{Window: wm.Window(e.Window)}
	case xproto.ConfigureRequestEvent:
		return wm.ConfigureRequest{
			Window:      wm.Window(e.Window),
			Mask:        e.ValueMask,
			Geometry:    rect(e.X, e.Y, e.Width, e.Height),
			BorderWidth: uint(e.BorderWidth),
			Sibling:     wm.Window(e.Sibling),
			StackMode:   e.StackMode,
		}
	case xproto.ConfigureNotifyEvent:
		if e.Window == d.root {
			return wm.ScreenChange{Size: wm.Size{Width: uint(e.Width), Height: uint(e.Height)}}
		}
		return wm.ConfigureNotify{
			Window:           wm.Window(e.Window),
			Geometry:         rect(e.X, e.Y, e.Width, e.Height),
			OverrideRedirect: e.OverrideRedirect,
		}
	case xproto.KeyPressEvent:
		sym := keybind.KeysymGet(d.X, e.Detail, 0)
		return wm.KeyPress{Window: wm.Window(e.Event), State: e.State, Keysym: wm.Keysym(sym)}
	case xproto.ButtonPressEvent:
		return wm.ButtonPress{
			Child:  wm.Window(e.Child),
			Button: uint8(e.Detail),
			State:  e.State,
			Root:   wm.Point{X: int(e.RootX), Y: int(e.RootY)},
		}
	case xproto.ButtonReleaseEvent:
		return wm.ButtonRelease{Button: uint8(e.Detail), Root: wm.Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.MotionNotifyEvent:
		return wm.MotionNotify{State: e.State, Root: wm.Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.EnterNotifyEvent:
		if e.Mode != xproto.NotifyModeNormal {
			return nil
		}
		return wm.EnterNotify{Window: wm.Window(e.Event), Root: wm.Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.MappingNotifyEvent:
		d.refreshKeyboard(e)
		return nil
	}
	return nil
}

func rect(x, y int16, w, h uint16) wm.Rect {
	return wm.Rect{
		Point: wm.Point{X: int(x), Y: int(y)},
		Size:  wm.Size{Width: uint(w), Height: uint(h)},
	}
}

// Close releases cursors and the check window and closes the connection.
func (d *Display) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		conn := d.X.Conn()
		if d.checkWin != nil {
			d.checkWin.Destroy()
		}
		for _, c := range []xproto.Cursor{d.cursorNormal, d.cursorMove} {
			if c != 0 {
				xproto.FreeCursor(conn, c)
			}
		}
		xproto.ChangeWindowAttributes(conn, d.root, xproto.CwEventMask, []uint32{xproto.EventMaskNoEvent})
		// round trip so the requests above are flushed before closing
		_, _ = xproto.GetInputFocus(conn).Reply()
		conn.Close()
	})
	return nil
}
