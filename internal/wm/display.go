package wm

import (
	"errors"
	"fmt"
)

var (
	// ErrAnotherWM is returned by BecomeManager when another window manager
	// already controls the display.
	ErrAnotherWM = errors.New("another window manager is already running")
	// ErrClosed is returned by NextEvent once the connection is gone.
	ErrClosed = errors.New("display connection closed")
)

// Display is everything the manager needs from the display server. All
// methods except Inject are called from the dispatcher goroutine only.
type Display interface {
	// BecomeManager selects substructure redirection on the root window and
	// waits for the server to answer, so a competing manager is reported as
	// ErrAnotherWM before any steady-state error handling is in place.
	BecomeManager() error
	Monitors() ([]Rect, error)
	// NumLockMask is the modifier bit Num Lock is mapped to.
	NumLockMask() uint16
	GrabKeys(keys []KeyBinding) error
	GrabButtons(buttons []ButtonBinding) error
	// TopLevelWindows lists viewable, non override-redirect children of
	// the root window that existed before the manager started.
	TopLevelWindows() ([]Window, error)

	// NextEvent blocks until the next event. It returns ErrClosed when the
	// connection has shut down.
	NextEvent() (Event, error)
	// Inject queues an event from any goroutine.
	Inject(ev Event)

	Geometry(w Window) (Rect, error)
	// SelectClientInput subscribes to enter and structure events of w.
	SelectClientInput(w Window) error
	// MapWindow maps w and marks it as being in the normal state.
	MapWindow(w Window) error
	MoveResize(w Window, geom Rect) error
	// ConfigureWindow grants a configure request.
	ConfigureWindow(req ConfigureRequest) error
	Raise(w Window) error
	SetBorder(w Window, width uint, pixel uint32) error
	SetFullscreen(w Window, on bool) error
	// Focus gives input focus to w, or to the root window for None, and
	// updates the active window property.
	Focus(w Window) error
	// CloseWindow asks w to close when it supports the delete protocol and
	// kills its client otherwise.
	CloseWindow(w Window) error
	SetClientList(ws []Window) error

	Close() error
}

// Event is one item from the display's event queue.
type Event interface{}

// CreateNotify reports a new window. It is informational only.
type CreateNotify struct {
	Window           Window
	OverrideRedirect bool
}

type MapRequest struct {
	Window Window
}

type MapNotify struct {
	Window           Window
	OverrideRedirect bool
}

type UnmapNotify struct {
	Window Window
}

type DestroyNotify struct {
	Window Window
}

// Configure value-mask bits, as sent in ConfigureRequest.
const (
	ConfigX uint16 = 1 << iota
	ConfigY
	ConfigWidth
	ConfigHeight
	ConfigBorderWidth
	ConfigSibling
	ConfigStackMode
)

// ConfigureRequest is a client asking for new geometry or stacking. Only the
// fields named in Mask are meaningful.
type ConfigureRequest struct {
	Window      Window
	Mask        uint16
	Geometry    Rect
	BorderWidth uint
	Sibling     Window
	StackMode   uint8
}

// Apply overlays the requested fields on geom.
func (r ConfigureRequest) Apply(geom Rect) Rect {
	if r.Mask&ConfigX != 0 {
		geom.X = r.Geometry.X
	}
	if r.Mask&ConfigY != 0 {
		geom.Y = r.Geometry.Y
	}
	if r.Mask&ConfigWidth != 0 {
		geom.Width = r.Geometry.Width
	}
	if r.Mask&ConfigHeight != 0 {
		geom.Height = r.Geometry.Height
	}
	return geom
}

// ConfigureNotify is the server's confirmation of a window's geometry.
type ConfigureNotify struct {
	Window           Window
	Geometry         Rect
	OverrideRedirect bool
}

type KeyPress struct {
	Window Window
	State  uint16
	Keysym Keysym
}

type ButtonPress struct {
	// Child is the client window under the pointer, None over the root.
	Child  Window
	Button uint8
	State  uint16
	Root   Point
}

type ButtonRelease struct {
	Button uint8
	Root   Point
}

type MotionNotify struct {
	State uint16
	Root  Point
}

type EnterNotify struct {
	Window Window
	Root   Point
}

// ProtocolError is an asynchronous error reported by the server.
type ProtocolError struct {
	Request  string
	Code     string
	Resource uint32
	Sequence uint16
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s (resource %#x, sequence %d)", e.Request, e.Code, e.Resource, e.Sequence)
}

// Command is a request from the control socket. The result is sent on Reply,
// which must be buffered.
type Command struct {
	Name  string
	Args  []string
	Reply chan<- CommandResult
}

type CommandResult struct {
	Message string
	Clients []Client
	Err     error
}

// ScreenChange reports a new root window size, after a monitor was added,
// removed or reconfigured.
type ScreenChange struct {
	Size Size
}

// Shutdown makes the dispatcher return.
type Shutdown struct {
	Reason string
}
