package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xinerama"
	"github.com/BurntSushi/xgbutil/xrect"
	"github.com/BurntSushi/xgbutil/xwindow"

	"pluswm/internal/wm"
)

const fullscreenState = "_NET_WM_STATE_FULLSCREEN"

// Monitors returns the physical heads reported by Xinerama, or the root
// window when there is no Xinerama.
func (d *Display) Monitors() ([]wm.Rect, error) {
	if d.hasXinerama {
		heads, err := xinerama.PhysicalHeads(d.X)
		if err == nil && len(heads) > 0 {
			out := make([]wm.Rect, 0, len(heads))
			for _, h := range heads {
				out = append(out, fromXRect(h))
			}
			return out, nil
		}
		if err != nil {
			d.log.Warn("Failed to query Xinerama heads", "error", err)
		}
	}
	geom, err := xwindow.New(d.X, d.root).Geometry()
	if err != nil {
		return nil, fmt.Errorf("root geometry: %w", err)
	}
	return []wm.Rect{fromXRect(geom)}, nil
}

func fromXRect(r xrect.Rect) wm.Rect {
	return wm.Rect{
		Point: wm.Point{X: r.X(), Y: r.Y()},
		Size:  wm.Size{Width: uint(r.Width()), Height: uint(r.Height())},
	}
}

func (d *Display) TopLevelWindows() ([]wm.Window, error) {
	conn := d.X.Conn()
	tree, err := xproto.QueryTree(conn, d.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}
	var out []wm.Window
	for _, w := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(conn, w).Reply()
		if err != nil {
			continue
		}
		if attrs.OverrideRedirect || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		out = append(out, wm.Window(w))
	}
	return out, nil
}

func (d *Display) Geometry(w wm.Window) (wm.Rect, error) {
	g, err := xproto.GetGeometry(d.X.Conn(), xproto.Drawable(w)).Reply()
	if err != nil {
		return wm.Rect{}, err
	}
	return rect(g.X, g.Y, g.Width, g.Height), nil
}

func (d *Display) SelectClientInput(w wm.Window) error {
	return xproto.ChangeWindowAttributesChecked(d.X.Conn(), xproto.Window(w),
		xproto.CwEventMask, []uint32{clientEventMask}).Check()
}

func (d *Display) MapWindow(w wm.Window) error {
	if err := xproto.MapWindowChecked(d.X.Conn(), xproto.Window(w)).Check(); err != nil {
		return err
	}
	return icccm.WmStateSet(d.X, xproto.Window(w), &icccm.WmState{State: icccm.StateNormal})
}

func (d *Display) MoveResize(w wm.Window, geom wm.Rect) error {
	xwindow.New(d.X, xproto.Window(w)).Configure(
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		geom.X, geom.Y, int(geom.Width), int(geom.Height), 0, 0)
	return nil
}

// ConfigureWindow sends the fields named in the request's mask, in the
// order the protocol expects them.
func (d *Display) ConfigureWindow(req wm.ConfigureRequest) error {
	var values []uint32
	if req.Mask&wm.ConfigX != 0 {
		values = append(values, uint32(int32(req.Geometry.X)))
	}
	if req.Mask&wm.ConfigY != 0 {
		values = append(values, uint32(int32(req.Geometry.Y)))
	}
	if req.Mask&wm.ConfigWidth != 0 {
		values = append(values, uint32(req.Geometry.Width))
	}
	if req.Mask&wm.ConfigHeight != 0 {
		values = append(values, uint32(req.Geometry.Height))
	}
	if req.Mask&wm.ConfigBorderWidth != 0 {
		values = append(values, uint32(req.BorderWidth))
	}
	if req.Mask&wm.ConfigSibling != 0 {
		values = append(values, uint32(req.Sibling))
	}
	if req.Mask&wm.ConfigStackMode != 0 {
		values = append(values, uint32(req.StackMode))
	}
	xproto.ConfigureWindow(d.X.Conn(), xproto.Window(req.Window), req.Mask, values)
	return nil
}

func (d *Display) Raise(w wm.Window) error {
	xproto.ConfigureWindow(d.X.Conn(), xproto.Window(w),
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	return nil
}

// SetBorder sets the border width and colour. xwindow's Configure ignores
// the border width, so both go out as raw requests.
func (d *Display) SetBorder(w wm.Window, width uint, pixel uint32) error {
	conn := d.X.Conn()
	xproto.ConfigureWindow(conn, xproto.Window(w), xproto.ConfigWindowBorderWidth, []uint32{uint32(width)})
	xproto.ChangeWindowAttributes(conn, xproto.Window(w), xproto.CwBorderPixel, []uint32{pixel})
	return nil
}

func (d *Display) SetFullscreen(w wm.Window, on bool) error {
	states := []string{}
	if on {
		states = append(states, fullscreenState)
	}
	return ewmh.WmStateSet(d.X, xproto.Window(w), states)
}

func (d *Display) Focus(w wm.Window) error {
	conn := d.X.Conn()
	if w == wm.None {
		xproto.SetInputFocus(conn, xproto.InputFocusPointerRoot, xproto.InputFocusPointerRoot, xproto.TimeCurrentTime)
		return ewmh.ActiveWindowSet(d.X, 0)
	}
	xproto.SetInputFocus(conn, xproto.InputFocusPointerRoot, xproto.Window(w), xproto.TimeCurrentTime)
	if d.supports(w, "WM_TAKE_FOCUS") {
		if err := d.sendProtocol(w, d.atoms.wmTakeFocus); err != nil {
			d.log.Debug("WM_TAKE_FOCUS failed", "window", w, "error", err)
		}
	}
	return ewmh.ActiveWindowSet(d.X, xproto.Window(w))
}

// CloseWindow sends WM_DELETE_WINDOW when the client takes part in the
// protocol and kills the client connection otherwise.
func (d *Display) CloseWindow(w wm.Window) error {
	if d.supports(w, "WM_DELETE_WINDOW") {
		return d.sendProtocol(w, d.atoms.wmDelete)
	}
	d.log.Debug("Window lacks WM_DELETE_WINDOW, killing client", "window", w)

	conn := d.X.Conn()
	xproto.GrabServer(conn)
	err := xproto.KillClientChecked(conn, uint32(w)).Check()
	xproto.UngrabServer(conn)
	return err
}

func (d *Display) supports(w wm.Window, protocol string) bool {
	protocols, err := icccm.WmProtocolsGet(d.X, xproto.Window(w))
	if err != nil {
		return false
	}
	for _, p := range protocols {
		if p == protocol {
			return true
		}
	}
	return false
}

func (d *Display) sendProtocol(w wm.Window, atom xproto.Atom) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(w),
		Type:   d.atoms.wmProtocols,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(atom), xproto.TimeCurrentTime, 0, 0, 0}),
	}
	return xproto.SendEventChecked(d.X.Conn(), false, xproto.Window(w),
		xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}

func (d *Display) SetClientList(ws []wm.Window) error {
	ids := make([]xproto.Window, len(ws))
	for i, w := range ws {
		ids[i] = xproto.Window(w)
	}
	return ewmh.ClientListSet(d.X, ids)
}
