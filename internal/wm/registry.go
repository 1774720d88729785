package wm

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateHandle is returned when a window is tracked twice.
	ErrDuplicateHandle = errors.New("window is already tracked")
	// ErrUnknownHandle is returned for operations on untracked windows.
	ErrUnknownHandle = errors.New("window is not tracked")
)

const noSlot = -1

type slot struct {
	client Client
	live   bool
}

// Registry owns every tracked Client, the logical stack order (newest first)
// and the focus pointer. Records live in a slot array whose indices stay
// stable while the record is tracked; freed slots are reused.
//
// Registry is not safe for concurrent use. It is only touched from the
// dispatcher loop.
type Registry struct {
	slots   []slot
	free    []int
	index   map[Window]int
	stack   []int
	focused int
}

// FocusChange describes what a Focus call changed.
type FocusChange struct {
	Previous Window
	Current  Window
	// Changed is false when the target already held focus.
	Changed bool
}

// FullscreenChange describes the geometry produced by ToggleFullscreen.
type FullscreenChange struct {
	Entered  bool
	Geometry Rect
}

func NewRegistry() *Registry {
	return &Registry{
		index:   make(map[Window]int),
		focused: noSlot,
	}
}

// Len returns the number of tracked clients.
func (r *Registry) Len() int {
	return len(r.stack)
}

// Contains reports whether h is tracked.
func (r *Registry) Contains(h Window) bool {
	_, ok := r.index[h]
	return ok
}

// Get returns a copy of the record for h.
func (r *Registry) Get(h Window) (Client, bool) {
	i, ok := r.index[h]
	if !ok {
		return Client{}, false
	}
	return r.slots[i].client, true
}

// Stack returns the tracked handles, newest first.
func (r *Registry) Stack() []Window {
	out := make([]Window, len(r.stack))
	for n, i := range r.stack {
		out[n] = r.slots[i].client.handle
	}
	return out
}

// Clients returns copies of all records in stack order.
func (r *Registry) Clients() []Client {
	out := make([]Client, len(r.stack))
	for n, i := range r.stack {
		out[n] = r.slots[i].client
	}
	return out
}

// Focused returns the focused record, if any.
func (r *Registry) Focused() (Client, bool) {
	if r.focused == noSlot {
		return Client{}, false
	}
	return r.slots[r.focused].client, true
}

// Track inserts a new record at the front of the stack. It neither maps nor
// focuses the window.
func (r *Registry) Track(h Window, pos Point, size Size) (Client, error) {
	if _, ok := r.index[h]; ok {
		return Client{}, fmt.Errorf("track %#x: %w", uint32(h), ErrDuplicateHandle)
	}

	c := Client{handle: h, Position: pos, Size: size}

	var i int
	if n := len(r.free); n > 0 {
		i = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[i] = slot{client: c, live: true}
	} else {
		i = len(r.slots)
		r.slots = append(r.slots, slot{client: c, live: true})
	}

	r.index[h] = i
	r.stack = append([]int{i}, r.stack...)
	return c, nil
}

// Untrack removes the record for h and returns it. Untracking a window that
// was never tracked is a no-op and reports false. If the removed record held
// focus, focus becomes none; no other record is promoted.
func (r *Registry) Untrack(h Window) (Client, bool) {
	i, ok := r.index[h]
	if !ok {
		return Client{}, false
	}

	removed := r.slots[i].client
	pos := r.stackPos(i)
	r.stack = append(r.stack[:pos], r.stack[pos+1:]...)
	delete(r.index, h)
	if r.focused == i {
		r.focused = noSlot
		removed.Focused = false
	}
	r.slots[i] = slot{}
	r.free = append(r.free, i)
	return removed, true
}

// Focus moves focus to h. The previous holder is unfocused first so two
// focused records never coexist. Focusing the current holder again reports
// Changed == false.
func (r *Registry) Focus(h Window) (FocusChange, error) {
	i, ok := r.index[h]
	if !ok {
		return FocusChange{}, fmt.Errorf("focus %#x: %w", uint32(h), ErrUnknownHandle)
	}
	if r.focused == i {
		return FocusChange{Previous: h, Current: h}, nil
	}

	change := FocusChange{Current: h, Changed: true}
	if r.focused != noSlot {
		prev := &r.slots[r.focused].client
		prev.Focused = false
		change.Previous = prev.handle
	}
	r.slots[i].client.Focused = true
	r.focused = i
	return change, nil
}

// ClearFocus drops focus from whichever record holds it and returns that
// record's handle.
func (r *Registry) ClearFocus() (Window, bool) {
	if r.focused == noSlot {
		return None, false
	}
	c := &r.slots[r.focused].client
	c.Focused = false
	r.focused = noSlot
	return c.handle, true
}

// Raise validates h for a z-order raise. Raising is a display stacking
// action only: the logical stack order is left untouched.
func (r *Registry) Raise(h Window) error {
	if _, ok := r.index[h]; !ok {
		return fmt.Errorf("raise %#x: %w", uint32(h), ErrUnknownHandle)
	}
	return nil
}

// Move sets the record's position and returns the resulting geometry.
func (r *Registry) Move(h Window, p Point) (Rect, error) {
	i, ok := r.index[h]
	if !ok {
		return Rect{}, fmt.Errorf("move %#x: %w", uint32(h), ErrUnknownHandle)
	}
	c := &r.slots[i].client
	c.Position = p
	return c.Geometry(), nil
}

// Resize sets the record's size and returns the resulting geometry. The
// previous size is not touched; only entering fullscreen records it.
func (r *Registry) Resize(h Window, s Size) (Rect, error) {
	i, ok := r.index[h]
	if !ok {
		return Rect{}, fmt.Errorf("resize %#x: %w", uint32(h), ErrUnknownHandle)
	}
	c := &r.slots[i].client
	c.Size = s
	return c.Geometry(), nil
}

// ToggleFullscreen flips h between normal and fullscreen. Entering saves the
// current position and size and covers monitor; leaving restores both.
func (r *Registry) ToggleFullscreen(h Window, monitor Rect) (FullscreenChange, error) {
	i, ok := r.index[h]
	if !ok {
		return FullscreenChange{}, fmt.Errorf("toggle fullscreen %#x: %w", uint32(h), ErrUnknownHandle)
	}
	c := &r.slots[i].client
	if !c.Fullscreen {
		c.PreviousPos = c.Position
		c.PreviousSize = c.Size
		c.Position = monitor.Point
		c.Size = monitor.Size
		c.Fullscreen = true
		return FullscreenChange{Entered: true, Geometry: c.Geometry()}, nil
	}
	c.Position = c.PreviousPos
	c.Size = c.PreviousSize
	c.Fullscreen = false
	return FullscreenChange{Entered: false, Geometry: c.Geometry()}, nil
}

// Reconcile overwrites the record's geometry with what the server reported.
func (r *Registry) Reconcile(h Window, geom Rect) error {
	i, ok := r.index[h]
	if !ok {
		return fmt.Errorf("reconcile %#x: %w", uint32(h), ErrUnknownHandle)
	}
	c := &r.slots[i].client
	c.Position = geom.Point
	c.Size = geom.Size
	return nil
}

// Update runs fn on the live record for h. The pointer is only valid for
// the duration of the call; the handle and focus flag cannot be changed
// through it.
func (r *Registry) Update(h Window, fn func(c *Client)) error {
	i, ok := r.index[h]
	if !ok {
		return fmt.Errorf("update %#x: %w", uint32(h), ErrUnknownHandle)
	}
	c := &r.slots[i].client
	handle, focused := c.handle, c.Focused
	fn(c)
	c.handle, c.Focused = handle, focused
	return nil
}

// MoveToFront moves h to the head of the logical stack.
func (r *Registry) MoveToFront(h Window) error {
	i, ok := r.index[h]
	if !ok {
		return fmt.Errorf("move to front %#x: %w", uint32(h), ErrUnknownHandle)
	}
	pos := r.stackPos(i)
	copy(r.stack[1:pos+1], r.stack[:pos])
	r.stack[0] = i
	return nil
}

// Shift moves h delta places along the logical stack (positive towards the
// tail), stopping at either end.
func (r *Registry) Shift(h Window, delta int) error {
	i, ok := r.index[h]
	if !ok {
		return fmt.Errorf("shift %#x: %w", uint32(h), ErrUnknownHandle)
	}
	from := r.stackPos(i)
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to > len(r.stack)-1 {
		to = len(r.stack) - 1
	}
	for from < to {
		r.stack[from], r.stack[from+1] = r.stack[from+1], r.stack[from]
		from++
	}
	for from > to {
		r.stack[from], r.stack[from-1] = r.stack[from-1], r.stack[from]
		from--
	}
	return nil
}

// Next walks the stack cyclically from h in the direction of delta and
// returns the first record accepted by pred. With h == None the walk starts
// before the head.
func (r *Registry) Next(h Window, delta int, pred func(Client) bool) (Window, bool) {
	n := len(r.stack)
	if n == 0 || delta == 0 {
		return None, false
	}
	step := 1
	if delta < 0 {
		step = -1
	}

	start := -1
	if i, ok := r.index[h]; ok {
		start = r.stackPos(i)
	} else if step < 0 {
		start = 0
	}

	pos := start
	for k := 0; k < n; k++ {
		pos = ((pos+step)%n + n) % n
		c := r.slots[r.stack[pos]].client
		if c.handle == h {
			continue
		}
		if pred == nil || pred(c) {
			return c.handle, true
		}
	}
	return None, false
}

func (r *Registry) stackPos(slotIndex int) int {
	for pos, i := range r.stack {
		if i == slotIndex {
			return pos
		}
	}
	panic(fmt.Sprintf("wm: slot %d missing from stack", slotIndex))
}

// Validate checks the internal invariants: index and stack describe the same
// set of live slots exactly once each, and at most one record is focused.
func (r *Registry) Validate() error {
	if len(r.index) != len(r.stack) {
		return fmt.Errorf("index has %d entries, stack has %d", len(r.index), len(r.stack))
	}
	seen := make(map[int]bool, len(r.stack))
	for _, i := range r.stack {
		if seen[i] {
			return fmt.Errorf("slot %d appears twice in stack", i)
		}
		seen[i] = true
		if i < 0 || i >= len(r.slots) || !r.slots[i].live {
			return fmt.Errorf("stack references dead slot %d", i)
		}
		if got, ok := r.index[r.slots[i].client.handle]; !ok || got != i {
			return fmt.Errorf("handle %#x not indexed at slot %d", uint32(r.slots[i].client.handle), i)
		}
	}
	focused := 0
	for i, s := range r.slots {
		if !s.live {
			continue
		}
		if s.client.Focused {
			focused++
			if r.focused != i {
				return fmt.Errorf("slot %d focused but focus pointer is %d", i, r.focused)
			}
		}
	}
	if focused > 1 {
		return fmt.Errorf("%d records focused", focused)
	}
	if r.focused != noSlot && focused == 0 {
		return fmt.Errorf("focus pointer %d set but no record focused", r.focused)
	}
	return nil
}
