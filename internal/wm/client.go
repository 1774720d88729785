package wm

// Client is the manager's record of one top-level window. Callers only ever
// see copies; the registry owns the live record.
type Client struct {
	handle Window

	Position     Point
	Size         Size
	PreviousPos  Point
	PreviousSize Size

	Focused    bool
	Fullscreen bool
	Mapped     bool

	// Tags is the set of tag bits the client is shown on.
	Tags        uint32
	Floating    bool
	AlwaysOnTop bool
	Sticky      bool
	// Hidden is set while the client sits off screen because its tags are
	// not viewed.
	Hidden bool
}

// Handle returns the window the record belongs to.
func (c Client) Handle() Window {
	return c.handle
}

// Geometry returns the record's current rectangle.
func (c Client) Geometry() Rect {
	return Rect{Point: c.Position, Size: c.Size}
}

// VisibleOn reports whether the client belongs on the given tag mask.
func (c Client) VisibleOn(view uint32) bool {
	return c.Sticky || c.Tags&view != 0
}
