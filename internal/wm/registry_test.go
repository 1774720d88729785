package wm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	origin  = Point{}
	sz800   = Size{Width: 800, Height: 600}
	monitor = Rect{Size: Size{Width: 1920, Height: 1080}}
)

func TestTrackInsertsNewestFirstWithoutFocus(t *testing.T) {
	r := NewRegistry()

	_, err := r.Track(1, origin, sz800)
	require.NoError(t, err)
	_, err = r.Focus(1)
	require.NoError(t, err)
	_, err = r.Track(2, origin, sz800)
	require.NoError(t, err)

	assert.Equal(t, []Window{2, 1}, r.Stack())
	f, ok := r.Focused()
	require.True(t, ok)
	assert.Equal(t, Window(1), f.Handle())

	c2, _ := r.Get(2)
	assert.False(t, c2.Focused)
	assert.False(t, c2.Mapped)
	require.NoError(t, r.Validate())
}

func TestTrackDuplicateIsReported(t *testing.T) {
	r := NewRegistry()
	_, err := r.Track(7, Point{X: 1, Y: 2}, sz800)
	require.NoError(t, err)

	_, err = r.Track(7, Point{X: 5, Y: 5}, Size{Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrDuplicateHandle)

	c, _ := r.Get(7)
	assert.Equal(t, Point{X: 1, Y: 2}, c.Position, "duplicate must not overwrite")
	assert.Equal(t, 1, r.Len())
}

func TestUntrackUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	_, err := r.Track(1, origin, sz800)
	require.NoError(t, err)

	_, removed := r.Untrack(99)
	assert.False(t, removed)
	assert.Equal(t, []Window{1}, r.Stack())
	require.NoError(t, r.Validate())
}

func TestUntrackFocusedClearsFocus(t *testing.T) {
	r := NewRegistry()
	for _, h := range []Window{1, 2, 3} {
		_, err := r.Track(h, origin, sz800)
		require.NoError(t, err)
	}
	_, err := r.Focus(2)
	require.NoError(t, err)

	removed, ok := r.Untrack(2)
	require.True(t, ok)
	assert.Equal(t, Window(2), removed.Handle())

	_, ok = r.Focused()
	assert.False(t, ok, "registry must not promote a new focus holder")

	change, err := r.Focus(3)
	require.NoError(t, err)
	assert.Equal(t, None, change.Previous)
	assert.True(t, change.Changed)

	focused := 0
	for _, c := range r.Clients() {
		if c.Focused {
			focused++
		}
	}
	assert.Equal(t, 1, focused)
	require.NoError(t, r.Validate())
}

func TestFocusTransferAndReassert(t *testing.T) {
	r := NewRegistry()
	for _, h := range []Window{1, 2} {
		_, err := r.Track(h, origin, sz800)
		require.NoError(t, err)
	}

	change, err := r.Focus(1)
	require.NoError(t, err)
	assert.Equal(t, FocusChange{Previous: None, Current: 1, Changed: true}, change)

	change, err = r.Focus(2)
	require.NoError(t, err)
	assert.Equal(t, FocusChange{Previous: 1, Current: 2, Changed: true}, change)
	c1, _ := r.Get(1)
	assert.False(t, c1.Focused)

	change, err = r.Focus(2)
	require.NoError(t, err)
	assert.False(t, change.Changed)

	_, err = r.Focus(42)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	f, _ := r.Focused()
	assert.Equal(t, Window(2), f.Handle())
}

func TestRaiseKeepsLogicalStack(t *testing.T) {
	r := NewRegistry()
	for _, h := range []Window{1, 2, 3} {
		_, err := r.Track(h, origin, sz800)
		require.NoError(t, err)
	}
	require.NoError(t, r.Raise(1))
	assert.Equal(t, []Window{3, 2, 1}, r.Stack())
	assert.ErrorIs(t, r.Raise(9), ErrUnknownHandle)
}

func TestResizeDoesNotTouchPreviousSize(t *testing.T) {
	r := NewRegistry()
	_, err := r.Track(1, origin, sz800)
	require.NoError(t, err)

	geom, err := r.Resize(1, Size{Width: 100, Height: 50})
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 100, Height: 50}, geom.Size)

	c, _ := r.Get(1)
	assert.Equal(t, Size{}, c.PreviousSize)

	geom, err = r.Move(1, Point{X: -10, Y: 20})
	require.NoError(t, err)
	assert.Equal(t, Rect{Point: Point{X: -10, Y: 20}, Size: Size{Width: 100, Height: 50}}, geom)

	_, err = r.Resize(5, sz800)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	_, err = r.Move(5, origin)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestToggleFullscreenRoundTrip(t *testing.T) {
	r := NewRegistry()
	start := Point{X: 40, Y: 30}
	_, err := r.Track(1, start, sz800)
	require.NoError(t, err)

	change, err := r.ToggleFullscreen(1, monitor)
	require.NoError(t, err)
	assert.True(t, change.Entered)
	assert.Equal(t, monitor, change.Geometry)

	c, _ := r.Get(1)
	assert.True(t, c.Fullscreen)
	assert.Equal(t, sz800, c.PreviousSize)

	// resizing while fullscreen must not clobber the saved size
	_, err = r.Resize(1, Size{Width: 1919, Height: 1079})
	require.NoError(t, err)

	change, err = r.ToggleFullscreen(1, monitor)
	require.NoError(t, err)
	assert.False(t, change.Entered)
	assert.Equal(t, Rect{Point: start, Size: sz800}, change.Geometry, "position and size are both restored")

	c, _ = r.Get(1)
	assert.False(t, c.Fullscreen)

	_, err = r.ToggleFullscreen(2, monitor)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestReorderOperations(t *testing.T) {
	r := NewRegistry()
	for _, h := range []Window{1, 2, 3, 4} {
		_, err := r.Track(h, origin, sz800)
		require.NoError(t, err)
	}
	require.Equal(t, []Window{4, 3, 2, 1}, r.Stack())

	require.NoError(t, r.MoveToFront(2))
	assert.Equal(t, []Window{2, 4, 3, 1}, r.Stack())

	require.NoError(t, r.Shift(2, 2))
	assert.Equal(t, []Window{4, 3, 2, 1}, r.Stack())

	require.NoError(t, r.Shift(2, 10))
	assert.Equal(t, []Window{4, 3, 1, 2}, r.Stack())

	require.NoError(t, r.Shift(2, -1))
	assert.Equal(t, []Window{4, 3, 2, 1}, r.Stack())

	assert.ErrorIs(t, r.MoveToFront(9), ErrUnknownHandle)
	require.NoError(t, r.Validate())
}

func TestNextWalksCyclically(t *testing.T) {
	r := NewRegistry()
	for _, h := range []Window{1, 2, 3} {
		_, err := r.Track(h, origin, sz800)
		require.NoError(t, err)
	}
	// stack: 3 2 1
	next, ok := r.Next(3, 1, nil)
	require.True(t, ok)
	assert.Equal(t, Window(2), next)

	next, ok = r.Next(1, 1, nil)
	require.True(t, ok)
	assert.Equal(t, Window(3), next)

	next, ok = r.Next(3, -1, nil)
	require.True(t, ok)
	assert.Equal(t, Window(1), next)

	next, ok = r.Next(None, 1, nil)
	require.True(t, ok)
	assert.Equal(t, Window(3), next)

	next, ok = r.Next(3, 1, func(c Client) bool { return c.Handle() == 1 })
	require.True(t, ok)
	assert.Equal(t, Window(1), next)

	_, ok = r.Next(3, 1, func(Client) bool { return false })
	assert.False(t, ok)
}

func TestUpdateCannotChangeIdentityOrFocus(t *testing.T) {
	r := NewRegistry()
	_, err := r.Track(1, origin, sz800)
	require.NoError(t, err)

	require.NoError(t, r.Update(1, func(c *Client) {
		c.handle = 99
		c.Focused = true
		c.Sticky = true
	}))
	c, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, Window(1), c.Handle())
	assert.False(t, c.Focused)
	assert.True(t, c.Sticky)
	require.NoError(t, r.Validate())
}

func TestSlotsAreReused(t *testing.T) {
	r := NewRegistry()
	for _, h := range []Window{1, 2} {
		_, err := r.Track(h, origin, sz800)
		require.NoError(t, err)
	}
	r.Untrack(1)
	_, err := r.Track(3, origin, sz800)
	require.NoError(t, err)
	assert.Len(t, r.slots, 2)
	assert.Equal(t, []Window{3, 2}, r.Stack())
	require.NoError(t, r.Validate())
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := NewRegistry()
	tracked := map[Window]bool{}

	for step := 0; step < 5000; step++ {
		h := Window(rng.Intn(20) + 1)
		switch rng.Intn(6) {
		case 0, 1:
			_, err := r.Track(h, origin, sz800)
			if tracked[h] {
				require.ErrorIs(t, err, ErrDuplicateHandle)
			} else {
				require.NoError(t, err)
				tracked[h] = true
			}
		case 2:
			_, ok := r.Untrack(h)
			require.Equal(t, tracked[h], ok)
			delete(tracked, h)
		case 3:
			_, err := r.Focus(h)
			if tracked[h] {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrUnknownHandle)
			}
		case 4:
			if tracked[h] {
				require.NoError(t, r.Shift(h, rng.Intn(5)-2))
			}
		case 5:
			if tracked[h] {
				_, err := r.ToggleFullscreen(h, monitor)
				require.NoError(t, err)
			}
		}
		require.NoError(t, r.Validate(), "step %d", step)
		require.Equal(t, len(tracked), r.Len())
	}
}
