package wm

import "fmt"

// Window is the server-assigned handle of a window.
type Window uint32

// None is the null window.
const None Window = 0

// Point is a signed position in root coordinates.
type Point struct {
	X, Y int
}

// Size is a width/height pair in pixels.
type Size struct {
	Width, Height uint
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Rect is a positioned size.
type Rect struct {
	Point
	Size
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+int(r.Width) &&
		p.Y >= r.Y && p.Y < r.Y+int(r.Height)
}

// Center returns the middle of r.
func (r Rect) Center() Point {
	return Point{X: r.X + int(r.Width)/2, Y: r.Y + int(r.Height)/2}
}

// Shrink removes margins from each edge, never going below 1x1.
func (r Rect) Shrink(top, bottom, left, right int) Rect {
	out := r
	out.X += left
	out.Y += top
	w := int(r.Width) - left - right
	h := int(r.Height) - top - bottom
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out.Width, out.Height = uint(w), uint(h)
	return out
}
