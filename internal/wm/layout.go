package wm

// NumTags is the number of tags a client can be placed on.
const NumTags = 9

const allTags uint32 = 1<<NumTags - 1

// Master ratio and count bounds.
const (
	MinMasterRatio = 0.05
	MaxMasterRatio = 0.95
)

// LayoutParams are the tunables a layout may read.
type LayoutParams struct {
	MasterRatio float64
	MasterCount int
}

// DefaultLayoutParams is what a fresh manager starts with.
var DefaultLayoutParams = LayoutParams{MasterRatio: 0.55, MasterCount: 1}

// Layout arranges the tiled clients of a work area. It returns the geometry
// each client should take; clients missing from the result stay where they
// are.
type Layout interface {
	Name() string
	Arrange(area Rect, clients []Client, params LayoutParams) map[Window]Rect
}

// Floating leaves every client where it put itself.
type Floating struct{}

func (Floating) Name() string { return "floating" }

func (Floating) Arrange(Rect, []Client, LayoutParams) map[Window]Rect { return nil }

func clampRatio(r float64) float64 {
	if r < MinMasterRatio {
		return MinMasterRatio
	}
	if r > MaxMasterRatio {
		return MaxMasterRatio
	}
	return r
}

func tagMask(i uint) uint32 {
	return 1 << i
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// snapOffset returns how far the span [n0, n1] must shift to line up with the
// nearer of the edges e0 and e1, or 0 when neither is within dist.
func snapOffset(n0, n1, e0, e1, dist int) int {
	s0, s1 := e0-n0, e1-n1
	near0 := abs(s0) <= dist
	near1 := abs(s1) <= dist
	switch {
	case near0 && near1:
		if abs(s0) <= abs(s1) {
			return s0
		}
		return s1
	case near0:
		return s0
	case near1:
		return s1
	}
	return 0
}
