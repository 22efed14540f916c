package entity

import "math"

// BoundsEpsilon is the tolerance, in logical pixels, under which two bounds
// are considered equal. Updates within this tolerance are skipped to avoid
// redundant native position/size calls. The value mirrors sub-pixel jitter
// produced by fractional DPI scaling and is not a product requirement.
const BoundsEpsilon = 0.5

// Bounds is the logical rectangle an embedded surface should occupy,
// relative to the host window, plus the window's scale factor. It is
// derived state: recomputed on every reflow, never persisted.
type Bounds struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Scale  float64
}

// ApproxEqual reports whether every numeric field of b and o differs by
// less than BoundsEpsilon.
func (b Bounds) ApproxEqual(o Bounds) bool {
	return math.Abs(b.X-o.X) < BoundsEpsilon &&
		math.Abs(b.Y-o.Y) < BoundsEpsilon &&
		math.Abs(b.Width-o.Width) < BoundsEpsilon &&
		math.Abs(b.Height-o.Height) < BoundsEpsilon &&
		math.Abs(b.Scale-o.Scale) < BoundsEpsilon
}

// Degenerate reports whether the rectangle has no drawable area, e.g. when
// the host window is minimized to zero. Callers must treat degenerate
// bounds as a hide-all signal rather than applying them.
func (b Bounds) Degenerate() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Physical converts the logical rectangle to physical pixels using the
// scale factor, for embedding primitives that require device units.
func (b Bounds) Physical() (x, y, w, h int) {
	s := b.Scale
	if s <= 0 {
		s = 1
	}
	return int(math.Round(b.X * s)),
		int(math.Round(b.Y * s)),
		int(math.Round(b.Width * s)),
		int(math.Round(b.Height * s))
}
