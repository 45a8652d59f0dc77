package geom

import (
	"fmt"
	"math"
)

// MinRemaining is the smallest fraction of a page dimension a crop may leave.
const MinRemaining = 0.1

// Rect is an axis-aligned rectangle in document units, origin at the top-left
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// NewRect returns a normalized rectangle from two corners
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// IsEmpty reports whether the rectangle has zero area
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains reports whether o lies inside r, allowing eps of float slack
func (r Rect) Contains(o Rect, eps float64) bool {
	return o.X0 >= r.X0-eps && o.Y0 >= r.Y0-eps &&
		o.X1 <= r.X1+eps && o.Y1 <= r.Y1+eps
}

// Clamp limits every coordinate of r to the bounds of b
func (r Rect) Clamp(b Rect) Rect {
	return Rect{
		X0: clamp(r.X0, b.X0, b.X1),
		Y0: clamp(r.Y0, b.Y0, b.Y1),
		X1: clamp(r.X1, b.X0, b.X1),
		Y1: clamp(r.Y1, b.Y0, b.Y1),
	}
}

// Shrink removes the margin fractions from each edge of r
func (r Rect) Shrink(m MarginSet) Rect {
	w, h := r.Width(), r.Height()
	return Rect{
		X0: r.X0 + w*m.Left,
		Y0: r.Y0 + h*m.Top,
		X1: r.X1 - w*m.Right,
		Y1: r.Y1 - h*m.Bottom,
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.2f,%.2f)-(%.2f,%.2f)", r.X0, r.Y0, r.X1, r.Y1)
}

// MarginSet holds the fraction of page width/height removed from each edge
type MarginSet struct {
	Left, Top, Right, Bottom float64
}

// Validate checks that every fraction lies in [0, 1)
func (m MarginSet) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"left", m.Left}, {"top", m.Top}, {"right", m.Right}, {"bottom", m.Bottom}} {
		if math.IsNaN(v.val) || v.val < 0 || v.val >= 1 {
			return fmt.Errorf("%s margin must be between 0.0 and 1.0, got %g", v.name, v.val)
		}
	}
	return nil
}

// Floor scales opposing margins down so that at least minRemaining of each
// dimension survives. The second return value reports whether anything changed.
func (m MarginSet) Floor(minRemaining float64) (MarginSet, bool) {
	limit := 1 - minRemaining
	out := MarginSet{
		Left:   math.Max(0, m.Left),
		Top:    math.Max(0, m.Top),
		Right:  math.Max(0, m.Right),
		Bottom: math.Max(0, m.Bottom),
	}
	changed := out != m
	if s := out.Left + out.Right; s > limit {
		out.Left, out.Right = out.Left*limit/s, out.Right*limit/s
		changed = true
	}
	if s := out.Top + out.Bottom; s > limit {
		out.Top, out.Bottom = out.Top*limit/s, out.Bottom*limit/s
		changed = true
	}
	return out, changed
}

func (m MarginSet) String() string {
	return fmt.Sprintf("L=%.3f, T=%.3f, R=%.3f, B=%.3f", m.Left, m.Top, m.Right, m.Bottom)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
