package geom

import (
	"fmt"
	"math"
)

// Transform is the uniform pan/zoom mapping from simulation space to screen
// space: screen = sim*K + (X, Y). There is no rotation and no shear.
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform that leaves points where they are.
var Identity = Transform{K: 1}

// Valid reports whether the scale is a usable positive number.
func (t Transform) Valid() bool {
	return t.K > 0 && isFinite(t.K) && isFinite(t.X) && isFinite(t.Y)
}

func (t Transform) scale() float64 {
	if t.K > 0 && isFinite(t.K) {
		return t.K
	}
	return 1
}

// Apply maps a simulation-space point to screen space.
func (t Transform) Apply(p Point) Point {
	k := t.scale()
	return Point{p.X*k + t.X, p.Y*k + t.Y}
}

// Invert maps a screen-space point back to simulation space.
func (t Transform) Invert(p Point) Point {
	k := t.scale()
	return Point{(p.X - t.X) / k, (p.Y - t.Y) / k}
}

// Translate returns t panned by (dx, dy) screen units.
func (t Transform) Translate(dx, dy float64) Transform {
	return Transform{K: t.K, X: t.X + dx, Y: t.Y + dy}
}

// ScaleAt multiplies the scale by factor while keeping the screen point
// anchor fixed. A non-positive or non-finite factor returns t unchanged.
func (t Transform) ScaleAt(anchor Point, factor float64) Transform {
	if factor <= 0 || !isFinite(factor) {
		return t
	}
	k := t.scale() * factor
	if k <= 0 || !isFinite(k) {
		return t
	}
	p := t.Invert(anchor)
	return Transform{K: k, X: anchor.X - p.X*k, Y: anchor.Y - p.Y*k}
}

// Near reports whether all three components are within eps of o.
func (t Transform) Near(o Transform, eps float64) bool {
	return math.Abs(t.K-o.K) < eps && math.Abs(t.X-o.X) < eps && math.Abs(t.Y-o.Y) < eps
}

// String renders the transform as an SVG transform attribute.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", t.X, t.Y, t.scale())
}
