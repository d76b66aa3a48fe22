// Package geom holds the pure geometry used by the graph engine: points,
// bounding boxes, the isotropic viewport transform and link endpoint trimming.
// Nothing in here keeps state and nothing in here returns NaN for degenerate
// input.
package geom

import (
	"fmt"
	"math"
)

// Point is a position in either simulation or screen space.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Circle is a node footprint: centre plus radius.
type Circle struct {
	C Point
	R float64
}

// Rect is an axis-aligned bounding box. The zero value is not empty; use
// EmptyRect to start an accumulation.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyRect returns a box that contributes nothing to a Union.
func EmptyRect() Rect {
	return Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// RectXYWH builds a box from an origin and a size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Empty reports whether the box has no finite extent.
func (r Rect) Empty() bool {
	return !isFinite(r.MinX) || !isFinite(r.MinY) || !isFinite(r.MaxX) || !isFinite(r.MaxY) ||
		r.MaxX < r.MinX || r.MaxY < r.MinY
}

// Width of the box, zero when empty.
func (r Rect) Width() float64 {
	if r.Empty() {
		return 0
	}
	return r.MaxX - r.MinX
}

// Height of the box, zero when empty.
func (r Rect) Height() float64 {
	if r.Empty() {
		return 0
	}
	return r.MaxY - r.MinY
}

// Center of the box.
func (r Rect) Center() Point {
	return Point{(r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2}
}

// Union grows r to include o. Empty boxes are ignored on either side.
func (r Rect) Union(o Rect) Rect {
	if o.Empty() {
		return r
	}
	if r.Empty() {
		return o
	}
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Expand pushes every side outwards by dx horizontally and dy vertically.
func (r Rect) Expand(dx, dy float64) Rect {
	if r.Empty() {
		return r
	}
	return Rect{r.MinX - dx, r.MinY - dy, r.MaxX + dx, r.MaxY + dy}
}

// Pad grows each axis by ratio of its own length, split evenly between the
// two sides, so the box keeps its centre.
func (r Rect) Pad(ratio float64) Rect {
	return r.Expand(r.Width()*ratio/2, r.Height()*ratio/2)
}

// Translate moves the box by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	if r.Empty() {
		return r
	}
	return Rect{r.MinX + dx, r.MinY + dy, r.MaxX + dx, r.MaxY + dy}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g %g %g %g]", r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// CirclesBounds returns the box around every circle, each expanded by its
// radius. An empty slice yields an empty box.
func CirclesBounds(cs []Circle) Rect {
	box := EmptyRect()
	for _, c := range cs {
		if !isFinite(c.C.X) || !isFinite(c.C.Y) {
			continue
		}
		r := math.Max(c.R, 0)
		box = box.Union(Rect{c.C.X - r, c.C.Y - r, c.C.X + r, c.C.Y + r})
	}
	return box
}

// Normalize returns the unit vector of (dx, dy) and its length. A zero-length
// vector yields (0, 0, 0) instead of dividing by zero.
func Normalize(dx, dy float64) (ux, uy, l float64) {
	l = math.Hypot(dx, dy)
	if l == 0 || !isFinite(l) {
		return 0, 0, 0
	}
	return dx / l, dy / l, l
}

// TrimSegment shortens the segment a→b so it starts on the circle of radius
// ra around a and ends on the circle of radius rb around b. Coincident
// endpoints are returned untouched.
func TrimSegment(a, b Point, ra, rb float64) (Point, Point) {
	ux, uy, l := Normalize(b.X-a.X, b.Y-a.Y)
	if l == 0 {
		return a, b
	}
	return Point{a.X + ux*ra, a.Y + uy*ra}, Point{b.X - ux*rb, b.Y - uy*rb}
}

// DistToSegment is the shortest distance from p to the segment a→b.
func DistToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point{a.X + t*dx, a.Y + t*dy})
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool { return isFinite(f) }
