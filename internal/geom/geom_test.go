package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvertRoundTrip(t *testing.T) {
	transforms := []Transform{
		Identity,
		{K: 2, X: 10, Y: -5},
		{K: 0.25, X: -300.5, Y: 42},
		{K: 7.3, X: 0, Y: 1e4},
	}
	points := []Point{{0, 0}, {1, 1}, {-250.75, 98.2}, {1e5, -1e5}}

	for _, tr := range transforms {
		for _, p := range points {
			got := tr.Invert(tr.Apply(p))
			assert.InDelta(t, p.X, got.X, 1e-9, "transform %v point %v", tr, p)
			assert.InDelta(t, p.Y, got.Y, 1e-9, "transform %v point %v", tr, p)
		}
	}
}

func TestInvertZeroScaleFallsBackToUnit(t *testing.T) {
	tr := Transform{K: 0, X: 5, Y: 5}
	got := tr.Invert(Point{15, 25})
	assert.Equal(t, Point{10, 20}, got)
}

func TestScaleAtKeepsAnchor(t *testing.T) {
	tr := Transform{K: 1.5, X: 20, Y: 30}
	anchor := Point{200, 100}
	before := tr.Invert(anchor)

	zoomed := tr.ScaleAt(anchor, 2)
	assert.InDelta(t, 3.0, zoomed.K, 1e-12)
	after := zoomed.Invert(anchor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	assert.Equal(t, tr, tr.ScaleAt(anchor, 0))
	assert.Equal(t, tr, tr.ScaleAt(anchor, -1))
	assert.Equal(t, tr, tr.ScaleAt(anchor, math.NaN()))
}

func TestRectPadKeepsCentre(t *testing.T) {
	r := Rect{MinX: 90, MinY: 40, MaxX: 110, MaxY: 60}
	p := r.Pad(0.1)
	assert.InDelta(t, 89, p.MinX, 1e-12)
	assert.InDelta(t, 39, p.MinY, 1e-12)
	assert.InDelta(t, 111, p.MaxX, 1e-12)
	assert.InDelta(t, 61, p.MaxY, 1e-12)
	assert.Equal(t, r.Center(), p.Center())
}

func TestUnionIgnoresEmpty(t *testing.T) {
	r := RectXYWH(0, 0, 10, 10)
	assert.Equal(t, r, r.Union(EmptyRect()))
	assert.Equal(t, r, EmptyRect().Union(r))
	assert.True(t, EmptyRect().Empty())
	assert.Zero(t, EmptyRect().Width())
}

func TestCirclesBounds(t *testing.T) {
	box := CirclesBounds([]Circle{{C: Point{0, 0}, R: 10}, {C: Point{100, 50}, R: 5}})
	assert.Equal(t, Rect{-10, -10, 105, 55}, box)

	assert.True(t, CirclesBounds(nil).Empty())
	assert.True(t, CirclesBounds([]Circle{{C: Point{math.NaN(), 0}, R: 1}}).Empty())
}

func TestTrimSegment(t *testing.T) {
	a, b := TrimSegment(Point{0, 0}, Point{100, 0}, 10, 20)
	assert.Equal(t, Point{10, 0}, a)
	assert.Equal(t, Point{80, 0}, b)

	// self-loop: nothing to normalise, no NaN
	p := Point{3, 4}
	a, b = TrimSegment(p, p, 10, 10)
	assert.Equal(t, p, a)
	assert.Equal(t, p, b)
}

func TestNormalizeZero(t *testing.T) {
	ux, uy, l := Normalize(0, 0)
	assert.Zero(t, ux)
	assert.Zero(t, uy)
	assert.Zero(t, l)
}

func TestDistToSegment(t *testing.T) {
	assert.InDelta(t, 5, DistToSegment(Point{5, 5}, Point{0, 0}, Point{10, 0}), 1e-12)
	assert.InDelta(t, 5, DistToSegment(Point{-3, 4}, Point{0, 0}, Point{10, 0}), 1e-12)
	assert.InDelta(t, 5, DistToSegment(Point{3, 4}, Point{0, 0}, Point{0, 0}), 1e-12)
}
