package viewport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/mentorgraph/internal/geom"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func circles() []geom.Circle {
	return []geom.Circle{
		{C: geom.Point{X: -400, Y: -100}, R: 20},
		{C: geom.Point{X: 600, Y: 300}, R: 30},
	}
}

func TestFitTransformNeverZoomsIn(t *testing.T) {
	m := New(800, 600, DefaultOptions())
	tr, ok := m.FitTransform([]geom.Circle{{C: geom.Point{X: 10, Y: 10}, R: 5}})
	require.True(t, ok)
	assert.Equal(t, 1.0, tr.K)
	assert.InDelta(t, 390, tr.X, 1e-9)
	assert.InDelta(t, 290, tr.Y, 1e-9)
}

func TestFitTransformFramesContent(t *testing.T) {
	m := New(800, 600, DefaultOptions())
	tr, ok := m.FitTransform(circles())
	require.True(t, ok)
	// box is 1050 x 450 plus 200 padding each way
	assert.InDelta(t, 800.0/1250.0, tr.K, 1e-12)

	box := geom.CirclesBounds(circles())
	tl := tr.Apply(geom.Point{X: box.MinX, Y: box.MinY})
	br := tr.Apply(geom.Point{X: box.MaxX, Y: box.MaxY})
	assert.GreaterOrEqual(t, tl.X, 0.0)
	assert.GreaterOrEqual(t, tl.Y, 0.0)
	assert.LessOrEqual(t, br.X, 800.0)
	assert.LessOrEqual(t, br.Y, 600.0)
}

func TestFitIsIdempotent(t *testing.T) {
	m := New(800, 600, DefaultOptions())
	first := m.Fit(circles(), t0)
	require.True(t, first.Changed)
	assert.True(t, m.Animating())

	// still in flight: heading there already
	second := m.Fit(circles(), t0.Add(100*time.Millisecond))
	assert.False(t, second.Changed)
	assert.Equal(t, first.Target, second.Target)

	m.Advance(t0.Add(time.Second))
	assert.False(t, m.Animating())
	assert.Equal(t, first.Target, m.Current())

	third := m.Fit(circles(), t0.Add(2*time.Second))
	assert.False(t, third.Changed)
	assert.False(t, m.Animating())
}

func TestFitEmptyIsNoop(t *testing.T) {
	m := New(800, 600, DefaultOptions())
	res := m.Fit(nil, t0)
	assert.False(t, res.Changed)
	assert.False(t, m.Animating())
	assert.Equal(t, geom.Identity, m.Current())
}

func TestTweenEndpoints(t *testing.T) {
	m := New(800, 600, DefaultOptions())
	start := m.Current()
	res := m.Fit(circles(), t0)
	require.True(t, res.Changed)

	m.Advance(t0)
	assert.True(t, m.Current().Near(start, 1e-6))

	for ms := 50; ms < 500; ms += 50 {
		assert.True(t, m.Advance(t0.Add(time.Duration(ms)*time.Millisecond)))
		assert.True(t, m.Current().Valid())
	}
	m.Advance(t0.Add(500 * time.Millisecond))
	assert.Equal(t, res.Target, m.Current())
	assert.False(t, m.Advance(t0.Add(time.Second)))
}

func TestGestureCancelsTween(t *testing.T) {
	m := New(800, 600, DefaultOptions())
	m.Fit(circles(), t0)
	m.Advance(t0.Add(200 * time.Millisecond))
	mid := m.Current()

	got := m.Apply(Gesture{Pan: geom.Point{X: 5, Y: -5}})
	assert.False(t, m.Animating())
	assert.InDelta(t, mid.X+5, got.X, 1e-9)
	assert.InDelta(t, mid.Y-5, got.Y, 1e-9)
}

func TestGestureZoomKeepsAnchor(t *testing.T) {
	m := New(800, 600, DefaultOptions())
	anchor := geom.Point{X: 300, Y: 200}
	before := m.Invert(anchor)
	m.Apply(Gesture{Zoom: 1.25, Anchor: anchor})
	after := m.Invert(anchor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	k := m.Current().K
	m.Apply(Gesture{Zoom: -2, Anchor: anchor})
	assert.Equal(t, k, m.Current().K)
}

func TestCubicInOut(t *testing.T) {
	assert.Equal(t, 0.0, cubicInOut(0))
	assert.Equal(t, 0.5, cubicInOut(0.5))
	assert.Equal(t, 1.0, cubicInOut(1))
	assert.Less(t, cubicInOut(0.25), 0.25)
	assert.Greater(t, cubicInOut(0.75), 0.75)
}

func TestSmoothZoomPureZoom(t *testing.T) {
	size := geom.Point{X: 800, Y: 600}
	a := geom.Identity
	b := geom.Identity.ScaleAt(geom.Point{X: 400, Y: 300}, 0.5)
	f := smoothZoom(a, b, size)
	assert.True(t, f(0).Near(a, 1e-9))
	assert.Equal(t, b, f(1))
	mid := f(0.5)
	assert.Greater(t, mid.K, 0.5)
	assert.Less(t, mid.K, 1.0)
}
