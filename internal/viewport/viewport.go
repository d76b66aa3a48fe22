// Package viewport owns the pan/zoom transform of the graph view and the
// animated "fit to content" transition.
package viewport

import (
	"math"
	"time"

	"github.com/msalah0e/mentorgraph/internal/geom"
)

// Options configure fitting.
type Options struct {
	Padding  float64
	Duration time.Duration
	Epsilon  float64
}

// DefaultOptions are the fit settings the view ships with.
func DefaultOptions() Options {
	return Options{Padding: 100, Duration: 500 * time.Millisecond, Epsilon: 1e-2}
}

// Gesture is one user pan/zoom input in screen space. A zero or one Zoom
// means no zoom.
type Gesture struct {
	Pan    geom.Point
	Zoom   float64
	Anchor geom.Point
}

// FitResult reports the outcome of Fit. Target is the transform the view
// ends up at, whether or not a transition was started.
type FitResult struct {
	Changed bool           `json:"changed"`
	Target  geom.Transform `json:"target"`
}

type tween struct {
	to    geom.Transform
	start time.Time
	dur   time.Duration
	at    func(t float64) geom.Transform
}

// Manager holds the current transform for a viewport of a fixed size.
type Manager struct {
	size    geom.Point
	opts    Options
	current geom.Transform
	tw      *tween
}

// New returns a manager at the identity transform.
func New(width, height float64, opts Options) *Manager {
	return &Manager{
		size:    geom.Point{X: width, Y: height},
		opts:    opts,
		current: geom.Identity,
	}
}

// Size is the viewport size in screen units.
func (m *Manager) Size() geom.Point { return m.size }

// SetSize resizes the viewport. The transform is left alone.
func (m *Manager) SetSize(width, height float64) {
	m.size = geom.Point{X: width, Y: height}
}

// Current is the transform as of the last Advance.
func (m *Manager) Current() geom.Transform { return m.current }

// Target is where the view is heading: the tween destination while one is
// running, the current transform otherwise.
func (m *Manager) Target() geom.Transform {
	if m.tw != nil {
		return m.tw.to
	}
	return m.current
}

// Animating reports whether a fit transition is in flight.
func (m *Manager) Animating() bool { return m.tw != nil }

// Set jumps to t immediately, dropping any transition. Invalid transforms
// are ignored.
func (m *Manager) Set(t geom.Transform) {
	if !t.Valid() {
		return
	}
	m.tw = nil
	m.current = t
}

// Apply folds a user gesture into the transform. A gesture interrupts a
// running fit transition.
func (m *Manager) Apply(g Gesture) geom.Transform {
	m.tw = nil
	t := m.current
	if g.Pan.X != 0 || g.Pan.Y != 0 {
		if geom.IsFinite(g.Pan.X) && geom.IsFinite(g.Pan.Y) {
			t = t.Translate(g.Pan.X, g.Pan.Y)
		}
	}
	if g.Zoom != 0 && g.Zoom != 1 {
		t = t.ScaleAt(g.Anchor, g.Zoom)
	}
	m.current = t
	return t
}

// Invert maps a screen point to simulation space under the current transform.
func (m *Manager) Invert(p geom.Point) geom.Point { return m.current.Invert(p) }

// FitTransform computes the transform that frames the circles with the
// configured padding without ever zooming in past scale 1. It returns false
// when there is nothing to frame.
func (m *Manager) FitTransform(circles []geom.Circle) (geom.Transform, bool) {
	box := geom.CirclesBounds(circles)
	if box.Empty() || m.size.X <= 0 || m.size.Y <= 0 {
		return geom.Transform{}, false
	}
	bw := box.Width() + 2*m.opts.Padding
	bh := box.Height() + 2*m.opts.Padding
	k := 1.0
	if bw > 0 {
		k = math.Min(k, m.size.X/bw)
	}
	if bh > 0 {
		k = math.Min(k, m.size.Y/bh)
	}
	c := box.Center()
	t := geom.Transform{K: k, X: m.size.X/2 - k*c.X, Y: m.size.Y/2 - k*c.Y}
	if !t.Valid() {
		return geom.Transform{}, false
	}
	return t, true
}

// Fit starts a transition that frames the circles. Nothing starts when the
// view already is, or is already heading, within Epsilon of the fitted
// transform.
func (m *Manager) Fit(circles []geom.Circle, now time.Time) FitResult {
	target, ok := m.FitTransform(circles)
	if !ok {
		return FitResult{Target: m.Target()}
	}
	if target.Near(m.Target(), m.opts.Epsilon) {
		return FitResult{Target: m.Target()}
	}
	if m.opts.Duration <= 0 {
		m.Set(target)
		return FitResult{Changed: true, Target: target}
	}
	m.tw = &tween{
		to:    target,
		start: now,
		dur:   m.opts.Duration,
		at:    smoothZoom(m.current, target, m.size),
	}
	return FitResult{Changed: true, Target: target}
}

// Advance moves a running transition to time now and reports whether the
// transform changed.
func (m *Manager) Advance(now time.Time) bool {
	if m.tw == nil {
		return false
	}
	p := float64(now.Sub(m.tw.start)) / float64(m.tw.dur)
	if p < 0 {
		p = 0
	}
	if p >= 1 {
		m.current = m.tw.to
		m.tw = nil
		return true
	}
	next := m.tw.at(cubicInOut(p))
	if next.Valid() {
		m.current = next
	}
	return true
}
