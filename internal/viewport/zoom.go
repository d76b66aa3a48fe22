package viewport

import (
	"math"

	"github.com/msalah0e/mentorgraph/internal/geom"
)

const (
	rho      = math.Sqrt2
	rho2     = 2
	rho4     = 4
	epsilon2 = 1e-12
)

// smoothZoom returns the van Wijk and Nuij interpolation between two
// transforms for a viewport of the given size: the view zooms out while it
// pans, then back in, which reads better than a straight lerp.
func smoothZoom(a, b geom.Transform, size geom.Point) func(t float64) geom.Transform {
	w := math.Max(size.X, size.Y)
	if w <= 0 || !a.Valid() || !b.Valid() {
		return linear(a, b)
	}
	p := geom.Point{X: size.X / 2, Y: size.Y / 2}
	pa, pb := a.Invert(p), b.Invert(p)
	ux0, uy0, w0 := pa.X, pa.Y, w/a.K
	ux1, uy1, w1 := pb.X, pb.Y, w/b.K
	dx, dy := ux1-ux0, uy1-uy0
	d2 := dx*dx + dy*dy

	var at func(t float64) (float64, float64, float64)
	if d2 < epsilon2 {
		s := math.Log(w1/w0) / rho
		at = func(t float64) (float64, float64, float64) {
			return ux0 + t*dx, uy0 + t*dy, w0 * math.Exp(rho*t*s)
		}
	} else {
		d1 := math.Sqrt(d2)
		b0 := (w1*w1 - w0*w0 + rho4*d2) / (2 * w0 * rho2 * d1)
		b1 := (w1*w1 - w0*w0 - rho4*d2) / (2 * w1 * rho2 * d1)
		r0 := math.Log(math.Sqrt(b0*b0+1) - b0)
		r1 := math.Log(math.Sqrt(b1*b1+1) - b1)
		s := (r1 - r0) / rho
		coshr0, sinhr0 := math.Cosh(r0), math.Sinh(r0)
		at = func(t float64) (float64, float64, float64) {
			x := rho*t*s + r0
			u := w0 / (rho2 * d1) * (coshr0*math.Tanh(x) - sinhr0)
			return ux0 + u*dx, uy0 + u*dy, w0 * coshr0 / math.Cosh(x)
		}
	}

	f := func(t float64) geom.Transform {
		if t >= 1 {
			return b
		}
		ux, uy, lw := at(t)
		k := w / lw
		return geom.Transform{K: k, X: p.X - ux*k, Y: p.Y - uy*k}
	}
	// very large jumps lose precision in the hyperbolic form
	if !f(0.5).Valid() {
		return linear(a, b)
	}
	return f
}

func linear(a, b geom.Transform) func(t float64) geom.Transform {
	return func(t float64) geom.Transform {
		if t >= 1 {
			return b
		}
		return geom.Transform{
			K: a.K + (b.K-a.K)*t,
			X: a.X + (b.X-a.X)*t,
			Y: a.Y + (b.Y-a.Y)*t,
		}
	}
}

// cubicInOut is the default transition easing.
func cubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}
