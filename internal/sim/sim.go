// Package sim is the force-directed physics behind the mentoring graph.
//
// A Simulation owns node positions and velocities for exactly one render
// pass. It is stepped explicitly by its owner (one Step per animation frame);
// it never starts goroutines or timers of its own. Energy ("alpha") decays
// geometrically towards alphaTarget and the simulation stops once alpha drops
// under AlphaMin.
//
// Pinning a node (FX/FY non-nil) overrides its position on that axis for every
// tick; pins are how drag, layout bands and freezing hold nodes in place.
package sim

import (
	"math"
	"math/rand"

	"github.com/msalah0e/mentorgraph/internal/geom"
)

// Node is one person in the simulation.
type Node struct {
	ID     string
	X, Y   float64
	VX, VY float64
	FX, FY *float64
	R      float64
}

// Pinned reports whether either axis is pinned.
func (n *Node) Pinned() bool { return n.FX != nil || n.FY != nil }

// Pos returns the node centre.
func (n *Node) Pos() geom.Point { return geom.Point{X: n.X, Y: n.Y} }

// Link connects two node indices.
type Link struct {
	Source, Target int
}

const (
	initialRadius = 10
	distanceMin2  = 1
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Simulation is a single force layout over a fixed node and link set.
type Simulation struct {
	Nodes []Node

	links  []Link
	params Params
	center geom.Point
	rng    *rand.Rand

	strength    float64
	coef        Coefficients
	alpha       float64
	alphaTarget float64
	running     bool
	ticks       int

	bias []float64
}

// New builds a simulation over nodes and links. Links whose endpoints are
// out of range are dropped. Every node is placed on a phyllotaxis spiral
// around the origin, the same seed always giving the same layout.
func New(nodes []Node, links []Link, p Params, center geom.Point, seed int64) *Simulation {
	s := &Simulation{
		Nodes:  nodes,
		params: p,
		center: center,
		rng:    rand.New(rand.NewSource(seed)),
	}
	for _, l := range links {
		if l.Source < 0 || l.Source >= len(nodes) || l.Target < 0 || l.Target >= len(nodes) {
			continue
		}
		s.links = append(s.links, l)
	}
	for i := range s.Nodes {
		n := &s.Nodes[i]
		radius := initialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		n.X = radius * math.Cos(angle)
		n.Y = radius * math.Sin(angle)
		n.VX, n.VY = 0, 0
	}
	s.initLinks()
	return s
}

func (s *Simulation) initLinks() {
	count := make([]int, len(s.Nodes))
	for _, l := range s.links {
		count[l.Source]++
		count[l.Target]++
	}
	s.bias = make([]float64, len(s.links))
	for i, l := range s.links {
		s.bias[i] = float64(count[l.Source]) / float64(count[l.Source]+count[l.Target])
	}
}

// Links returns the resolved links the simulation runs over.
func (s *Simulation) Links() []Link { return s.links }

// Params returns the parameters the simulation was built with.
func (s *Simulation) Params() Params { return s.params }

// Alpha is the current energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// AlphaTarget is the energy the simulation decays towards.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// Strength is the force strength of the last restart.
func (s *Simulation) Strength() float64 { return s.strength }

// Coefficients are the per-force strengths of the last restart.
func (s *Simulation) Coefficients() Coefficients { return s.coef }

// Running reports whether Step will advance the simulation.
func (s *Simulation) Running() bool { return s.running }

// Ticks counts the ticks since construction.
func (s *Simulation) Ticks() int { return s.ticks }

// Restart sets the force coefficients from strength, resets the energy and
// marks the simulation as running.
func (s *Simulation) Restart(alpha, alphaTarget, strength float64) {
	s.strength = strength
	s.coef = CoefficientsFor(strength)
	s.alpha = alpha
	s.alphaTarget = alphaTarget
	s.running = true
}

// SetAlphaTarget changes the energy target without restarting.
func (s *Simulation) SetAlphaTarget(t float64) { s.alphaTarget = t }

// Stop halts stepping until the next Restart.
func (s *Simulation) Stop() { s.running = false }

// Step advances a running simulation by one tick and reports whether it
// ended on this tick. A stopped simulation is left untouched.
func (s *Simulation) Step() (ended bool) {
	if !s.running {
		return false
	}
	s.Tick()
	if s.alpha < s.params.AlphaMin {
		s.running = false
		return true
	}
	return false
}

// Tick runs exactly one physics step regardless of the running state.
func (s *Simulation) Tick() {
	s.ticks++
	s.alpha += (s.alphaTarget - s.alpha) * s.params.AlphaDecay

	s.applyLinks()
	s.applyCollision()
	s.applyCharge()
	s.applyCenter()

	decay := 1 - s.params.VelocityDecay
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.FX == nil {
			n.VX *= decay
			n.X += n.VX
		} else {
			n.X, n.VX = *n.FX, 0
		}
		if n.FY == nil {
			n.VY *= decay
			n.Y += n.VY
		} else {
			n.Y, n.VY = *n.FY, 0
		}
	}
}

func (s *Simulation) jiggle() float64 {
	j := (s.rng.Float64() - 0.5) * 1e-6
	if j == 0 {
		j = 1e-6
	}
	return j
}

func (s *Simulation) applyLinks() {
	k := s.coef.Link
	if k == 0 {
		return
	}
	for i, l := range s.links {
		src, tgt := &s.Nodes[l.Source], &s.Nodes[l.Target]
		x := tgt.X + tgt.VX - src.X - src.VX
		if x == 0 {
			x = s.jiggle()
		}
		y := tgt.Y + tgt.VY - src.Y - src.VY
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		f := (d - s.params.LinkDistance) / d * s.alpha * k
		x, y = x*f, y*f
		b := s.bias[i]
		tgt.VX -= x * b
		tgt.VY -= y * b
		src.VX += x * (1 - b)
		src.VY += y * (1 - b)
	}
}

// applyCharge is the all-pairs many-body force. Pairs further apart than
// ChargeDistanceMax do not interact.
func (s *Simulation) applyCharge() {
	k := s.coef.Charge
	if k == 0 || len(s.Nodes) < 2 {
		return
	}
	max2 := s.params.ChargeDistanceMax * s.params.ChargeDistanceMax
	if max2 <= 0 {
		max2 = math.Inf(1)
	}
	for i := range s.Nodes {
		n := &s.Nodes[i]
		for j := range s.Nodes {
			if i == j {
				continue
			}
			o := &s.Nodes[j]
			x, y := o.X-n.X, o.Y-n.Y
			l := x*x + y*y
			if l >= max2 {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			w := k * s.alpha / l
			n.VX += x * w
			n.VY += y * w
		}
	}
}

// applyCenter translates the whole system so its mean moves towards the
// centre point.
func (s *Simulation) applyCenter() {
	k := s.coef.Center
	n := len(s.Nodes)
	if k == 0 || n == 0 {
		return
	}
	var sx, sy float64
	for i := range s.Nodes {
		sx += s.Nodes[i].X
		sy += s.Nodes[i].Y
	}
	sx = (sx/float64(n) - s.center.X) * k
	sy = (sy/float64(n) - s.center.Y) * k
	for i := range s.Nodes {
		s.Nodes[i].X -= sx
		s.Nodes[i].Y -= sy
	}
}

// applyCollision separates node circles inflated by CollisionMargin.
func (s *Simulation) applyCollision() {
	k := s.coef.Collision
	if k == 0 || len(s.Nodes) < 2 {
		return
	}
	margin := s.params.CollisionMargin
	for i := range s.Nodes {
		n := &s.Nodes[i]
		ri := n.R + margin
		ri2 := ri * ri
		xi, yi := n.X+n.VX, n.Y+n.VY
		for j := i + 1; j < len(s.Nodes); j++ {
			o := &s.Nodes[j]
			rj := o.R + margin
			r := ri + rj
			x := xi - o.X - o.VX
			y := yi - o.Y - o.VY
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			d := math.Sqrt(l)
			f := (r - d) / d * k
			x, y = x*f, y*f
			rj2 := rj * rj
			share := rj2 / (ri2 + rj2)
			n.VX += x * share
			n.VY += y * share
			o.VX -= x * (1 - share)
			o.VY -= y * (1 - share)
		}
	}
}

// Pin fixes both axes of node i.
func (s *Simulation) Pin(i int, x, y float64) {
	if i < 0 || i >= len(s.Nodes) {
		return
	}
	s.Nodes[i].FX, s.Nodes[i].FY = &x, &y
}

// PinY fixes only the vertical axis of node i.
func (s *Simulation) PinY(i int, y float64) {
	if i < 0 || i >= len(s.Nodes) {
		return
	}
	s.Nodes[i].FY = &y
}

// Unpin releases both axes of node i.
func (s *Simulation) Unpin(i int) {
	if i < 0 || i >= len(s.Nodes) {
		return
	}
	s.Nodes[i].FX, s.Nodes[i].FY = nil, nil
}

// ReleaseY clears every vertical pin except those of nodes hold reports.
// A nil hold releases all of them.
func (s *Simulation) ReleaseY(hold func(i int) bool) {
	for i := range s.Nodes {
		if hold != nil && hold(i) {
			continue
		}
		s.Nodes[i].FY = nil
	}
}

// Scatter drops every node at a random spot within spread of c, clearing
// pins and velocities.
func (s *Simulation) Scatter(c geom.Point, spread float64) {
	for i := range s.Nodes {
		n := &s.Nodes[i]
		n.X = c.X + (s.rng.Float64()-0.5)*spread
		n.Y = c.Y + (s.rng.Float64()-0.5)*spread
		n.VX, n.VY = 0, 0
		n.FX, n.FY = nil, nil
	}
}

// Circles returns the footprint of every node.
func (s *Simulation) Circles() []geom.Circle {
	out := make([]geom.Circle, len(s.Nodes))
	for i := range s.Nodes {
		out[i] = geom.Circle{C: s.Nodes[i].Pos(), R: s.Nodes[i].R}
	}
	return out
}
