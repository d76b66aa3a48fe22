// Package arrange pins nodes to horizontal bands, one per promotion year.
package arrange

import (
	"math"
	"sort"

	"github.com/msalah0e/mentorgraph/internal/sim"
)

// DefaultSpacing spreads the bands beyond the viewport height.
const DefaultSpacing = 3

// Band is the vertical slot shared by one promotion.
type Band struct {
	Promo int     `json:"promo"`
	Y     float64 `json:"y"`
}

// Plan holds one target per node. Nodes without a usable promotion have
// a NaN target and are left alone.
// Hold, when set, names nodes that must keep their pins untouched, such
// as a node under an active drag.
type Plan struct {
	Bands   []Band
	Targets []float64
	Hold    func(i int) bool
}

func (p Plan) held(i int) bool { return p.Hold != nil && p.Hold(i) }

// Excluded reports whether node i has no band.
func (p Plan) Excluded(i int) bool {
	return i >= len(p.Targets) || math.IsNaN(p.Targets[i])
}

// ByPromo computes the band of every node. promoOf returns a node's
// promotion and whether it parsed; zero and unparsed promotions get no band.
// Band i of N sits at height/(N+1)*(i+1), multiplied by spacing.
func ByPromo(n int, promoOf func(i int) (int, bool), height, spacing float64) Plan {
	promos := make([]int, n)
	valid := make([]bool, n)
	seen := map[int]bool{}
	var distinct []int
	for i := 0; i < n; i++ {
		p, ok := promoOf(i)
		if !ok || p == 0 {
			continue
		}
		promos[i], valid[i] = p, true
		if !seen[p] {
			seen[p] = true
			distinct = append(distinct, p)
		}
	}
	sort.Ints(distinct)

	plan := Plan{Targets: make([]float64, n)}
	bandY := make(map[int]float64, len(distinct))
	step := height / float64(len(distinct)+1)
	for i, p := range distinct {
		y := step * float64(i+1) * spacing
		bandY[p] = y
		plan.Bands = append(plan.Bands, Band{Promo: p, Y: y})
	}
	for i := range plan.Targets {
		y, ok := bandY[promos[i]]
		if !valid[i] || !ok || !finite(y) {
			plan.Targets[i] = math.NaN()
			continue
		}
		plan.Targets[i] = y
	}
	return plan
}

// Apply pins every banded node's fy to its target and frees every fx.
// When frozen, y jumps straight to the target. A node already at its
// target, or already pinned to it, is not touched, and if no node needed
// moving Apply reports false so the caller can skip the restart. Held
// nodes are skipped entirely.
func Apply(s *sim.Simulation, plan Plan, frozen bool) (changed bool) {
	for i := range s.Nodes {
		if plan.held(i) {
			continue
		}
		n := &s.Nodes[i]
		n.FX = nil
		if plan.Excluded(i) {
			continue
		}
		y := plan.Targets[i]
		if n.Y == y || (n.FY != nil && *n.FY == y) {
			continue
		}
		s.PinY(i, y)
		if frozen {
			n.Y = y
		}
		changed = true
	}
	return changed
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
