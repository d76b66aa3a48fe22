package sim

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/mentorgraph/internal/geom"
)

func makeNodes(n int, r float64) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{ID: fmt.Sprintf("n%d", i), R: r}
	}
	return nodes
}

func runToEnd(t *testing.T, s *Simulation) int {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if s.Step() {
			return i + 1
		}
	}
	t.Fatal("simulation never ended")
	return 0
}

func assertFinite(t *testing.T, s *Simulation) {
	t.Helper()
	for _, n := range s.Nodes {
		require.True(t, geom.IsFinite(n.X) && geom.IsFinite(n.Y), "node %s at (%v, %v)", n.ID, n.X, n.Y)
		require.True(t, geom.IsFinite(n.VX) && geom.IsFinite(n.VY), "node %s velocity (%v, %v)", n.ID, n.VX, n.VY)
	}
}

func TestCoefficientsMoveInLockStep(t *testing.T) {
	for _, s := range []float64{0, 1, 100, 250} {
		c := CoefficientsFor(s)
		assert.InDelta(t, 0.0001*s, c.Link, 1e-12)
		assert.InDelta(t, -s, c.Charge, 1e-12)
		assert.InDelta(t, 0.003*s, c.Center, 1e-12)
		assert.InDelta(t, 0.003*s, c.Collision, 1e-12)
	}
	zero := CoefficientsFor(0)
	assert.Zero(t, zero.Link)
	assert.Zero(t, zero.Center)
	assert.Zero(t, zero.Collision)
}

func TestEndsAndDecays(t *testing.T) {
	p := DefaultParams()
	s := New(makeNodes(3, 20), []Link{{0, 1}, {1, 2}}, p, geom.Point{X: 400, Y: 300}, 1)
	s.Restart(1, 0, p.ForceStrength)
	require.True(t, s.Running())

	ticks := runToEnd(t, s)
	assert.False(t, s.Running())
	assert.Less(t, s.Alpha(), p.AlphaMin)
	// (1-0.05)^n < 0.001
	assert.Equal(t, int(math.Ceil(math.Log(p.AlphaMin)/math.Log(1-p.AlphaDecay))), ticks)

	// a stopped simulation does not move
	before := s.Nodes[0]
	assert.False(t, s.Step())
	assert.Equal(t, before.X, s.Nodes[0].X)
}

func TestAlphaTargetKeepsSimulationAlive(t *testing.T) {
	p := DefaultParams()
	s := New(makeNodes(2, 10), []Link{{0, 1}}, p, geom.Point{}, 1)
	s.Restart(0.3, 0.3, p.ForceStrength)
	for i := 0; i < 500; i++ {
		require.False(t, s.Step())
	}
	assert.InDelta(t, 0.3, s.Alpha(), 1e-9)

	s.SetAlphaTarget(0)
	runToEnd(t, s)
}

func TestNoOverlapAfterSettling(t *testing.T) {
	p := DefaultParams()
	nodes := makeNodes(6, 30)
	links := []Link{{0, 1}, {0, 2}, {2, 3}, {3, 4}, {1, 5}}
	s := New(nodes, links, p, geom.Point{X: 400, Y: 300}, 42)
	s.Restart(1, 0, p.ForceStrength)
	runToEnd(t, s)
	assertFinite(t, s)

	for i := range s.Nodes {
		for j := i + 1; j < len(s.Nodes); j++ {
			a, b := s.Nodes[i], s.Nodes[j]
			d := a.Pos().Dist(b.Pos())
			assert.GreaterOrEqual(t, d, a.R+b.R, "nodes %s and %s overlap", a.ID, b.ID)
		}
	}
}

func TestDegenerateSetsStayFinite(t *testing.T) {
	p := DefaultParams()

	empty := New(nil, nil, p, geom.Point{X: 1, Y: 1}, 1)
	empty.Restart(1, 0, p.ForceStrength)
	runToEnd(t, empty)

	single := New(makeNodes(1, 15), nil, p, geom.Point{X: 50, Y: 50}, 1)
	single.Restart(1, 0, p.ForceStrength)
	runToEnd(t, single)
	assertFinite(t, single)

	loop := New(makeNodes(2, 15), []Link{{0, 0}, {1, 1}, {0, 1}}, p, geom.Point{}, 1)
	loop.Restart(1, 0, p.ForceStrength)
	runToEnd(t, loop)
	assertFinite(t, loop)
}

func TestCoincidentNodesStayFinite(t *testing.T) {
	p := DefaultParams()
	s := New(makeNodes(3, 10), []Link{{0, 1}}, p, geom.Point{}, 7)
	for i := range s.Nodes {
		s.Nodes[i].X, s.Nodes[i].Y = 5, 5
	}
	s.Restart(1, 0, p.ForceStrength)
	runToEnd(t, s)
	assertFinite(t, s)
	assert.NotEqual(t, s.Nodes[0].Pos(), s.Nodes[1].Pos())
}

func TestOutOfRangeLinksDropped(t *testing.T) {
	s := New(makeNodes(2, 10), []Link{{0, 1}, {0, 5}, {-1, 1}}, DefaultParams(), geom.Point{}, 1)
	assert.Len(t, s.Links(), 1)
}

func TestPinnedAxisHolds(t *testing.T) {
	p := DefaultParams()
	s := New(makeNodes(4, 20), []Link{{0, 1}, {1, 2}, {2, 3}}, p, geom.Point{X: 200, Y: 200}, 3)
	s.Pin(0, 10, 20)
	s.PinY(1, -40)
	s.Restart(1, 0, p.ForceStrength)

	for i := 0; i < 60; i++ {
		s.Tick()
		require.Equal(t, 10.0, s.Nodes[0].X)
		require.Equal(t, 20.0, s.Nodes[0].Y)
		require.Equal(t, -40.0, s.Nodes[1].Y)
	}

	s.Unpin(0)
	s.Restart(1, 0, p.ForceStrength)
	s.Tick()
	moved := s.Nodes[0].X != 10 || s.Nodes[0].Y != 20
	assert.True(t, moved, "unpinned node should move on the next tick")
}

func TestZeroStrengthCoastsToRest(t *testing.T) {
	p := DefaultParams()
	s := New(makeNodes(3, 20), []Link{{0, 1}, {1, 2}}, p, geom.Point{X: 300, Y: 300}, 1)
	s.Restart(1, 0, p.ForceStrength)
	for i := 0; i < 5; i++ {
		s.Step()
	}
	s.Restart(0, 0, 0)
	assert.Equal(t, Coefficients{Charge: 0}, s.Coefficients())

	for i := 0; i < 200; i++ {
		s.Tick()
	}
	a := s.Nodes[0].Pos()
	s.Tick()
	assert.InDelta(t, a.X, s.Nodes[0].X, 1e-9)
	assert.InDelta(t, a.Y, s.Nodes[0].Y, 1e-9)
}

func TestScatterClearsPins(t *testing.T) {
	s := New(makeNodes(5, 10), nil, DefaultParams(), geom.Point{}, 9)
	s.Pin(2, 1, 1)
	c := geom.Point{X: 100, Y: 100}
	s.Scatter(c, 40)
	for _, n := range s.Nodes {
		assert.False(t, n.Pinned())
		assert.LessOrEqual(t, math.Abs(n.X-c.X), 20.0)
		assert.LessOrEqual(t, math.Abs(n.Y-c.Y), 20.0)
	}
}
