// Package interact turns pointer input into drags, selection and link
// hover labels for one render generation of the graph view.
package interact

import (
	"github.com/msalah0e/mentorgraph/internal/geom"
	"github.com/msalah0e/mentorgraph/internal/graph"
	"github.com/msalah0e/mentorgraph/internal/loop"
	"github.com/msalah0e/mentorgraph/internal/scene"
	"github.com/msalah0e/mentorgraph/internal/sim"
	"github.com/msalah0e/mentorgraph/internal/viewport"
)

// Host is the view a controller acts on.
type Host interface {
	Simulation() *sim.Simulation
	Graph() *graph.Graph
	Viewport() *viewport.Manager
	Frozen() bool
	// DisableAutoFit stops the view from fitting itself when the
	// simulation settles.
	DisableAutoFit()
	// Invalidate marks the scene as changed.
	Invalidate()
	// ButtonAt names the control button under a screen point, if any.
	ButtonAt(screen geom.Point) (string, bool)
	// Press runs a control button.
	Press(name string)
}

// Options tune hit testing and drag energy.
type Options struct {
	HitWidth        float64
	LinkWidth       float64
	ClickDistance   float64
	DragAlpha       float64
	DragAlphaTarget float64
	HoverFontSize   float64
	HoverOffset     float64
	HoverOpacity    float64
}

// DefaultOptions returns the stock interaction tuning.
func DefaultOptions() Options {
	return Options{
		HitWidth:        20,
		LinkWidth:       2,
		ClickDistance:   3,
		DragAlpha:       0.3,
		DragAlphaTarget: 0.3,
		HoverFontSize:   16,
		HoverOffset:     10,
		HoverOpacity:    0.5,
	}
}

// NodeState is how a node is drawn given the selection.
type NodeState int

const (
	NodeNormal NodeState = iota
	NodeHighlighted
	NodeDimmed
)

func (s NodeState) String() string {
	switch s {
	case NodeHighlighted:
		return "highlighted"
	case NodeDimmed:
		return "dimmed"
	}
	return "normal"
}

// MarshalText implements encoding.TextMarshaler.
func (s NodeState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// LinkState is how a link is drawn given the selection.
type LinkState int

const (
	LinkNormal LinkState = iota
	LinkEmphasized
	LinkDimmed
)

func (s LinkState) String() string {
	switch s {
	case LinkEmphasized:
		return "emphasized"
	case LinkDimmed:
		return "dimmed"
	}
	return "normal"
}

// MarshalText implements encoding.TextMarshaler.
func (s LinkState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Controller holds the gesture state of one render generation. It is not
// safe for concurrent use; the view calls it from its run loop.
type Controller struct {
	host    Host
	scope   *loop.Scope
	opts    Options
	measure scene.Measurer

	drags    map[int]int
	selected int
	hover    HoverLabel
	pointers map[int]*press
}

// New returns a controller bound to host. Continuations are scheduled on
// scope so they die with the render generation.
func New(host Host, scope *loop.Scope, m scene.Measurer, opts Options) *Controller {
	if m == nil {
		m = scene.ApproxMeasurer{}
	}
	return &Controller{
		host:     host,
		scope:    scope,
		opts:     opts,
		measure:  m,
		drags:    map[int]int{},
		selected: -1,
		hover:    HoverLabel{Link: -1},
		pointers: map[int]*press{},
	}
}

// Dragging reports how many drags are in progress.
func (c *Controller) Dragging() int { return len(c.drags) }

// Holding reports whether a pointer is dragging node.
func (c *Controller) Holding(node int) bool {
	for _, n := range c.drags {
		if n == node {
			return true
		}
	}
	return false
}

// DragStart pins node at its current position.
func (c *Controller) DragStart(pointer, node int) {
	s := c.host.Simulation()
	if node < 0 || node >= len(s.Nodes) {
		return
	}
	n := &s.Nodes[node]
	s.Pin(node, n.X, n.Y)
	c.drags[pointer] = node
	c.host.DisableAutoFit()
}

// DragMove moves the pin of the node held by pointer and keeps the
// simulation alive. Forces stay off while frozen.
func (c *Controller) DragMove(pointer int, p geom.Point) {
	node, ok := c.drags[pointer]
	if !ok {
		return
	}
	s := c.host.Simulation()
	strength := s.Params().ForceStrength
	if c.host.Frozen() {
		strength = 0
	}
	s.Restart(c.opts.DragAlpha, c.opts.DragAlphaTarget, strength)
	s.Pin(node, p.X, p.Y)
	c.host.Invalidate()
}

// DragEnd frees the node held by pointer. The last drag to end lets the
// simulation cool down.
func (c *Controller) DragEnd(pointer int) {
	node, ok := c.drags[pointer]
	if !ok {
		return
	}
	delete(c.drags, pointer)
	s := c.host.Simulation()
	s.Unpin(node)
	if len(c.drags) == 0 {
		s.SetAlphaTarget(0)
	}
	c.host.Invalidate()
}

// Click toggles the selection of node.
func (c *Controller) Click(node int) {
	if node < 0 || node >= len(c.host.Graph().Nodes) {
		return
	}
	if c.selected == node {
		c.selected = -1
	} else {
		c.selected = node
	}
	c.host.Invalidate()
}

// ClickCanvas clears the selection.
func (c *Controller) ClickCanvas() {
	if c.selected < 0 {
		return
	}
	c.selected = -1
	c.host.Invalidate()
}

// Selected returns the selected node.
func (c *Controller) Selected() (int, bool) {
	return c.selected, c.selected >= 0
}

// NodeState returns the state of node i.
func (c *Controller) NodeState(i int) NodeState {
	if c.selected < 0 {
		return NodeNormal
	}
	if i == c.selected || c.host.Graph().Adjacent(c.selected, i) {
		return NodeHighlighted
	}
	return NodeDimmed
}

// LinkState returns the state of link j.
func (c *Controller) LinkState(j int) LinkState {
	if c.selected < 0 {
		return LinkNormal
	}
	links := c.host.Graph().Links
	if j < 0 || j >= len(links) {
		return LinkNormal
	}
	if links[j].Source == c.selected || links[j].Target == c.selected {
		return LinkEmphasized
	}
	return LinkDimmed
}

// Highlighted lists the highlighted nodes.
func (c *Controller) Highlighted() []int {
	var out []int
	for i := range c.host.Graph().Nodes {
		if c.NodeState(i) == NodeHighlighted {
			out = append(out, i)
		}
	}
	return out
}
