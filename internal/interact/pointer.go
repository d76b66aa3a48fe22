package interact

import (
	"fmt"
	"math"

	"github.com/msalah0e/mentorgraph/internal/geom"
	"github.com/msalah0e/mentorgraph/internal/viewport"
)

// PointerKind names a raw pointer event.
type PointerKind string

const (
	PointerDown  PointerKind = "down"
	PointerMove  PointerKind = "move"
	PointerUp    PointerKind = "up"
	PointerWheel PointerKind = "wheel"
	PointerLeave PointerKind = "leave"
)

// PointerEvent is one raw event in screen space.
type PointerEvent struct {
	Kind   PointerKind `json:"kind"`
	ID     int         `json:"id"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	DeltaY float64     `json:"deltaY,omitempty"`
}

// Point returns the event position.
func (e PointerEvent) Point() geom.Point { return geom.Point{X: e.X, Y: e.Y} }

type pressKind int

const (
	pressCanvas pressKind = iota
	pressNode
	pressButton
)

// press tracks one pointer from down to up.
type press struct {
	kind   pressKind
	node   int
	button string
	down   geom.Point
	last   geom.Point
	moved  bool
}

// Pointer dispatches a raw event. Presses on a node drag it, presses on
// the canvas pan, an up close enough to its down is a click, the wheel
// zooms about the pointer and moving over a link shows its label.
func (c *Controller) Pointer(ev PointerEvent) error {
	p := ev.Point()
	if !geom.IsFinite(p.X) || !geom.IsFinite(p.Y) {
		return fmt.Errorf("pointer %s: non-finite position", ev.Kind)
	}
	switch ev.Kind {
	case PointerDown:
		c.pointerDown(ev.ID, p)
	case PointerMove:
		c.pointerMove(ev.ID, p)
	case PointerUp:
		c.pointerUp(ev.ID, p)
	case PointerWheel:
		c.host.Viewport().Apply(viewport.Gesture{Zoom: wheelFactor(ev.DeltaY), Anchor: p})
		c.host.Invalidate()
	case PointerLeave:
		if _, ok := c.pointers[ev.ID]; ok {
			c.DragEnd(ev.ID)
			delete(c.pointers, ev.ID)
		}
		c.HoverLeave()
	default:
		return fmt.Errorf("unknown pointer event %q", ev.Kind)
	}
	return nil
}

// wheelFactor is d3's pixel-mode wheel delta.
func wheelFactor(deltaY float64) float64 {
	return math.Pow(2, -deltaY*0.002)
}

func (c *Controller) pointerDown(id int, p geom.Point) {
	pr := &press{down: p, last: p, node: -1}
	if name, ok := c.host.ButtonAt(p); ok {
		pr.kind, pr.button = pressButton, name
	} else if i, ok := c.NodeAt(p); ok {
		pr.kind, pr.node = pressNode, i
		c.DragStart(id, i)
	}
	c.pointers[id] = pr
}

func (c *Controller) pointerMove(id int, p geom.Point) {
	pr, ok := c.pointers[id]
	if !ok {
		c.hoverAt(p)
		return
	}
	if p.Dist(pr.down) > c.opts.ClickDistance {
		pr.moved = true
	}
	switch pr.kind {
	case pressNode:
		c.DragMove(id, c.host.Viewport().Invert(p))
	case pressCanvas:
		c.host.Viewport().Apply(viewport.Gesture{Pan: p.Sub(pr.last), Zoom: 1})
		c.host.Invalidate()
	}
	pr.last = p
}

func (c *Controller) pointerUp(id int, p geom.Point) {
	pr, ok := c.pointers[id]
	if !ok {
		return
	}
	delete(c.pointers, id)
	click := !pr.moved && p.Dist(pr.down) <= c.opts.ClickDistance
	switch pr.kind {
	case pressNode:
		c.DragEnd(id)
		if click {
			c.Click(pr.node)
		}
	case pressButton:
		if name, ok := c.host.ButtonAt(p); ok && click && name == pr.button {
			c.host.Press(name)
		}
	case pressCanvas:
		if click {
			c.ClickCanvas()
		}
	}
}

func (c *Controller) hoverAt(p geom.Point) {
	j, ok := c.LinkAt(p)
	switch {
	case !ok:
		c.HoverLeave()
	case c.hover.Visible && c.hover.Link == j:
		c.HoverMove(p)
	default:
		c.HoverEnter(j, p)
	}
}

// NodeAt returns the topmost node under a screen point.
func (c *Controller) NodeAt(screen geom.Point) (int, bool) {
	p := c.host.Viewport().Invert(screen)
	nodes := c.host.Simulation().Nodes
	for i := len(nodes) - 1; i >= 0; i-- {
		if p.Dist(nodes[i].Pos()) <= nodes[i].R {
			return i, true
		}
	}
	return -1, false
}

// LinkAt returns the topmost link whose hit region contains a screen
// point. The region is HitWidth wide around the trimmed segment, or the
// stroke width if that is wider. Points over a node never hit a link.
func (c *Controller) LinkAt(screen geom.Point) (int, bool) {
	if _, ok := c.NodeAt(screen); ok {
		return -1, false
	}
	p := c.host.Viewport().Invert(screen)
	half := math.Max(c.opts.HitWidth, c.opts.LinkWidth) / 2
	nodes := c.host.Simulation().Nodes
	links := c.host.Graph().Links
	for j := len(links) - 1; j >= 0; j-- {
		s, t := &nodes[links[j].Source], &nodes[links[j].Target]
		a, b := geom.TrimSegment(s.Pos(), t.Pos(), s.R, t.R)
		if geom.DistToSegment(p, a, b) <= half {
			return j, true
		}
	}
	return -1, false
}
