package view

import (
	"fmt"
	"math"

	"github.com/msalah0e/mentorgraph/internal/geom"
	"github.com/msalah0e/mentorgraph/internal/interact"
	"github.com/msalah0e/mentorgraph/internal/scene"
)

// button is one control drawn in the top right corner of the canvas.
type button struct {
	command string
	class   string
	title   string
	icon    func(stroke string) []*scene.Element
}

var buttons = []button{
	{CmdFit, "reset-zoom-btn", "Auto Zoom to Fit", fitIcon},
	{CmdArrange, "arrange-promo-btn", "Arrange by Promo", arrangeIcon},
	{CmdFreeze, "freeze-forces-btn", "Freeze Forces", freezeIcon},
	{CmdRandomize, "redraw-random-btn", "Redraw Randomly", redrawIcon},
}

const (
	fitPath     = "m-125 188l-1 0-93-94-156 156 156 156 92-93 2 0 0 250-250 0 0-2 93-92-156-156-156 156 94 92 0 2-250 0 0-250 0 0 93 93 157-156-157-156-93 94 0 0 0-250 250 0 0 0-94 93 156 157 156-157-93-93 0 0 250 0 0 250z"
	arrangePath = "M12,14 H24 M12,18 H24 M12,22 H24"
	freezePath  = "M21.16,16.13l-2-1.15.89-.24a1,1,0,1,0-.52-1.93l-2.82.76L14,12l2.71-1.57,2.82.76.26,0a1,1,0,0,0,.26-2L19.16,9l2-1.15a1,1,0,0,0-1-1.74L18,7.37l.3-1.11a1,1,0,1,0-1.93-.52l-.82,3L13,10.27V7.14l2.07-2.07a1,1,0,0,0,0-1.41,1,1,0,0,0-1.42,0L13,4.31V2a1,1,0,0,0-2,0V4.47l-.81-.81a1,1,0,0,0-1.42,0,1,1,0,0,0,0,1.41L11,7.3v3L8.43,8.78l-.82-3a1,1,0,1,0-1.93.52L6,7.37,3.84,6.13a1,1,0,0,0-1,1.74L4.84,9,4,9.26a1,1,0,0,0,.26,2l.26,0,2.82-.76L10,12,7.29,13.57l-2.82-.76A1,1,0,1,0,4,14.74l.89.24-2,1.15a1,1,0,0,0,1,1.74L6,16.63l-.3,1.11A1,1,0,0,0,6.39,19a1.15,1.15,0,0,0,.26,0,1,1,0,0,0,1-.74l.82-3L11,13.73v3.13L8.93,18.93a1,1,0,0,0,0,1.41,1,1,0,0,0,.71.3,1,1,0,0,0,.71-.3l.65-.65V22a1,1,0,0,0,2,0V19.53l.81.81a1,1,0,0,0,1.42,0,1,1,0,0,0,0-1.41L13,16.7v-3l2.57,1.49.82,3a1,1,0,0,0,1,.74,1.15,1.15,0,0,0,.26,0,1,1,0,0,0,.71-1.23L18,16.63l2.14,1.24a1,1,0,1,0,1-1.74Z"
	arrowPath   = "M -10,-5 L 0,0 L -10,5"
)

func iconPath(d, stroke string, width float64) *scene.Element {
	return scene.New("path").
		Set("d", d).
		Set("stroke", stroke).
		SetNum("stroke-width", width).
		Set("fill", "none").
		Set("stroke-linecap", "round")
}

func fitIcon(stroke string) []*scene.Element {
	return []*scene.Element{
		iconPath(fitPath, stroke, 30).Set("transform", "scale(0.032) translate(1000, 300)"),
	}
}

func arrangeIcon(stroke string) []*scene.Element {
	return []*scene.Element{iconPath(arrangePath, stroke, 2)}
}

func freezeIcon(stroke string) []*scene.Element {
	return []*scene.Element{iconPath(freezePath, stroke, 1).Set("transform", "translate(6, 6)")}
}

// redrawIcon is an almost closed circular arrow.
func redrawIcon(stroke string) []*scene.Element {
	const (
		cx, cy, r  = 18.0, 18.0, 10.0
		startAngle = -90.0
		sweep      = 324.0
		arrowLen   = 7.0
		arrowAngle = 30.0
	)
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	end := startAngle + sweep
	ex, ey := cx+r*math.Cos(rad(end)), cy+r*math.Sin(rad(end))
	tangent := end + 70
	line := func(angle float64) *scene.Element {
		return scene.New("line").
			SetNum("x1", ex).SetNum("y1", ey).
			SetNum("x2", ex-arrowLen*math.Cos(rad(angle))).
			SetNum("y2", ey-arrowLen*math.Sin(rad(angle))).
			Set("stroke", stroke).
			Set("stroke-width", "2").
			Set("stroke-linecap", "round")
	}
	arc := fmt.Sprintf("M %s %s A %s %s 0 1 1 %s %s",
		scene.Num(cx), scene.Num(cy-r), scene.Num(r), scene.Num(r), scene.Num(ex), scene.Num(ey))
	return []*scene.Element{
		iconPath(arc, stroke, 2),
		line(tangent - arrowAngle),
		line(tangent + arrowAngle),
	}
}

// buttonRect is where the nth button (counting from the right, from 1)
// sits in screen space.
func (v *View) buttonRect(n int) geom.Rect {
	p := v.opts.Theme.Palette
	x := v.vp.Size().X - float64(n)*(p.ButtonSize+p.ButtonPadding)
	return geom.RectXYWH(x, p.ButtonPadding, p.ButtonSize, p.ButtonSize)
}

// ButtonAt implements interact.Host.
func (v *View) ButtonAt(screen geom.Point) (string, bool) {
	for i, b := range buttons {
		r := v.buttonRect(i + 1)
		if screen.X >= r.MinX && screen.X <= r.MaxX && screen.Y >= r.MinY && screen.Y <= r.MaxY {
			return b.command, true
		}
	}
	return "", false
}

// Scene draws the current frame. Buttons live on the root, outside the
// transformed graph group, so they stay put while the graph pans and zooms.
func (v *View) Scene() *scene.Element {
	size := v.vp.Size()
	root := scene.New("svg", "mentorgraph").
		SetNum("width", size.X).
		SetNum("height", size.Y)
	g := scene.New("g", "graph").Set("transform", v.vp.Current().String())
	root.Append(g)
	if v.gen != nil {
		v.drawGraph(g)
	}
	p := v.opts.Theme.Palette
	for i, b := range buttons {
		r := v.buttonRect(i + 1)
		btn := scene.New("g", "graph-btn", b.class).
			Set("transform", fmt.Sprintf("translate(%s,%s)", scene.Num(r.MinX), scene.Num(r.MinY)))
		btn.Append(
			scene.New("rect").
				SetNum("width", p.ButtonSize).
				SetNum("height", p.ButtonSize).
				Set("rx", "8").
				Set("fill", p.ButtonFill).
				Set("stroke", p.ButtonStroke).
				Set("stroke-width", "1.5"),
			scene.New("title").WithText(b.title),
		)
		btn.Append(b.icon(p.IconStroke)...)
		root.Append(btn)
	}
	return root
}

func (v *View) drawGraph(g *scene.Element) {
	gen := v.gen
	p := v.opts.Theme.Palette
	nodes := gen.sim.Nodes

	defs := scene.New("defs")
	for _, c := range gen.graph.Colors() {
		defs.Append(scene.New("marker").WithID(scene.MarkerID(c)).
			Set("viewBox", "-10 -5 20 10").
			Set("refX", "0").
			Set("refY", "0").
			Set("orient", "auto").
			Set("markerWidth", "12").
			Set("markerHeight", "12").
			Set("xoverflow", "visible").
			Append(scene.New("path").Set("d", arrowPath).Set("fill", c)))
	}
	g.Append(defs)

	paths := make([]string, len(gen.graph.Links))
	for j, l := range gen.graph.Links {
		s, t := &nodes[l.Source], &nodes[l.Target]
		a, b := geom.TrimSegment(s.Pos(), t.Pos(), s.R, t.R)
		paths[j] = fmt.Sprintf("M%s,%sL%s,%s", scene.Num(a.X), scene.Num(a.Y), scene.Num(b.X), scene.Num(b.Y))
	}

	links := scene.New("g", "links").Set("stroke-width", scene.Num(v.opts.Interact.LinkWidth))
	for j, l := range gen.graph.Links {
		stroke, opacity := l.Color, 1.0
		if gen.ctl.LinkState(j) == interact.LinkDimmed {
			stroke, opacity = p.DimmedLink, p.DimOpacity
		}
		links.Append(scene.New("path", "link").
			Set("d", paths[j]).
			Set("marker-end", "url(#"+scene.MarkerID(l.Color)+")").
			Set("stroke", stroke).
			SetNum("opacity", opacity))
	}
	g.Append(links)

	g.Append(v.drawHover())

	hits := scene.New("g", "hit-areas")
	for j := range gen.graph.Links {
		hits.Append(scene.New("path", "link-hover").
			Set("d", paths[j]).
			Set("stroke", "transparent").
			SetNum("stroke-width", v.opts.Interact.HitWidth).
			Set("fill", "none"))
	}
	g.Append(hits)

	students := scene.New("g", "nodes")
	for i, n := range gen.graph.Nodes {
		sn := nodes[i]
		fill := p.NodeFill
		if gen.ctl.NodeState(i) == interact.NodeDimmed {
			fill = p.DimmedNode
		}
		lines := n.Label.Lines()
		node := scene.New("g", "student").
			Set("data-id", n.ID).
			Set("transform", fmt.Sprintf("translate(%s,%s)", scene.Num(sn.X), scene.Num(sn.Y)))
		node.Append(
			scene.New("circle").SetNum("r", sn.R).Set("fill", fill),
			scene.New("text", "label").
				SetNum("y", labelTop).
				Set("text-anchor", "middle").
				SetNum("font-size", p.LabelFontSize).
				WithText(lines[0]),
			scene.New("text", "label").
				SetNum("y", labelBottom).
				Set("text-anchor", "middle").
				SetNum("font-size", p.LabelFontSize).
				WithText(lines[1]),
		)
		students.Append(node)
	}
	g.Append(students)
}

func (v *View) drawHover() *scene.Element {
	h := v.gen.ctl.Hover()
	p := v.opts.Theme.Palette
	group := scene.New("g", "hover-label").Set("pointer-events", "none")
	if !h.Visible {
		group.Set("display", "none")
	}
	bg := scene.New("rect").Set("rx", "6").Set("ry", "6")
	if h.Box != nil {
		bg.SetNum("x", h.Box.MinX).
			SetNum("y", h.Box.MinY).
			SetNum("width", h.Box.Width()).
			SetNum("height", h.Box.Height()).
			Set("fill", h.Fill).
			SetNum("opacity", h.Opacity)
	} else {
		bg.Set("fill", p.HoverFill).SetNum("opacity", v.opts.Interact.HoverOpacity)
	}
	text := scene.New("text", "hover-link-label").
		SetNum("x", h.Anchor.X).
		SetNum("y", h.Anchor.Y).
		Set("text-anchor", "middle").
		SetNum("font-size", p.HoverFontSize).
		Set("fill", h.TextColor).
		WithText(h.Text)
	return group.Append(bg, text)
}
