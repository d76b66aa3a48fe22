package interact

import (
	"github.com/msalah0e/mentorgraph/internal/dataset"
	"github.com/msalah0e/mentorgraph/internal/geom"
	"github.com/msalah0e/mentorgraph/internal/scene"
)

// HoverLabel is the floating label of the hovered link, in simulation
// space. Box is nil until the text has been measured.
type HoverLabel struct {
	Visible   bool       `json:"visible"`
	Link      int        `json:"link"`
	Text      string     `json:"text"`
	Anchor    geom.Point `json:"anchor"`
	TextColor string     `json:"textColor"`
	Fill      string     `json:"fill"`
	Opacity   float64    `json:"opacity"`
	FontSize  float64    `json:"fontSize"`
	Box       *geom.Rect `json:"box,omitempty"`
}

// Hover returns the current label.
func (c *Controller) Hover() HoverLabel { return c.hover }

// HoverEnter shows the label of link at a screen point.
func (c *Controller) HoverEnter(link int, screen geom.Point) {
	links := c.host.Graph().Links
	if link < 0 || link >= len(links) {
		return
	}
	l := links[link]
	c.hover = HoverLabel{
		Visible:   true,
		Link:      link,
		Text:      dataset.DisplayLinkLabel(l.Raw),
		TextColor: scene.ContrastText(l.Color),
		Fill:      l.Color,
		Opacity:   c.opts.HoverOpacity,
		FontSize:  c.opts.HoverFontSize,
	}
	c.HoverMove(screen)
}

// HoverMove follows the pointer.
func (c *Controller) HoverMove(screen geom.Point) {
	if !c.hover.Visible {
		return
	}
	p := c.host.Viewport().Invert(screen)
	c.hover.Anchor = geom.Point{X: p.X, Y: p.Y - c.opts.HoverOffset}
	c.host.Invalidate()
	c.scope.After(0, c.measureHover)
}

// HoverLeave hides the label.
func (c *Controller) HoverLeave() {
	if !c.hover.Visible {
		return
	}
	c.hover = HoverLabel{Link: -1}
	c.host.Invalidate()
}

// measureHover sizes the label background once the text is in place.
func (c *Controller) measureHover() {
	if !c.hover.Visible {
		return
	}
	ext := c.measure.Measure(c.hover.Text, c.hover.FontSize)
	a := c.hover.Anchor
	text := geom.RectXYWH(a.X-ext.Width/2, a.Y-ext.Ascent, ext.Width, ext.Ascent+ext.Descent)
	box := text.Expand(8, 4)
	c.hover.Box = &box
	c.host.Invalidate()
}
