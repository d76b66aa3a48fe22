// Package export turns the live graph scene into a standalone SVG document
// and hands it to a save destination.
package export

import (
	"fmt"

	"github.com/msalah0e/mentorgraph/internal/geom"
	"github.com/msalah0e/mentorgraph/internal/scene"
)

// Classes of interactive-only elements that never reach an export.
var Interactive = []string{"graph-btn", "link-hover", "hover-link-label", "hover-label"}

// Options control a snapshot.
type Options struct {
	PaddingRatio float64
	Background   string
	// Width and Height are the canvas size used when there is nothing to
	// measure and the live root carries no size of its own.
	Width, Height float64
	Rules         scene.Stylesheet
	Measurer      scene.Measurer
}

// DefaultOptions match the exports the mentoring graph has always produced.
func DefaultOptions() Options {
	return Options{
		PaddingRatio: 0.1,
		Background:   "#f0f0f0",
		Width:        800,
		Height:       600,
	}
}

// Result is an exported document and the padded box it frames, in graph
// coordinates.
type Result struct {
	SVG  []byte
	Box  geom.Rect
	Root *scene.Element
}

// Snapshot builds the export of live without touching it.
func Snapshot(live *scene.Element, opts Options) (*Result, error) {
	if live == nil || live.Tag != "svg" {
		return nil, fmt.Errorf("snapshot: live scene must be an <svg> root")
	}
	doc := live.Clone()
	for _, c := range Interactive {
		doc.RemoveIf(scene.ByClass(c))
	}

	graph := doc.Find(func(e *scene.Element) bool { return e != doc && e.Tag == "g" })
	box := geom.EmptyRect()
	if graph != nil {
		box = scene.BBox(graph, opts.Measurer)
	}
	if box.Empty() {
		w, h := opts.Width, opts.Height
		if v, ok := doc.Float("width"); ok && v > 0 {
			w = v
		}
		if v, ok := doc.Float("height"); ok && v > 0 {
			h = v
		}
		box = geom.RectXYWH(0, 0, w, h)
	}
	box = box.Pad(opts.PaddingRatio)
	w, h := box.Width(), box.Height()

	css := opts.Rules.Applicable(doc)
	doc.Insert(0, scene.New("style").WithText(css.CSS()))
	doc.Insert(1, scene.New("rect").
		Set("x", "0").Set("y", "0").
		SetNum("width", w).SetNum("height", h).
		Set("fill", opts.Background))

	if graph != nil {
		graph.Set("transform", fmt.Sprintf("translate(%s,%s)", scene.Num(-box.MinX), scene.Num(-box.MinY)))
	}
	doc.Set("viewBox", fmt.Sprintf("0 0 %s %s", scene.Num(w), scene.Num(h)))
	doc.SetNum("width", w)
	doc.SetNum("height", h)

	data, err := scene.MarshalSVG(doc)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &Result{SVG: data, Box: box, Root: doc}, nil
}
