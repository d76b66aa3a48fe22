package scene

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"
)

// errWriter remembers the first write error so the svgo calls, which do
// not return errors, can be checked once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, nil
}

// WriteSVG serialises root as a standalone SVG document, XML prolog
// included. root must be an svg element.
func WriteSVG(w io.Writer, root *Element) error {
	if root == nil || root.Tag != "svg" {
		return fmt.Errorf("write svg: root must be <svg>")
	}
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Startraw(attrList(root, nil)...)
	for _, c := range root.Children {
		writeElement(canvas, c)
	}
	canvas.End()
	return ew.err
}

// MarshalSVG is WriteSVG into a byte slice.
func MarshalSVG(root *Element) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// attrList renders id, class and every attribute not in skip as name="value"
// strings, which svgo passes through untouched.
func attrList(el *Element, skip map[string]bool) []string {
	var out []string
	if el.ID != "" {
		out = append(out, `id="`+escape(el.ID)+`"`)
	}
	if len(el.Class) > 0 {
		cls := ""
		for i, c := range el.Class {
			if i > 0 {
				cls += " "
			}
			cls += c
		}
		out = append(out, `class="`+escape(cls)+`"`)
	}
	for _, a := range el.Attrs {
		if skip[a.Name] {
			continue
		}
		out = append(out, a.Name+`="`+escape(a.Value)+`"`)
	}
	return out
}

// ints reads the named attributes as integers. A missing attribute is 0;
// a fractional or malformed one makes ok false.
func ints(el *Element, names ...string) (vals []int, skip map[string]bool, ok bool) {
	skip = make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
		v, present := el.Get(n)
		if !present {
			vals = append(vals, 0)
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil, nil, false
		}
		vals = append(vals, int(f))
	}
	return vals, skip, true
}

func writeChildren(canvas *svg.SVG, el *Element) {
	for _, c := range el.Children {
		writeElement(canvas, c)
	}
}

func writeElement(canvas *svg.SVG, el *Element) {
	switch el.Tag {
	case "g":
		canvas.Group(attrList(el, nil)...)
		writeChildren(canvas, el)
		canvas.Gend()
		return
	case "defs":
		if el.ID == "" && len(el.Class) == 0 && len(el.Attrs) == 0 {
			canvas.Def()
			writeChildren(canvas, el)
			canvas.DefEnd()
			return
		}
	case "style":
		canvas.Style("text/css", el.Text)
		return
	case "title":
		if len(el.Children) == 0 {
			canvas.Title(el.Text)
			return
		}
	case "marker":
		if v, skip, ok := ints(el, "refX", "refY", "markerWidth", "markerHeight"); ok && el.ID != "" {
			id := el.ID
			el := *el
			el.ID = ""
			canvas.Marker(id, v[0], v[1], v[2], v[3], attrList(&el, skip)...)
			writeChildren(canvas, &el)
			canvas.MarkerEnd()
			return
		}
	case "path":
		if d, ok := el.Get("d"); ok && len(el.Children) == 0 {
			canvas.Path(d, attrList(el, map[string]bool{"d": true})...)
			return
		}
	case "circle":
		if v, skip, ok := ints(el, "cx", "cy", "r"); ok && len(el.Children) == 0 {
			canvas.Circle(v[0], v[1], v[2], attrList(el, skip)...)
			return
		}
	case "rect":
		if v, skip, ok := ints(el, "x", "y", "width", "height"); ok && len(el.Children) == 0 {
			canvas.Rect(v[0], v[1], v[2], v[3], attrList(el, skip)...)
			return
		}
	case "line":
		if v, skip, ok := ints(el, "x1", "y1", "x2", "y2"); ok && len(el.Children) == 0 {
			canvas.Line(v[0], v[1], v[2], v[3], attrList(el, skip)...)
			return
		}
	case "text":
		if v, skip, ok := ints(el, "x", "y"); ok && len(el.Children) == 0 {
			canvas.Text(v[0], v[1], el.Text, attrList(el, skip)...)
			return
		}
	}
	writeRaw(canvas, el)
}

// writeRaw emits elements svgo has no integer-coordinate helper for.
func writeRaw(canvas *svg.SVG, el *Element) {
	w := canvas.Writer
	io.WriteString(w, "<"+el.Tag)
	for _, a := range attrList(el, nil) {
		io.WriteString(w, " "+a)
	}
	if el.Text == "" && len(el.Children) == 0 {
		io.WriteString(w, "/>\n")
		return
	}
	io.WriteString(w, ">")
	if el.Text != "" {
		_ = xml.EscapeText(w, []byte(el.Text))
	}
	if len(el.Children) > 0 {
		io.WriteString(w, "\n")
		writeChildren(canvas, el)
	}
	io.WriteString(w, "</"+el.Tag+">\n")
}
