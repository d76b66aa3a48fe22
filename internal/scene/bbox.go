package scene

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/msalah0e/mentorgraph/internal/geom"
)

// DefaultFontSize is used for text with no font-size on itself or an
// ancestor.
const DefaultFontSize = 16

// BBox returns the bounding box of every drawable descendant of root, in
// root's own coordinate space: transforms on descendants are applied, the
// transform on root itself is not. Zero-size primitives, defs, markers and
// elements with display="none" do not contribute.
func BBox(root *Element, m Measurer) geom.Rect {
	if m == nil {
		m = ApproxMeasurer{}
	}
	box := geom.EmptyRect()
	var visit func(el *Element, t geom.Transform, size float64)
	visit = func(el *Element, t geom.Transform, size float64) {
		switch el.Tag {
		case "defs", "marker", "style", "title", "clipPath", "mask":
			return
		}
		if v, _ := el.Get("display"); v == "none" {
			return
		}
		if el != root {
			if tr, ok := el.Get("transform"); ok {
				t = compose(t, ParseTransform(tr))
			}
		}
		if fs, ok := el.Float("font-size"); ok && fs > 0 {
			size = fs
		}
		if r := PrimitiveBounds(el, m, size); !r.Empty() && (r.Width() > 0 || r.Height() > 0) {
			box = box.Union(mapRect(t, r))
		}
		for _, c := range el.Children {
			visit(c, t, size)
		}
	}
	visit(root, geom.Identity, DefaultFontSize)
	return box
}

// PrimitiveBounds is the local bounding box of a single primitive, ignoring its
// children and transform. Non-primitives return an empty rect.
func PrimitiveBounds(el *Element, m Measurer, fontSize float64) geom.Rect {
	f := func(name string) float64 {
		v, _ := el.Float(name)
		return v
	}
	switch el.Tag {
	case "circle":
		r := f("r")
		if r <= 0 {
			return geom.EmptyRect()
		}
		cx, cy := f("cx"), f("cy")
		return geom.Rect{MinX: cx - r, MinY: cy - r, MaxX: cx + r, MaxY: cy + r}
	case "ellipse":
		rx, ry := f("rx"), f("ry")
		if rx <= 0 && ry <= 0 {
			return geom.EmptyRect()
		}
		cx, cy := f("cx"), f("cy")
		return geom.Rect{MinX: cx - rx, MinY: cy - ry, MaxX: cx + rx, MaxY: cy + ry}
	case "rect":
		w, h := f("width"), f("height")
		if w <= 0 && h <= 0 {
			return geom.EmptyRect()
		}
		return geom.RectXYWH(f("x"), f("y"), w, h)
	case "line":
		return pointsBounds([]geom.Point{{X: f("x1"), Y: f("y1")}, {X: f("x2"), Y: f("y2")}})
	case "polygon", "polyline":
		v, _ := el.Get("points")
		nums := parseNumbers(v)
		var pts []geom.Point
		for i := 0; i+1 < len(nums); i += 2 {
			pts = append(pts, geom.Point{X: nums[i], Y: nums[i+1]})
		}
		return pointsBounds(pts)
	case "path":
		v, _ := el.Get("d")
		return pointsBounds(PathPoints(v))
	case "text":
		return textBounds(el, m, fontSize)
	}
	return geom.EmptyRect()
}

func textBounds(el *Element, m Measurer, size float64) geom.Rect {
	if el.Text == "" {
		return geom.EmptyRect()
	}
	ext := m.Measure(el.Text, size)
	x, _ := el.Float("x")
	y, _ := el.Float("y")
	if dy, ok := el.Float("dy"); ok {
		y += dy
	}
	switch anchor, _ := el.Get("text-anchor"); anchor {
	case "middle":
		x -= ext.Width / 2
	case "end":
		x -= ext.Width
	}
	return geom.Rect{MinX: x, MinY: y - ext.Ascent, MaxX: x + ext.Width, MaxY: y + ext.Descent}
}

func pointsBounds(pts []geom.Point) geom.Rect {
	box := geom.EmptyRect()
	for _, p := range pts {
		if !geom.IsFinite(p.X) || !geom.IsFinite(p.Y) {
			continue
		}
		box = box.Union(geom.Rect{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y})
	}
	if box.Empty() || (box.Width() == 0 && box.Height() == 0) {
		return geom.EmptyRect()
	}
	return box
}

func mapRect(t geom.Transform, r geom.Rect) geom.Rect {
	a := t.Apply(geom.Point{X: r.MinX, Y: r.MinY})
	b := t.Apply(geom.Point{X: r.MaxX, Y: r.MaxY})
	return geom.Rect{
		MinX: math.Min(a.X, b.X), MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X), MaxY: math.Max(a.Y, b.Y),
	}
}

// compose returns the transform applying inner first, then outer.
func compose(outer, inner geom.Transform) geom.Transform {
	return geom.Transform{
		K: outer.K * inner.K,
		X: outer.K*inner.X + outer.X,
		Y: outer.K*inner.Y + outer.Y,
	}
}

// ParseTransform reads the translate and uniform scale functions of an SVG
// transform list, applied left to right as SVG does. Functions it does not
// understand are skipped.
func ParseTransform(s string) geom.Transform {
	t := geom.Identity
	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			return t
		}
		end := strings.IndexByte(s[open:], ')')
		if end < 0 {
			return t
		}
		name := strings.TrimSpace(strings.TrimLeft(s[:open], " ,"))
		args := parseNumbers(s[open+1 : open+end])
		s = s[open+end+1:]
		switch name {
		case "translate":
			if len(args) == 0 {
				continue
			}
			tr := geom.Transform{K: 1, X: args[0]}
			if len(args) > 1 {
				tr.Y = args[1]
			}
			t = compose(t, tr)
		case "scale":
			if len(args) == 0 || args[0] <= 0 {
				continue
			}
			t = compose(t, geom.Transform{K: args[0]})
		}
	}
}

// PathPoints returns the end and control points of a path made of
// M, L, H, V, C, S, Q, T and Z commands, absolute or relative. Arcs
// contribute their end point only.
func PathPoints(d string) []geom.Point {
	var pts []geom.Point
	var cur, start geom.Point
	toks := tokenizePath(d)
	cmd := byte(0)
	i := 0
	next := func(n int) ([]float64, bool) {
		if i+n > len(toks) {
			return nil, false
		}
		out := make([]float64, n)
		for k := 0; k < n; k++ {
			if toks[i+k].cmd != 0 {
				return nil, false
			}
			out[k] = toks[i+k].num
		}
		i += n
		return out, true
	}
	for i < len(toks) {
		if toks[i].cmd != 0 {
			cmd = toks[i].cmd
			i++
			if cmd == 'Z' || cmd == 'z' {
				cur = start
				continue
			}
		}
		rel := cmd >= 'a' && cmd <= 'z'
		abs := func(x, y float64) geom.Point {
			if rel {
				return geom.Point{X: cur.X + x, Y: cur.Y + y}
			}
			return geom.Point{X: x, Y: y}
		}
		var ok bool
		var a []float64
		switch unicode.ToUpper(rune(cmd)) {
		case 'M', 'L', 'T':
			if a, ok = next(2); ok {
				cur = abs(a[0], a[1])
				if cmd == 'M' || cmd == 'm' {
					start = cur
					// further pairs are implicit lineto
					if cmd == 'M' {
						cmd = 'L'
					} else {
						cmd = 'l'
					}
				}
				pts = append(pts, cur)
			}
		case 'H':
			if a, ok = next(1); ok {
				if rel {
					cur.X += a[0]
				} else {
					cur.X = a[0]
				}
				pts = append(pts, cur)
			}
		case 'V':
			if a, ok = next(1); ok {
				if rel {
					cur.Y += a[0]
				} else {
					cur.Y = a[0]
				}
				pts = append(pts, cur)
			}
		case 'C':
			if a, ok = next(6); ok {
				pts = append(pts, abs(a[0], a[1]), abs(a[2], a[3]))
				cur = abs(a[4], a[5])
				pts = append(pts, cur)
			}
		case 'S', 'Q':
			if a, ok = next(4); ok {
				pts = append(pts, abs(a[0], a[1]))
				cur = abs(a[2], a[3])
				pts = append(pts, cur)
			}
		case 'A':
			if a, ok = next(7); ok {
				cur = abs(a[5], a[6])
				pts = append(pts, cur)
			}
		default:
			ok = false
		}
		if !ok && i < len(toks) && toks[i].cmd == 0 {
			// stray number: skip it and carry on
			i++
		}
	}
	return pts
}

type pathToken struct {
	cmd byte
	num float64
}

func tokenizePath(d string) []pathToken {
	var out []pathToken
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0:
			out = append(out, pathToken{cmd: c})
			i++
		default:
			j := scanNumber(d, i)
			if j == i {
				i++
				continue
			}
			if f, err := strconv.ParseFloat(d[i:j], 64); err == nil {
				out = append(out, pathToken{num: f})
			}
			i = j
		}
	}
	return out
}

// scanNumber returns the end of the number starting at i. Numbers may run
// together as in "1.5.5" or "3-4".
func scanNumber(s string, i int) int {
	j := i
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		j++
	}
	dot := false
	digits := false
	for j < len(s) {
		c := s[j]
		switch {
		case c >= '0' && c <= '9':
			digits = true
			j++
		case c == '.' && !dot:
			dot = true
			j++
		case (c == 'e' || c == 'E') && digits:
			k := j + 1
			if k < len(s) && (s[k] == '+' || s[k] == '-') {
				k++
			}
			if k < len(s) && s[k] >= '0' && s[k] <= '9' {
				j = k
				for j < len(s) && s[j] >= '0' && s[j] <= '9' {
					j++
				}
			}
			return j
		default:
			if !digits {
				return i
			}
			return j
		}
	}
	if !digits {
		return i
	}
	return j
}

func parseNumbers(s string) []float64 {
	var out []float64
	for _, tok := range tokenizePath(s) {
		if tok.cmd == 0 {
			out = append(out, tok.num)
		}
	}
	return out
}
