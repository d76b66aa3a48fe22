package scene

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/mentorgraph/internal/geom"
)

func sample() *Element {
	root := New("svg").Set("width", "800").Set("height", "600")
	g := New("g").Set("transform", "translate(100,100) scale(2)")
	student := New("g", "student").Set("transform", "translate(10,20)")
	student.Append(
		New("circle").Set("r", "5"),
		New("text").Set("text-anchor", "middle").WithText("a < b"),
	)
	g.Append(
		New("defs").Append(New("marker").WithID("arrowhead-red").
			Set("refX", "0").Set("refY", "0").Set("markerWidth", "12").Set("markerHeight", "12").
			Append(New("path").Set("d", "M -10,-5 L 0,0 L -10,5"))),
		New("path", "link").Set("d", "M0,0L30,40"),
		student,
	)
	btn := New("g", "graph-btn").Append(New("rect").Set("width", "36").Set("height", "36"))
	return root.Append(g, btn)
}

func TestContrastText(t *testing.T) {
	assert.Equal(t, "#fff", ContrastText("#000"))
	assert.Equal(t, "#fff", ContrastText("#000000"))
	assert.Equal(t, "#333", ContrastText("#fff"))
	assert.Equal(t, "#333", ContrastText("#808080"))
	assert.Equal(t, "#fff", ContrastText("navy"))
	assert.Equal(t, "#333", ContrastText("yellow"))
	assert.Equal(t, "#333", ContrastText("not-a-colour"))
	assert.Equal(t, "#333", ContrastText("#12"))
}

func TestParseColor(t *testing.T) {
	c, ok := ParseColor("#4F8BC9")
	require.True(t, ok)
	assert.Equal(t, "#4f8bc9", Hex(c))
	c, ok = ParseColor("#abc")
	require.True(t, ok)
	assert.Equal(t, "#aabbcc", Hex(c))
	_, ok = ParseColor("#ggg")
	assert.False(t, ok)
}

func TestMarkerID(t *testing.T) {
	assert.Equal(t, "arrowhead-_ff0000", MarkerID("#FF0000"))
	assert.Equal(t, "arrowhead-red", MarkerID("red"))
}

func TestCloneIsDeep(t *testing.T) {
	orig := sample()
	c := orig.Clone()
	c.Children[0].Set("transform", "translate(0,0)")
	c.RemoveIf(ByClass("graph-btn"))

	v, _ := orig.Children[0].Get("transform")
	assert.Equal(t, "translate(100,100) scale(2)", v)
	assert.NotNil(t, orig.Find(ByClass("graph-btn")))
	assert.Nil(t, c.Find(ByClass("graph-btn")))
}

func TestRemoveIfCountsAndKeepsOrder(t *testing.T) {
	root := New("g").Append(New("a", "x"), New("b"), New("c", "x"), New("d").Append(New("e", "x")))
	assert.Equal(t, 3, root.RemoveIf(ByClass("x")))
	require.Len(t, root.Children, 2)
	assert.Equal(t, "b", root.Children[0].Tag)
	assert.Empty(t, root.Children[1].Children)
}

func TestInsertClamps(t *testing.T) {
	root := New("svg").Append(New("g"))
	root.Insert(0, New("style"))
	root.Insert(99, New("rect"))
	root.Insert(1, New("title"))
	var tags []string
	for _, c := range root.Children {
		tags = append(tags, c.Tag)
	}
	assert.Equal(t, []string{"style", "title", "g", "rect"}, tags)
}

func TestBBoxAppliesDescendantTransforms(t *testing.T) {
	g := sample().Children[0]
	box := BBox(g, ApproxMeasurer{})
	// link path 0..30 x 0..40; circle at (10,20) r 5; label "a < b" is 5
	// glyphs at 16px: 48 wide, centred on (10,20)
	assert.InDelta(t, -14, box.MinX, 1e-9)
	assert.InDelta(t, 0, box.MinY, 1e-9)
	assert.InDelta(t, 34, box.MaxX, 1e-9)
	assert.InDelta(t, 40, box.MaxY, 1e-9)
}

func TestBBoxIgnoresDefsAndHidden(t *testing.T) {
	g := New("g").Append(
		New("defs").Append(New("rect").Set("width", "1000").Set("height", "1000")),
		New("g").Set("display", "none").Append(New("circle").Set("r", "500")),
		New("circle").Set("cx", "5").Set("cy", "5").Set("r", "1"),
		New("circle").Set("r", "0"),
	)
	assert.Equal(t, geom.Rect{MinX: 4, MinY: 4, MaxX: 6, MaxY: 6}, BBox(g, nil))
	assert.True(t, BBox(New("g"), nil).Empty())
}

func TestBBoxInheritsFontSize(t *testing.T) {
	g := New("g").Set("font-size", "10").Append(New("text").Set("y", "0").WithText("abcd"))
	box := BBox(g, ApproxMeasurer{})
	assert.InDelta(t, 24, box.Width(), 1e-9)
	assert.InDelta(t, -8, box.MinY, 1e-9)
	assert.InDelta(t, 2, box.MaxY, 1e-9)
}

func TestParseTransform(t *testing.T) {
	tr := ParseTransform("translate(10, 20) scale(2)")
	assert.Equal(t, geom.Transform{K: 2, X: 10, Y: 20}, tr)
	assert.Equal(t, geom.Point{X: 12, Y: 22}, tr.Apply(geom.Point{X: 1, Y: 1}))

	tr = ParseTransform("scale(0.032) translate(1000, 300)")
	assert.InDelta(t, 32, tr.X, 1e-9)
	assert.InDelta(t, 9.6, tr.Y, 1e-9)

	assert.Equal(t, geom.Identity, ParseTransform("rotate(45)"))
	assert.Equal(t, geom.Identity, ParseTransform(""))
}

func TestPathPoints(t *testing.T) {
	pts := PathPoints("m10 10 h5 v5 z")
	assert.Equal(t, []geom.Point{{X: 10, Y: 10}, {X: 15, Y: 10}, {X: 15, Y: 15}}, pts)

	pts = PathPoints("M12,14 H24 M12,18 H24")
	assert.Equal(t, []geom.Point{{X: 12, Y: 14}, {X: 24, Y: 14}, {X: 12, Y: 18}, {X: 24, Y: 18}}, pts)

	pts = PathPoints("M0,0 L1e1,-5.5.5")
	require.Len(t, pts, 2)
	assert.Equal(t, geom.Point{X: 10, Y: -5.5}, pts[1])
}

func TestSelectorMatching(t *testing.T) {
	root := sample()
	circle := root.Find(ByTag("circle"))
	require.NotNil(t, circle)
	// ancestors of the node circle: svg, g, g.student
	anc := []*Element{root, root.Children[0], root.Children[0].Children[2]}

	cases := map[string]bool{
		".student circle":        true,
		"g.student > circle":     true,
		"svg circle":             true,
		"svg > circle":           false,
		".graph-btn circle":      false,
		".student:hover circle":  false,
		"circle, rect":           true,
		"[r]":                    true,
		"[r=\"5\"]":              true,
		"[r=6]":                  false,
		"*":                      true,
		"g > g > circle":         true,
		".student > g > circle":  false,
	}
	for s, want := range cases {
		sel, err := ParseSelector(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, sel.Match(circle, anc), s)
	}

	for _, bad := range []string{"", "a,", ".", "#", "> a", "a >", "a[b", "a{"} {
		_, err := ParseSelector(bad)
		assert.Error(t, err, bad)
	}
}

func TestApplicableRules(t *testing.T) {
	sheet := Stylesheet{
		{Selector: "svg", Body: "background: #f0f0f0;"},
		{Selector: ".student circle", Body: "fill: #4f8bc9;"},
		{Selector: ".graph-btn", Body: "opacity: 0.3;"},
		{Selector: ".graph-btn:hover", Body: "opacity: 1;"},
		{Selector: ".missing", Body: "fill: red;"},
		{Selector: "..bad", Body: "fill: red;"},
	}
	root := sample()
	got := sheet.Applicable(root)
	require.Len(t, got, 2)
	assert.Equal(t, ".student circle", got[0].Selector)
	assert.Equal(t, ".graph-btn", got[1].Selector)

	root.RemoveIf(ByClass("graph-btn"))
	got = sheet.Applicable(root)
	require.Len(t, got, 1)
	assert.Equal(t, ".student circle { fill: #4f8bc9; }\n", got.CSS())
}

func TestWriteSVG(t *testing.T) {
	root := sample()
	root.Children[0].Append(New("circle").Set("cx", "1.5").Set("r", "2"))
	root.Insert(0, New("style").WithText(".student circle { fill: #4f8bc9; }"))

	out, err := MarshalSVG(root)
	require.NoError(t, err)
	s := string(out)

	assert.True(t, strings.HasPrefix(s, "<?xml"), s)
	assert.Contains(t, s, `width="800"`)
	assert.Contains(t, s, `class="student"`)
	assert.Contains(t, s, `transform="translate(10,20)"`)
	assert.Contains(t, s, `r="5"`)
	assert.Contains(t, s, `<marker id="arrowhead-red"`)
	assert.Contains(t, s, `d="M0,0L30,40"`)
	assert.Contains(t, s, "a &lt; b")
	assert.Contains(t, s, `cx="1.5"`)
	assert.Contains(t, s, ".student circle { fill: #4f8bc9; }")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(s), "</svg>"))

	_, err = MarshalSVG(New("g"))
	assert.Error(t, err)
}

func TestShippedThemeParses(t *testing.T) {
	data, err := os.ReadFile("../../theme/default.toml")
	require.NoError(t, err)
	th, err := ParseTheme(data)
	require.NoError(t, err)
	assert.Equal(t, "#4f8bc9", th.Palette.NodeFill)
	assert.Equal(t, 12.0, th.Palette.LabelFontSize)
	assert.NotEmpty(t, th.Rules)
}

func TestThemeOverrideAppendsRules(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/theme.toml"
	require.NoError(t, os.WriteFile(path, []byte(`
[palette]
node_fill = "#ff0000"

[[rules]]
selector = ".student circle"
body = "fill: #ff0000;"
`), 0o644))

	th, err := LoadTheme(os.DirFS("../.."), "theme/default.toml", path)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", th.Palette.NodeFill)
	assert.Equal(t, "#2d5d87", th.Palette.IconStroke)
	last := th.Rules[len(th.Rules)-1]
	assert.Equal(t, "fill: #ff0000;", last.Body)

	th, err = LoadTheme(nil, "", dir+"/missing.toml")
	require.NoError(t, err)
	assert.Empty(t, th.Rules)
}

func TestFontMeasurer(t *testing.T) {
	m, err := NewFontMeasurer()
	require.NoError(t, err)
	short := m.Measure("ab", 12)
	long := m.Measure("abcdef", 12)
	assert.Greater(t, short.Width, 0.0)
	assert.Greater(t, long.Width, short.Width)
	assert.Greater(t, short.Ascent, 0.0)
	assert.Greater(t, m.Measure("ab", 24).Width, short.Width)
	assert.Zero(t, m.Measure("ab", 0).Width)
}
