package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/mentorgraph/internal/scene"
)

// liveScene mirrors what the view draws: one graph group holding a node at
// (x, y) plus every interactive decoration.
func liveScene(x, y, r float64) *scene.Element {
	root := scene.New("svg").Set("width", "800").Set("height", "600")
	graph := scene.New("g").Set("transform", "translate(40,30) scale(0.5)")
	node := scene.New("g", "student").Set("transform", "translate("+scene.Num(x)+","+scene.Num(y)+")")
	node.Append(scene.New("circle").SetNum("r", r))
	hover := scene.New("g", "hover-label").Set("display", "none").Append(
		scene.New("rect").Set("width", "5000").Set("height", "5000"),
		scene.New("text", "hover-link-label").WithText("family - 2024"),
	)
	hit := scene.New("path", "link-hover").Set("d", "M-9000,-9000L9000,9000")
	graph.Append(hover, hit, node)
	btn := scene.New("g", "graph-btn").Append(scene.New("rect").Set("width", "36").Set("height", "36"))
	return root.Append(graph, btn)
}

func TestSingleNodeBox(t *testing.T) {
	x, y, r := 120.0, -40.0, 25.0
	res, err := Snapshot(liveScene(x, y, r), DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, x-1.1*r, res.Box.MinX, 1e-9)
	assert.InDelta(t, y-1.1*r, res.Box.MinY, 1e-9)
	assert.InDelta(t, x+1.1*r, res.Box.MaxX, 1e-9)
	assert.InDelta(t, y+1.1*r, res.Box.MaxY, 1e-9)

	w, _ := res.Root.Float("width")
	h, _ := res.Root.Float("height")
	assert.InDelta(t, 2.2*r, w, 1e-9)
	assert.InDelta(t, 2.2*r, h, 1e-9)
	vb, _ := res.Root.Get("viewBox")
	assert.Equal(t, "0 0 "+scene.Num(w)+" "+scene.Num(h), vb)

	graph := res.Root.Find(func(e *scene.Element) bool { return e != res.Root && e.Tag == "g" })
	tr, _ := graph.Get("transform")
	assert.Equal(t, "translate("+scene.Num(-res.Box.MinX)+","+scene.Num(-res.Box.MinY)+")", tr)
}

func TestSnapshotStripsInteractiveElements(t *testing.T) {
	live := liveScene(0, 0, 10)
	res, err := Snapshot(live, DefaultOptions())
	require.NoError(t, err)

	for _, c := range Interactive {
		assert.Nil(t, res.Root.Find(scene.ByClass(c)), c)
		assert.NotContains(t, string(res.SVG), `class="`+c+`"`)
	}
	// live scene untouched
	assert.NotNil(t, live.Find(scene.ByClass("graph-btn")))
	tr, _ := live.Children[0].Get("transform")
	assert.Equal(t, "translate(40,30) scale(0.5)", tr)
}

func TestSnapshotInlinesRulesAndBackground(t *testing.T) {
	opts := DefaultOptions()
	opts.Rules = scene.Stylesheet{
		{Selector: ".student circle", Body: "fill: #4f8bc9;"},
		{Selector: ".graph-btn", Body: "opacity: 0.3;"},
	}
	res, err := Snapshot(liveScene(0, 0, 10), opts)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(res.Root.Children), 3)
	style := res.Root.Children[0]
	assert.Equal(t, "style", style.Tag)
	assert.Contains(t, style.Text, ".student circle")
	assert.NotContains(t, style.Text, ".graph-btn")

	bg := res.Root.Children[1]
	assert.Equal(t, "rect", bg.Tag)
	fill, _ := bg.Get("fill")
	assert.Equal(t, "#f0f0f0", fill)

	assert.True(t, strings.HasPrefix(string(res.SVG), "<?xml"))
}

func TestSnapshotFallsBackToCanvas(t *testing.T) {
	root := scene.New("svg").Set("width", "400").Set("height", "300").Append(scene.New("g"))
	res, err := Snapshot(root, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, -20, res.Box.MinX, 1e-9)
	assert.InDelta(t, -15, res.Box.MinY, 1e-9)
	assert.InDelta(t, 480, res.Box.Width(), 1e-9)
	assert.InDelta(t, 360, res.Box.Height(), 1e-9)

	_, err = Snapshot(scene.New("g"), DefaultOptions())
	assert.Error(t, err)
}

type fakePrompter struct {
	FileDest
	err error
}

func (f fakePrompter) SaveAs(ctx context.Context, name string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.Download(ctx, name, data)
}

func TestSavePrefersPrompter(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	out, err := Save(ctx, fakePrompter{FileDest: FileDest{Dir: dir}}, "", []byte("<svg/>"))
	require.NoError(t, err)
	assert.True(t, out.Prompted)
	assert.Equal(t, filepath.Join(dir, DefaultFilename), out.Location)

	out, err = Save(ctx, fakePrompter{err: ErrCancelled}, "x.svg", nil)
	require.NoError(t, err)
	assert.True(t, out.Cancelled)

	_, err = Save(ctx, fakePrompter{err: errors.New("disk full")}, "x.svg", nil)
	assert.Error(t, err)
}

func TestSaveFallsBackToDownload(t *testing.T) {
	dir := t.TempDir()
	out, err := Save(context.Background(), FileDest{Dir: dir}, "graph.svg", []byte("<svg/>"))
	require.NoError(t, err)
	assert.False(t, out.Prompted)
	data, err := os.ReadFile(filepath.Join(dir, "graph.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}

func TestPromptDest(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	var prompt bytes.Buffer

	p := PromptDest{FileDest: FileDest{Dir: dir}, In: strings.NewReader("\n"), Out: &prompt}
	out, err := Save(ctx, p, "", []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFilename), out.Location)
	assert.Contains(t, prompt.String(), DefaultFilename)

	p.In = strings.NewReader("mine\n")
	out, err = Save(ctx, p, "", []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mine.svg"), out.Location)

	p.In = strings.NewReader("-\n")
	out, err = Save(ctx, p, "", nil)
	require.NoError(t, err)
	assert.True(t, out.Cancelled)

	p.In = strings.NewReader("")
	out, err = Save(ctx, p, "", nil)
	require.NoError(t, err)
	assert.True(t, out.Cancelled)
}
