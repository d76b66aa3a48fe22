// Package view is the graph view: one dataset, a year filter, and the render
// generation currently on screen with its simulation, viewport and gesture
// state. Every method must be called from the goroutine that runs the
// view's loop.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/msalah0e/mentorgraph/internal/arrange"
	"github.com/msalah0e/mentorgraph/internal/config"
	"github.com/msalah0e/mentorgraph/internal/dataset"
	"github.com/msalah0e/mentorgraph/internal/export"
	"github.com/msalah0e/mentorgraph/internal/geom"
	"github.com/msalah0e/mentorgraph/internal/graph"
	"github.com/msalah0e/mentorgraph/internal/interact"
	"github.com/msalah0e/mentorgraph/internal/loop"
	"github.com/msalah0e/mentorgraph/internal/scene"
	"github.com/msalah0e/mentorgraph/internal/sim"
	"github.com/msalah0e/mentorgraph/internal/viewport"
)

var (
	ErrUnknownNode    = errors.New("unknown node")
	ErrUnknownYear    = errors.New("unknown year")
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotRendered    = errors.New("nothing rendered yet")
)

// Command names accepted by Command.
const (
	CmdFit       = "fit"
	CmdArrange   = "arrange"
	CmdFreeze    = "freeze"
	CmdRandomize = "randomize"
)

// Commands lists every command name in button order, right to left.
var Commands = []string{CmdFit, CmdArrange, CmdFreeze, CmdRandomize}

const (
	scatterSpread = 40
	shakeAlpha    = 0.3
	unfreezeAlpha = 0.1
	labelPadding  = 5
	// baselines of the two node label lines, relative to the node centre
	labelTop    = -7
	labelBottom = 11
)

// Options configure a view.
type Options struct {
	Width, Height float64
	Sim           sim.Params
	Seed          int64
	Viewport      viewport.Options
	Interact      interact.Options
	Spacing       float64
	ReleaseDelay  time.Duration
	Export        export.Options
	Filename      string
	Theme         *scene.Theme
	Measurer      scene.Measurer
	Notifier      Notifier
}

// DefaultOptions is OptionsFromConfig over the default config.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig maps configuration onto view options. A zero seed is
// replaced by the current time.
func OptionsFromConfig(cfg *config.Config) Options {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ix := interact.DefaultOptions()
	ix.HitWidth = cfg.Interaction.HitWidth
	ix.LinkWidth = cfg.Interaction.LinkWidth
	ix.ClickDistance = cfg.Interaction.ClickDistance
	ix.DragAlphaTarget = cfg.View.DragAlphaTarget

	eo := export.DefaultOptions()
	eo.PaddingRatio = cfg.Export.PaddingRatio
	eo.Background = cfg.Export.Background
	eo.Width, eo.Height = cfg.View.Width, cfg.View.Height

	return Options{
		Width:  cfg.View.Width,
		Height: cfg.View.Height,
		Sim: sim.Params{
			ForceStrength:     cfg.Simulation.ForceStrength,
			LinkDistance:      cfg.Simulation.LinkDistance,
			ChargeDistanceMax: cfg.Simulation.ChargeDistanceMax,
			CollisionMargin:   cfg.Simulation.CollisionMargin,
			AlphaDecay:        cfg.Simulation.AlphaDecay,
			AlphaMin:          cfg.Simulation.AlphaMin,
			VelocityDecay:     cfg.Simulation.VelocityDecay,
		},
		Seed: seed,
		Viewport: viewport.Options{
			Padding:  cfg.View.ZoomPadding,
			Duration: cfg.View.FitDuration(),
			Epsilon:  cfg.View.FitEpsilon,
		},
		Interact:     ix,
		Spacing:      cfg.Arrange.SpacingFactor,
		ReleaseDelay: cfg.Arrange.ReleaseDelay(),
		Export:       eo,
		Filename:     cfg.Export.Filename,
	}
}

// generation is everything one render pass owns. Closing its scope kills
// the frame subscription, pending releases and hover measurements.
type generation struct {
	id      uint64
	scope   *loop.Scope
	graph   *graph.Graph
	sim     *sim.Simulation
	ctl     *interact.Controller
	autoFit bool
	frame   *loop.Handle
}

// View renders a dataset and reacts to commands and pointer input.
type View struct {
	l      *loop.Loop
	opts   Options
	vp     *viewport.Manager
	ds     *dataset.Dataset
	year   string
	frozen bool

	gen     *generation
	gens    uint64
	version uint64
}

// New returns an empty view scheduled on l.
func New(l *loop.Loop, opts Options) *View {
	if opts.Theme == nil {
		opts.Theme = scene.BaseTheme()
	}
	if opts.Measurer == nil {
		opts.Measurer = scene.ApproxMeasurer{}
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Log: slog.Default()}
	}
	if opts.Spacing <= 0 {
		opts.Spacing = arrange.DefaultSpacing
	}
	if opts.Filename == "" {
		opts.Filename = export.DefaultFilename
	}
	opts.Interact.HoverFontSize = opts.Theme.Palette.HoverFontSize
	opts.Export.Rules = opts.Theme.Rules
	opts.Export.Measurer = opts.Measurer
	return &View{
		l:    l,
		opts: opts,
		vp:   viewport.New(opts.Width, opts.Height, opts.Viewport),
		ds:   &dataset.Dataset{},
		year: dataset.AllYears,
	}
}

// Simulation implements interact.Host.
func (v *View) Simulation() *sim.Simulation { return v.gen.sim }

// Graph returns the arena on screen, or nil before the first render.
func (v *View) Graph() *graph.Graph {
	if v.gen == nil {
		return nil
	}
	return v.gen.graph
}

// Viewport implements interact.Host.
func (v *View) Viewport() *viewport.Manager { return v.vp }

// Frozen reports whether forces are switched off. The flag survives
// re-renders.
func (v *View) Frozen() bool { return v.frozen }

// DisableAutoFit implements interact.Host.
func (v *View) DisableAutoFit() {
	if v.gen != nil {
		v.gen.autoFit = false
	}
}

// Invalidate marks the scene as changed and makes sure something keeps
// stepping while the simulation or a fit is in motion.
func (v *View) Invalidate() {
	v.version++
	v.wake()
}

// Version increases whenever the scene may have changed.
func (v *View) Version() uint64 { return v.version }

// Generation is the id of the render on screen; zero before the first.
func (v *View) Generation() uint64 {
	if v.gen == nil {
		return 0
	}
	return v.gen.id
}

// Year is the active year filter.
func (v *View) Year() string { return v.year }

// Dataset is the data the view renders from.
func (v *View) Dataset() *dataset.Dataset { return v.ds }

// Controller is the gesture state of the render on screen.
func (v *View) Controller() *interact.Controller {
	if v.gen == nil {
		return nil
	}
	return v.gen.ctl
}

func (v *View) strength() float64 {
	if v.frozen {
		return 0
	}
	return v.opts.Sim.ForceStrength
}

func (v *View) center() geom.Point {
	s := v.vp.Size()
	return geom.Point{X: s.X / 2, Y: s.Y / 2}
}

func (v *View) notify(e Event) {
	e.Time = v.l.Now()
	e.Generation = v.Generation()
	v.opts.Notifier.Notify(e)
}

// Reload replaces the dataset and re-renders. A year filter the new data
// no longer has falls back to every year.
func (v *View) Reload(ds *dataset.Dataset) {
	if ds == nil {
		ds = &dataset.Dataset{}
	}
	v.ds = ds
	if v.year != dataset.AllYears && !ds.HasYear(v.year) {
		v.year = dataset.AllYears
	}
	v.Render(ds.Filter(v.year))
}

// SetYearFilter re-renders the subset of one year, or everything for "all".
func (v *View) SetYearFilter(year string) error {
	year = dataset.NormalizeYear(year)
	if year != dataset.AllYears && !v.ds.HasYear(year) {
		return fmt.Errorf("%w: %q", ErrUnknownYear, year)
	}
	v.year = year
	v.Render(v.ds.Filter(year))
	return nil
}

// Render replaces whatever is on screen with a fresh generation over nodes
// and links. Continuations of the previous generation never run again.
func (v *View) Render(nodes []dataset.NodeSpec, links []dataset.LinkSpec) {
	if v.gen != nil {
		v.gen.scope.Close()
	}
	g := graph.Build(nodes, links)
	v.gens++
	gen := &generation{id: v.gens, scope: v.l.NewScope(), graph: g, autoFit: true}

	sn := make([]sim.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		sn[i] = sim.Node{ID: n.ID, R: v.radius(n.Label)}
	}
	sl := make([]sim.Link, len(g.Links))
	for i, l := range g.Links {
		sl[i] = sim.Link{Source: l.Source, Target: l.Target}
	}
	gen.sim = sim.New(sn, sl, v.opts.Sim, v.center(), v.opts.Seed)
	gen.ctl = interact.New(v, gen.scope, v.opts.Measurer, v.opts.Interact)
	v.gen = gen

	gen.sim.Restart(1, 0, v.strength())
	v.notify(Event{Kind: SimulationStarted, Message: "Start: simulation started"})
	v.Invalidate()
}

// radius fits the two label lines inside the node circle.
func (v *View) radius(l dataset.NodeLabel) float64 {
	size := v.opts.Theme.Palette.LabelFontSize
	lines := l.Lines()
	a := v.opts.Measurer.Measure(lines[0], size)
	b := v.opts.Measurer.Measure(lines[1], size)
	w := math.Max(a.Width, b.Width)
	h := (labelBottom - labelTop) + a.Ascent + b.Descent
	return math.Max(w, h)/2 + labelPadding
}

// wake subscribes the generation's frame callback when there is motion and
// no callback is live.
func (v *View) wake() {
	gen := v.gen
	if gen == nil || (gen.frame != nil && !gen.frame.Stopped()) {
		return
	}
	if !gen.sim.Running() && !v.vp.Animating() {
		return
	}
	gen.frame = gen.scope.Frame(func(now time.Time) bool { return v.step(gen, now) })
}

// step advances the simulation and any fit transition by one frame. The
// callback unsubscribes itself once both are at rest so an idle view
// leaves the loop idle.
func (v *View) step(gen *generation, now time.Time) bool {
	if gen.sim.Running() {
		ended := gen.sim.Step()
		v.version++
		if ended && gen.autoFit {
			v.vp.Fit(gen.sim.Circles(), now)
		}
	}
	if v.vp.Advance(now) {
		v.version++
	}
	if gen.sim.Running() || v.vp.Animating() {
		return true
	}
	gen.frame = nil
	return false
}

func (v *View) fit() viewport.FitResult {
	if v.gen == nil {
		return viewport.FitResult{Target: v.vp.Target()}
	}
	res := v.vp.Fit(v.gen.sim.Circles(), v.l.Now())
	if res.Changed {
		v.Invalidate()
	}
	return res
}

// FitView frames every node. Nothing moves when the view is already
// framed.
func (v *View) FitView() viewport.FitResult {
	res := v.fit()
	v.notify(Event{Kind: ViewFitted, Message: fitMessage(res.Changed), Changed: res.Changed})
	return res
}

// ArrangeByYear pins nodes into one horizontal band per promotion and
// releases the pins after the configured delay. It fits the view when
// anything moved.
func (v *View) ArrangeByYear() bool {
	gen := v.gen
	if gen == nil {
		v.notify(Event{Kind: LayoutArranged, Message: arrangeMessage(false)})
		return false
	}
	plan := arrange.ByPromo(len(gen.graph.Nodes), func(i int) (int, bool) {
		return gen.graph.Nodes[i].Label.PromoYear()
	}, v.vp.Size().Y, v.opts.Spacing)
	plan.Hold = gen.ctl.Holding
	changed := arrange.Apply(gen.sim, plan, v.frozen)
	if changed {
		if v.frozen {
			gen.sim.Restart(0, 0, 0)
		} else {
			gen.sim.Restart(shakeAlpha, 0, v.strength())
		}
		gen.scope.After(v.opts.ReleaseDelay, func() {
			gen.sim.ReleaseY(gen.ctl.Holding)
			v.Invalidate()
		})
		v.Invalidate()
	}
	v.notify(Event{Kind: LayoutArranged, Message: arrangeMessage(changed), Changed: changed})
	if changed {
		v.FitView()
	}
	return changed
}

// ToggleFreeze switches forces off or back on and returns the new state.
// Unfreezing holds every node at its height while the view fits, then lets
// the layout settle gently.
func (v *View) ToggleFreeze() bool {
	v.frozen = !v.frozen
	v.notify(Event{Kind: FreezeToggled, Message: freezeMessage(v.frozen), Frozen: v.frozen})
	gen := v.gen
	if gen == nil {
		return v.frozen
	}
	if v.frozen {
		gen.sim.Restart(0, 0, 0)
	} else {
		for i := range gen.sim.Nodes {
			if !gen.ctl.Holding(i) {
				gen.sim.PinY(i, gen.sim.Nodes[i].Y)
			}
		}
		v.fit()
		gen.scope.After(v.opts.ReleaseDelay, func() {
			gen.sim.ReleaseY(gen.ctl.Holding)
			gen.sim.Restart(unfreezeAlpha, 0, v.strength())
			v.Invalidate()
		})
	}
	v.Invalidate()
	return v.frozen
}

// RandomizeLayout drops every node near the centre, unfreezes and lets the
// layout unfold again.
func (v *View) RandomizeLayout() {
	v.frozen = false
	gen := v.gen
	if gen == nil {
		return
	}
	gen.sim.Scatter(v.center(), scatterSpread)
	gen.sim.Restart(shakeAlpha, 0, v.strength())
	v.Invalidate()
	res := v.fit()
	v.notify(Event{Kind: SimulationRestarted, Message: "Restart: simulation restarted and unfrozen"})
	v.notify(Event{Kind: ViewFitted, Message: fitMessage(res.Changed), Changed: res.Changed})
}

// Command runs a command by name.
func (v *View) Command(name string) error {
	switch name {
	case CmdFit:
		v.FitView()
	case CmdArrange:
		v.ArrangeByYear()
	case CmdFreeze:
		v.ToggleFreeze()
	case CmdRandomize:
		v.RandomizeLayout()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return nil
}

// Press implements interact.Host.
func (v *View) Press(name string) {
	if err := v.Command(name); err != nil {
		slog.Debug("button", "name", name, "error", err)
	}
}

// Pointer feeds a raw screen-space pointer event to the gesture controller.
func (v *View) Pointer(ev interact.PointerEvent) error {
	if v.gen == nil {
		return ErrNotRendered
	}
	return v.gen.ctl.Pointer(ev)
}

// Select makes the node with id the selection. An empty id clears it.
func (v *View) Select(id string) error {
	if v.gen == nil {
		return ErrNotRendered
	}
	ctl := v.gen.ctl
	if id == "" {
		ctl.ClickCanvas()
		return nil
	}
	i, ok := v.gen.graph.Index(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	if cur, ok := ctl.Selected(); ok && cur == i {
		return nil
	}
	ctl.Click(i)
	return nil
}

// Resize changes the canvas size. The transform is kept.
func (v *View) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	v.opts.Width, v.opts.Height = width, height
	v.vp.SetSize(width, height)
	v.Invalidate()
}

// Snapshot exports the current scene without touching it.
func (v *View) Snapshot() (*export.Result, error) {
	opts := v.opts.Export
	opts.Width, opts.Height = v.opts.Width, v.opts.Height
	return export.Snapshot(v.Scene(), opts)
}

// ExportSnapshot snapshots the scene and stores it through dest. A
// cancelled save is reported in the outcome, not as an error.
func (v *View) ExportSnapshot(ctx context.Context, dest export.Downloader) (export.Outcome, error) {
	res, err := v.Snapshot()
	if err != nil {
		v.notify(Event{Kind: SnapshotExported, Message: "Export: failed", Err: err.Error()})
		return export.Outcome{}, err
	}
	out, err := export.Save(ctx, dest, v.opts.Filename, res.SVG)
	e := Event{Kind: SnapshotExported, Location: out.Location, Cancelled: out.Cancelled}
	switch {
	case err != nil:
		e.Message, e.Err = "Export: failed", err.Error()
	case out.Cancelled:
		e.Message = "Export: cancelled"
	default:
		e.Message = "Export: saved"
	}
	v.notify(e)
	return out, err
}
