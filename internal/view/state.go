package view

import (
	"github.com/msalah0e/mentorgraph/internal/geom"
	"github.com/msalah0e/mentorgraph/internal/interact"
)

// NodeView is one node as a client draws it.
type NodeView struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Promo  string             `json:"promo"`
	X      float64            `json:"x"`
	Y      float64            `json:"y"`
	R      float64            `json:"r"`
	Pinned bool               `json:"pinned,omitempty"`
	State  interact.NodeState `json:"state"`
}

// LinkView is one link as a client draws it.
type LinkView struct {
	Source string             `json:"source"`
	Target string             `json:"target"`
	Family string             `json:"family"`
	Year   string             `json:"year"`
	Color  string             `json:"color"`
	State  interact.LinkState `json:"state"`
}

// State is a JSON friendly copy of everything on screen.
type State struct {
	Generation uint64               `json:"generation"`
	Version    uint64               `json:"version"`
	Year       string               `json:"year"`
	Years      []string             `json:"years"`
	Frozen     bool                 `json:"frozen"`
	Running    bool                 `json:"running"`
	Alpha      float64              `json:"alpha"`
	Width      float64              `json:"width"`
	Height     float64              `json:"height"`
	Transform  geom.Transform       `json:"transform"`
	Animating  bool                 `json:"animating"`
	Selected   string               `json:"selected,omitempty"`
	Hover      *interact.HoverLabel `json:"hover,omitempty"`
	Nodes      []NodeView           `json:"nodes"`
	Links      []LinkView           `json:"links"`
}

// State snapshots the view.
func (v *View) State() State {
	size := v.vp.Size()
	st := State{
		Generation: v.Generation(),
		Version:    v.version,
		Year:       v.year,
		Years:      v.ds.Years(),
		Frozen:     v.frozen,
		Width:      size.X,
		Height:     size.Y,
		Transform:  v.vp.Current(),
		Animating:  v.vp.Animating(),
		Nodes:      []NodeView{},
		Links:      []LinkView{},
	}
	gen := v.gen
	if gen == nil {
		return st
	}
	st.Running = gen.sim.Running()
	st.Alpha = gen.sim.Alpha()
	if i, ok := gen.ctl.Selected(); ok {
		st.Selected = gen.graph.Nodes[i].ID
	}
	if h := gen.ctl.Hover(); h.Visible {
		st.Hover = &h
	}
	for i, n := range gen.graph.Nodes {
		sn := &gen.sim.Nodes[i]
		st.Nodes = append(st.Nodes, NodeView{
			ID:     n.ID,
			Name:   n.Label.Name(),
			Promo:  n.Label.Promo,
			X:      sn.X,
			Y:      sn.Y,
			R:      sn.R,
			Pinned: sn.Pinned(),
			State:  gen.ctl.NodeState(i),
		})
	}
	for j, l := range gen.graph.Links {
		st.Links = append(st.Links, LinkView{
			Source: gen.graph.Nodes[l.Source].ID,
			Target: gen.graph.Nodes[l.Target].ID,
			Family: l.Label.Family,
			Year:   l.Label.Year,
			Color:  l.Color,
			State:  gen.ctl.LinkState(j),
		})
	}
	return st
}
