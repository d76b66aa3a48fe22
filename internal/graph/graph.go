// Package graph resolves dataset nodes and links into an indexed arena.
package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/msalah0e/mentorgraph/internal/dataset"
)

// Node is one student in the arena.
type Node struct {
	ID    string            `json:"id"`
	Label dataset.NodeLabel `json:"-"`
	Raw   string            `json:"label"`
}

// Link joins two arena indices.
type Link struct {
	Source int               `json:"source"`
	Target int               `json:"target"`
	Label  dataset.LinkLabel `json:"-"`
	Raw    string            `json:"label"`
	Color  string            `json:"color"`
}

// Graph is the resolved arena. Links refer to nodes by index.
type Graph struct {
	Nodes     []Node             `json:"nodes"`
	Links     []Link             `json:"links"`
	Neighbors [][]int            `json:"-"`
	Dropped   []dataset.LinkSpec `json:"dropped,omitempty"`

	index map[string]int
}

// Stats summarises a graph.
type Stats struct {
	Nodes    int `json:"nodes"`
	Links    int `json:"links"`
	Dropped  int `json:"dropped"`
	Isolated int `json:"isolated"`
	Colors   int `json:"colors"`
}

// Build resolves ids. The first node with an id wins; links naming an
// unknown id are dropped and listed in Dropped.
func Build(nodes []dataset.NodeSpec, links []dataset.LinkSpec) *Graph {
	g := &Graph{index: make(map[string]int, len(nodes))}
	for _, n := range nodes {
		if _, dup := g.index[n.ID]; dup {
			continue
		}
		g.index[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{ID: n.ID, Label: dataset.ParseNodeLabel(n.Label), Raw: n.Label})
	}
	g.Neighbors = make([][]int, len(g.Nodes))
	for _, l := range links {
		s, ok1 := g.index[l.Source]
		t, ok2 := g.index[l.Target]
		if !ok1 || !ok2 {
			g.Dropped = append(g.Dropped, l)
			continue
		}
		g.Links = append(g.Links, Link{
			Source: s,
			Target: t,
			Label:  dataset.ParseLinkLabel(l.Label),
			Raw:    l.Label,
			Color:  l.Color,
		})
		g.Neighbors[s] = appendUnique(g.Neighbors[s], t)
		g.Neighbors[t] = appendUnique(g.Neighbors[t], s)
	}
	return g
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// Index returns the arena index of id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// NeighborsOf returns the nodes sharing a link with i, either direction.
func (g *Graph) NeighborsOf(i int) []int {
	if i < 0 || i >= len(g.Neighbors) {
		return nil
	}
	return g.Neighbors[i]
}

// Adjacent reports whether a and b share a link.
func (g *Graph) Adjacent(a, b int) bool {
	for _, n := range g.NeighborsOf(a) {
		if n == b {
			return true
		}
	}
	return false
}

// Colors lists the distinct link colours in first-seen order.
func (g *Graph) Colors() []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range g.Links {
		if !seen[l.Color] {
			seen[l.Color] = true
			out = append(out, l.Color)
		}
	}
	return out
}

// GetStats returns summary statistics.
func (g *Graph) GetStats() Stats {
	isolated := 0
	for _, n := range g.Neighbors {
		if len(n) == 0 {
			isolated++
		}
	}
	return Stats{
		Nodes:    len(g.Nodes),
		Links:    len(g.Links),
		Dropped:  len(g.Dropped),
		Isolated: isolated,
		Colors:   len(g.Colors()),
	}
}

// Search returns node indices whose name contains query, case-insensitive,
// exact matches first.
func (g *Graph) Search(query string) []int {
	q := strings.ToLower(strings.TrimSpace(query))
	type hit struct{ i, score int }
	var hits []hit
	for i, n := range g.Nodes {
		name := strings.ToLower(n.Label.Name())
		switch {
		case name == q:
			hits = append(hits, hit{i, 100})
		case q != "" && strings.Contains(name, q):
			hits = append(hits, hit{i, 50})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	out := make([]int, len(hits))
	for k, h := range hits {
		out[k] = h.i
	}
	return out
}

// ExportJSON returns the arena as pretty-printed JSON.
func (g *Graph) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// ExportDOT returns the graph in Graphviz DOT format.
func (g *Graph) ExportDOT() string {
	var b strings.Builder
	b.WriteString("digraph mentorgraph {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=ellipse, style=filled, fillcolor=\"#4f8bc9\", fontcolor=white];\n\n")

	for _, n := range g.Nodes {
		label := n.Label.Name()
		if n.Label.Promo != "" {
			label += "\\npromo " + n.Label.Promo
		}
		b.WriteString(fmt.Sprintf("  %q [label=%q];\n", n.ID, label))
	}

	b.WriteString("\n")
	for _, l := range g.Links {
		attrs := fmt.Sprintf("label=%q", dataset.DisplayLinkLabel(l.Raw))
		if l.Color != "" {
			attrs += fmt.Sprintf(", color=%q", l.Color)
		}
		b.WriteString(fmt.Sprintf("  %q -> %q [%s];\n", g.Nodes[l.Source].ID, g.Nodes[l.Target].ID, attrs))
	}

	b.WriteString("}\n")
	return b.String()
}
