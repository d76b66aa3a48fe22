// Package scene is the retained vector scene a graph view draws into.
//
// Elements mirror SVG: a tag, an optional id, classes, ordered attributes,
// text content and children. The live view rebuilds its tree every frame;
// the exporter clones it, strips the interactive parts and serialises the
// rest with WriteSVG.
package scene

import (
	"strconv"
	"strings"
)

// Attr is one attribute, kept in insertion order so output is stable.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Element is one node of the scene tree.
type Element struct {
	Tag      string     `json:"tag"`
	ID       string     `json:"id,omitempty"`
	Class    []string   `json:"class,omitempty"`
	Attrs    []Attr     `json:"attrs,omitempty"`
	Text     string     `json:"text,omitempty"`
	Children []*Element `json:"children,omitempty"`
}

// New returns an element with the given tag and classes.
func New(tag string, class ...string) *Element {
	return &Element{Tag: tag, Class: class}
}

// Set sets an attribute, replacing an existing value.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// SetNum sets a numeric attribute in its shortest form.
func (e *Element) SetNum(name string, v float64) *Element {
	return e.Set(name, Num(v))
}

// Get returns an attribute value.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Float parses a numeric attribute, ignoring a trailing "px". Missing or
// malformed values read as 0, false.
func (e *Element) Float(name string) (float64, bool) {
	v, ok := e.Get(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Unset removes an attribute.
func (e *Element) Unset(name string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// WithID sets the element id.
func (e *Element) WithID(id string) *Element {
	e.ID = id
	return e
}

// WithText sets the text content.
func (e *Element) WithText(s string) *Element {
	e.Text = s
	return e
}

// HasClass reports whether c is one of the element classes.
func (e *Element) HasClass(c string) bool {
	for _, x := range e.Class {
		if x == c {
			return true
		}
	}
	return false
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Insert puts c at position i among the children, clamping i to range.
func (e *Element) Insert(i int, c *Element) {
	if i < 0 {
		i = 0
	}
	if i > len(e.Children) {
		i = len(e.Children)
	}
	e.Children = append(e.Children, nil)
	copy(e.Children[i+1:], e.Children[i:])
	e.Children[i] = c
}

// Clone deep-copies the subtree.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := &Element{Tag: e.Tag, ID: e.ID, Text: e.Text}
	if e.Class != nil {
		c.Class = append([]string(nil), e.Class...)
	}
	if e.Attrs != nil {
		c.Attrs = append([]Attr(nil), e.Attrs...)
	}
	if e.Children != nil {
		c.Children = make([]*Element, len(e.Children))
		for i, ch := range e.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// Walk visits the subtree depth first. ancestors lists the path from the
// walk root down to the parent of el. Returning false skips el's children.
func (e *Element) Walk(fn func(el *Element, ancestors []*Element) bool) {
	var walk func(el *Element, path []*Element)
	walk = func(el *Element, path []*Element) {
		if !fn(el, path) {
			return
		}
		path = append(path, el)
		for _, c := range el.Children {
			walk(c, path)
		}
	}
	walk(e, nil)
}

// Find returns the first element in document order matching pred.
func (e *Element) Find(pred func(*Element) bool) *Element {
	var found *Element
	e.Walk(func(el *Element, _ []*Element) bool {
		if found != nil {
			return false
		}
		if pred(el) {
			found = el
			return false
		}
		return true
	})
	return found
}

// FindAll returns every element matching pred in document order.
func (e *Element) FindAll(pred func(*Element) bool) []*Element {
	var out []*Element
	e.Walk(func(el *Element, _ []*Element) bool {
		if pred(el) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// RemoveIf drops every descendant matching pred, with its subtree, and
// returns how many were dropped. e itself is never removed.
func (e *Element) RemoveIf(pred func(*Element) bool) int {
	n := 0
	kept := e.Children[:0]
	for _, c := range e.Children {
		if pred(c) {
			n++
			continue
		}
		n += c.RemoveIf(pred)
		kept = append(kept, c)
	}
	for i := len(kept); i < len(e.Children); i++ {
		e.Children[i] = nil
	}
	e.Children = kept
	return n
}

// ByClass matches elements carrying class c.
func ByClass(c string) func(*Element) bool {
	return func(e *Element) bool { return e.HasClass(c) }
}

// ByTag matches elements with the given tag.
func ByTag(tag string) func(*Element) bool {
	return func(e *Element) bool { return e.Tag == tag }
}

// ByID matches the element with the given id.
func ByID(id string) func(*Element) bool {
	return func(e *Element) bool { return e.ID == id }
}

// Num formats a coordinate the way the scene writes every number.
func Num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
