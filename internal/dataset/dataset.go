// Package dataset is the inbound data contract of the mentoring graph:
// students, tutoring relationships, and the node and link lists derived
// from them.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a source has no data at the requested place.
var ErrNotFound = errors.New("dataset not found")

// AllYears selects every link in Filter.
const AllYears = "all"

// Key is an identifier that may be written as a JSON/YAML number or string.
type Key string

// UnmarshalJSON accepts numbers and strings.
func (k *Key) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*k = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*k = Key(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("key: %w", err)
	}
	*k = Key(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar.
func (k *Key) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("key: line %d: expected a scalar", n.Line)
	}
	*k = Key(n.Value)
	return nil
}

// MarshalJSON writes integers as numbers, everything else as a string.
func (k Key) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(k), 10, 64); err == nil {
		return []byte(k), nil
	}
	return json.Marshal(string(k))
}

// Student is one person.
type Student struct {
	ID        Key    `json:"id" yaml:"id"`
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
	Promo     Key    `json:"promo" yaml:"promo"`
}

// Tutoring is one mentor to student relationship inside a family and year.
type Tutoring struct {
	ID        Key    `json:"id" yaml:"id"`
	MentorID  Key    `json:"mentorId" yaml:"mentorId"`
	StudentID Key    `json:"studentId" yaml:"studentId"`
	Family    string `json:"family" yaml:"family"`
	Year      string `json:"year" yaml:"year"`
	Color     string `json:"color" yaml:"color"`
}

// Family is a distinct family and year.
type Family struct {
	Name  string `json:"name"`
	Year  string `json:"year"`
	Color string `json:"color"`
}

// NodeSpec is a node as the view receives it.
type NodeSpec struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// LinkSpec is a link as the view receives it, directed mentor to student.
type LinkSpec struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

// Year returns the year part of the label.
func (l LinkSpec) Year() string { return ParseLinkLabel(l.Label).Year }

// Dataset is everything loaded from a source.
type Dataset struct {
	Students []Student  `json:"students"`
	Tutoring []Tutoring `json:"tutoring"`
}

// Nodes lists one node per student, labelled first--last--promo.
func (d *Dataset) Nodes() []NodeSpec {
	out := make([]NodeSpec, 0, len(d.Students))
	for _, s := range d.Students {
		out = append(out, NodeSpec{
			ID:    string(s.ID),
			Label: JoinLabel(s.FirstName, s.LastName, string(s.Promo)),
		})
	}
	return out
}

// Links lists one link per tutoring entry, labelled family--year.
func (d *Dataset) Links() []LinkSpec {
	out := make([]LinkSpec, 0, len(d.Tutoring))
	for _, t := range d.Tutoring {
		out = append(out, LinkSpec{
			Source: string(t.MentorID),
			Target: string(t.StudentID),
			Label:  JoinLabel(t.Family, t.Year),
			Color:  t.Color,
		})
	}
	return out
}

// Years returns the distinct link years, sorted.
func (d *Dataset) Years() []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range d.Links() {
		y := l.Year()
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	sort.Strings(out)
	return out
}

// YearCounts returns how many links each year has.
func (d *Dataset) YearCounts() map[string]int {
	out := map[string]int{}
	for _, l := range d.Links() {
		out[l.Year()]++
	}
	return out
}

// Families returns one entry per family and year, in order of first
// appearance. When entries disagree on colour the last one wins.
func (d *Dataset) Families() []Family {
	idx := map[string]int{}
	var out []Family
	for _, t := range d.Tutoring {
		key := t.Family + "_" + t.Year
		f := Family{Name: t.Family, Year: t.Year, Color: t.Color}
		if i, ok := idx[key]; ok {
			out[i] = f
			continue
		}
		idx[key] = len(out)
		out = append(out, f)
	}
	return out
}

// NormalizeYear maps "", "all" in any case, and surrounding blanks to the
// canonical year key.
func NormalizeYear(year string) string {
	year = strings.TrimSpace(year)
	if year == "" || strings.EqualFold(year, AllYears) {
		return AllYears
	}
	return year
}

// Filter returns the nodes and links shown for year. AllYears keeps
// everything; any other year keeps its links and the nodes they touch.
func (d *Dataset) Filter(year string) ([]NodeSpec, []LinkSpec) {
	nodes, links := d.Nodes(), d.Links()
	year = NormalizeYear(year)
	if year == AllYears {
		return nodes, links
	}
	var kept []LinkSpec
	touched := map[string]bool{}
	for _, l := range links {
		if l.Year() != year {
			continue
		}
		kept = append(kept, l)
		touched[l.Source] = true
		touched[l.Target] = true
	}
	var out []NodeSpec
	for _, n := range nodes {
		if touched[n.ID] {
			out = append(out, n)
		}
	}
	return out, kept
}

// HasYear reports whether year is AllYears or one of Years.
func (d *Dataset) HasYear(year string) bool {
	year = NormalizeYear(year)
	if year == AllYears {
		return true
	}
	for _, y := range d.Years() {
		if y == year {
			return true
		}
	}
	return false
}
