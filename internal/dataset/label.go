package dataset

import (
	"strings"
)

// Delim joins the parts of a composite label.
const Delim = "--"

// JoinLabel joins parts with Delim.
func JoinLabel(parts ...string) string {
	return strings.Join(parts, Delim)
}

// SplitLabel is the inverse of JoinLabel.
func SplitLabel(label string) []string {
	return strings.Split(label, Delim)
}

// NodeLabel is a decoded first--last--promo label.
type NodeLabel struct {
	First string
	Last  string
	Promo string
}

// ParseNodeLabel decodes a node label. Missing parts are empty.
func ParseNodeLabel(label string) NodeLabel {
	p := SplitLabel(label)
	var l NodeLabel
	if len(p) > 0 {
		l.First = p[0]
	}
	if len(p) > 1 {
		l.Last = p[1]
	}
	if len(p) > 2 {
		l.Promo = p[2]
	}
	return l
}

// Name is the display name.
func (l NodeLabel) Name() string {
	return strings.TrimSpace(l.First + " " + l.Last)
}

// Lines are the two text lines drawn inside a node.
func (l NodeLabel) Lines() [2]string {
	return [2]string{l.First + " " + l.Last, "promo " + l.Promo}
}

// PromoYear reads the promotion as an integer the lenient way: leading
// spaces and a sign are allowed and trailing garbage is ignored, so
// "2023b" is 2023 while "b2023" and "" do not parse.
func (l NodeLabel) PromoYear() (int, bool) {
	return leadingInt(l.Promo)
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n > (1<<31)/10 {
			return 0, false
		}
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// LinkLabel is a decoded family--year label.
type LinkLabel struct {
	Family string
	Year   string
}

// ParseLinkLabel decodes a link label.
func ParseLinkLabel(label string) LinkLabel {
	p := SplitLabel(label)
	var l LinkLabel
	if len(p) > 0 {
		l.Family = p[0]
	}
	if len(p) > 1 {
		l.Year = p[1]
	}
	return l
}

// DisplayLinkLabel renders a link label for people: "family - year".
func DisplayLinkLabel(label string) string {
	return strings.Join(SplitLabel(label), " - ")
}
