package scene

import (
	"strings"
)

// Rule is one stylesheet rule.
type Rule struct {
	Selector string `toml:"selector" json:"selector"`
	Body     string `toml:"body" json:"body"`
}

// String renders the rule as CSS text.
func (r Rule) String() string {
	return r.Selector + " { " + strings.TrimSpace(r.Body) + " }"
}

// Stylesheet is an ordered rule list.
type Stylesheet []Rule

// Applicable returns, in order, the rules whose selector matches at least
// one descendant of root; root itself only takes part as an ancestor. Rules
// depending on dynamic state such as :hover never match a static tree.
func (s Stylesheet) Applicable(root *Element) Stylesheet {
	var out Stylesheet
	for _, r := range s {
		sel, err := ParseSelector(r.Selector)
		if err != nil {
			continue
		}
		matched := false
		root.Walk(func(el *Element, anc []*Element) bool {
			if matched {
				return false
			}
			if el != root && sel.Match(el, anc) {
				matched = true
				return false
			}
			return true
		})
		if matched {
			out = append(out, r)
		}
	}
	return out
}

// CSS renders the rules one per line.
func (s Stylesheet) CSS() string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Selector is a parsed selector list.
type Selector struct {
	alts []complexSel
}

type combinator byte

const (
	descendant combinator = ' '
	child      combinator = '>'
)

// complexSel stores compounds right to left: parts[0] is the subject.
type complexSel struct {
	parts []compound
	combs []combinator // combs[i] joins parts[i] to parts[i+1]
}

type attrSel struct {
	name, value string
	hasValue    bool
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrSel
	dynamic bool
}

// SelectorError reports a selector the parser does not understand.
type SelectorError struct {
	Selector string
	Reason   string
}

func (e *SelectorError) Error() string {
	return "selector " + e.Selector + ": " + e.Reason
}

// ParseSelector parses a selector list made of type, universal, class, id
// and attribute selectors joined by descendant or child combinators.
// Pseudo-classes parse but never match.
func ParseSelector(s string) (*Selector, error) {
	sel := &Selector{}
	for _, alt := range strings.Split(s, ",") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			return nil, &SelectorError{Selector: s, Reason: "empty alternative"}
		}
		c, err := parseComplex(alt)
		if err != nil {
			return nil, &SelectorError{Selector: s, Reason: err.Error()}
		}
		sel.alts = append(sel.alts, c)
	}
	return sel, nil
}

type parseErr string

func (e parseErr) Error() string { return string(e) }

func parseComplex(s string) (complexSel, error) {
	var parts []compound
	var combs []combinator
	s = strings.ReplaceAll(s, ">", " > ")
	pending := combinator(0)
	for _, f := range strings.Fields(s) {
		if f == ">" {
			if len(parts) == 0 || pending == child {
				return complexSel{}, parseErr("dangling combinator")
			}
			pending = child
			continue
		}
		c, err := parseCompound(f)
		if err != nil {
			return complexSel{}, err
		}
		if len(parts) > 0 {
			if pending == 0 {
				pending = descendant
			}
			combs = append(combs, pending)
		}
		pending = 0
		parts = append(parts, c)
	}
	if len(parts) == 0 || pending != 0 {
		return complexSel{}, parseErr("incomplete selector")
	}
	// reverse so the subject comes first
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	for i, j := 0, len(combs)-1; i < j; i, j = i+1, j-1 {
		combs[i], combs[j] = combs[j], combs[i]
	}
	return complexSel{parts: parts, combs: combs}, nil
}

func isIdent(c byte) bool {
	return c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func parseCompound(s string) (compound, error) {
	var c compound
	i := 0
	ident := func() string {
		j := i
		for j < len(s) && isIdent(s[j]) {
			j++
		}
		out := s[i:j]
		i = j
		return out
	}
	if i < len(s) && s[i] == '*' {
		i++
	} else if i < len(s) && isIdent(s[i]) {
		c.tag = ident()
	}
	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			name := ident()
			if name == "" {
				return c, parseErr("empty class")
			}
			c.classes = append(c.classes, name)
		case '#':
			i++
			name := ident()
			if name == "" {
				return c, parseErr("empty id")
			}
			c.id = name
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, parseErr("unterminated attribute selector")
			}
			body := s[i+1 : i+end]
			i += end + 1
			a := attrSel{name: body}
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				a.name = body[:eq]
				a.value = strings.Trim(body[eq+1:], `"'`)
				a.hasValue = true
			}
			if a.name == "" {
				return c, parseErr("empty attribute name")
			}
			c.attrs = append(c.attrs, a)
		case ':':
			i++
			if i < len(s) && s[i] == ':' {
				i++
			}
			ident()
			if i < len(s) && s[i] == '(' {
				end := strings.IndexByte(s[i:], ')')
				if end < 0 {
					return c, parseErr("unterminated pseudo-class")
				}
				i += end + 1
			}
			c.dynamic = true
		default:
			return c, parseErr("unexpected " + string(s[i]))
		}
	}
	return c, nil
}

func (c compound) match(el *Element) bool {
	if c.dynamic {
		return false
	}
	if c.tag != "" && !strings.EqualFold(c.tag, el.Tag) {
		return false
	}
	if c.id != "" && c.id != el.ID {
		return false
	}
	for _, cl := range c.classes {
		if !el.HasClass(cl) {
			return false
		}
	}
	for _, a := range c.attrs {
		var v string
		var ok bool
		switch a.name {
		case "id":
			v, ok = el.ID, el.ID != ""
		case "class":
			v, ok = strings.Join(el.Class, " "), len(el.Class) > 0
		default:
			v, ok = el.Get(a.name)
		}
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

// Match reports whether el, reached through ancestors (outermost first),
// matches any alternative.
func (s *Selector) Match(el *Element, ancestors []*Element) bool {
	for _, alt := range s.alts {
		if alt.match(el, ancestors) {
			return true
		}
	}
	return false
}

func (cs complexSel) match(el *Element, anc []*Element) bool {
	if !cs.parts[0].match(el) {
		return false
	}
	return cs.matchFrom(1, anc)
}

// matchFrom matches parts[i:] against the ancestor chain anc.
func (cs complexSel) matchFrom(i int, anc []*Element) bool {
	if i == len(cs.parts) {
		return true
	}
	switch cs.combs[i-1] {
	case child:
		if len(anc) == 0 {
			return false
		}
		p := anc[len(anc)-1]
		return cs.parts[i].match(p) && cs.matchFrom(i+1, anc[:len(anc)-1])
	default:
		for k := len(anc) - 1; k >= 0; k-- {
			if cs.parts[i].match(anc[k]) && cs.matchFrom(i+1, anc[:k]) {
				return true
			}
		}
		return false
	}
}
