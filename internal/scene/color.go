package scene

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor reads #rgb, #rrggbb and CSS colour names.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 3:
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		case 6:
		default:
			return color.RGBA{}, false
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, false
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
	}
	c, ok := colornames.Map[s]
	return c, ok
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Luminance is the WCAG relative luminance of c.
func Luminance(c color.RGBA) float64 {
	lin := func(v uint8) float64 {
		x := float64(v) / 255
		if x <= 0.03928 {
			return x / 12.92
		}
		return math.Pow((x+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.R) + 0.7152*lin(c.G) + 0.0722*lin(c.B)
}

// ContrastText picks the label colour for text drawn over background: white
// when white contrasts more, dark grey otherwise and for anything that does
// not parse.
func ContrastText(background string) string {
	c, ok := ParseColor(background)
	if !ok {
		return "#333"
	}
	l := Luminance(c)
	white := 1.05 / (l + 0.05)
	black := (l + 0.05) / 0.05
	if white > black {
		return "#fff"
	}
	return "#333"
}

// MarkerID is the id of the arrowhead marker for links of colour c. Colours
// are reduced to characters valid in an XML id.
func MarkerID(c string) string {
	var b strings.Builder
	b.WriteString("arrowhead-")
	for _, r := range strings.ToLower(c) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
