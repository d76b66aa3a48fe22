package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Brand colors
var (
	Brand  = color.New(color.FgHiBlue, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const Mortarboard = "\U0001F393" // 🎓

// Out is where the printers write. Tests swap it.
var Out io.Writer = os.Stdout

// Banner prints the mentorgraph banner.
func Banner(subtitle string) {
	fmt.Fprintf(Out, "%s %s · %s\n\n", Mortarboard, Brand.Sprint("mentorgraph"), subtitle)
}

// Table prints a simple aligned table.
func Table(headers []string, rows [][]string) {
	fmt.Fprint(Out, FormatTable(headers, rows))
}

// FormatTable renders what Table prints.
func FormatTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	b.WriteString(Subtle.Sprint(headerLine) + "\n")
	b.WriteString(Subtle.Sprint(sepLine) + "\n")

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// StatusIcon returns a status icon string.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// WarnIcon returns a warning icon.
func WarnIcon() string {
	return Warn.Sprint("⚠")
}

// Swatch prefixes hex with a block painted in that colour. Without colour
// support it returns hex unchanged.
func Swatch(hex string) string {
	r, g, b, ok := parseHex(hex)
	if !ok || color.NoColor {
		return hex
	}
	return color.RGB(r, g, b).Sprint("■") + " " + hex
}

func parseHex(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(s, "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return 0, 0, 0, false
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0, false
	}
	return r, g, b, true
}
