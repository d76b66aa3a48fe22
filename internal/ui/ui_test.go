package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatTable(t *testing.T) {
	color.NoColor = true
	out := FormatTable([]string{"YEAR", "LINKS"}, [][]string{{"2023/2024", "12"}, {"all", "3"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[2], "  2023/2024  12") {
		t.Errorf("unexpected row %q", lines[2])
	}
	if FormatTable([]string{"A"}, nil) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestBanner(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	old := Out
	Out = &buf
	defer func() { Out = old }()

	Banner("render")
	if !strings.Contains(buf.String(), "mentorgraph · render") {
		t.Errorf("unexpected banner %q", buf.String())
	}
}

func TestSwatch(t *testing.T) {
	color.NoColor = true
	if got := Swatch("#4f8bc9"); got != "#4f8bc9" {
		t.Errorf("expected plain value without colour, got %q", got)
	}
	if r, g, b, ok := parseHex("#fa0"); !ok || r != 255 || g != 170 || b != 0 {
		t.Errorf("parseHex(#fa0) = %d %d %d %v", r, g, b, ok)
	}
	if _, _, _, ok := parseHex("navy"); ok {
		t.Error("named colours are not hex")
	}
}
