package scene

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Palette holds the colours and sizes the view draws with.
type Palette struct {
	NodeFill      string  `toml:"node_fill"`
	DimmedNode    string  `toml:"dimmed_node"`
	DimmedLink    string  `toml:"dimmed_link"`
	DimOpacity    float64 `toml:"dim_opacity"`
	LabelFontSize float64 `toml:"label_font_size"`
	HoverFontSize float64 `toml:"hover_font_size"`
	HoverFill     string  `toml:"hover_fill"`
	ButtonFill    string  `toml:"button_fill"`
	ButtonStroke  string  `toml:"button_stroke"`
	IconStroke    string  `toml:"icon_stroke"`
	ButtonSize    float64 `toml:"button_size"`
	ButtonPadding float64 `toml:"button_padding"`
}

// Theme is a palette plus the stylesheet exported snapshots inline.
type Theme struct {
	Palette Palette    `toml:"palette"`
	Rules   Stylesheet `toml:"rules"`
}

// BaseTheme is the palette with no stylesheet. Theme files are decoded on
// top of it, so a file only needs the keys it changes.
func BaseTheme() *Theme {
	return &Theme{
		Palette: Palette{
			NodeFill:      "#4f8bc9",
			DimmedNode:    "#ddd",
			DimmedLink:    "#ccc",
			DimOpacity:    0.3,
			LabelFontSize: 12,
			HoverFontSize: 16,
			HoverFill:     "#eee",
			ButtonFill:    "#fff",
			ButtonStroke:  "#888",
			IconStroke:    "#2d5d87",
			ButtonSize:    36,
			ButtonPadding: 10,
		},
	}
}

// ParseTheme decodes a TOML theme over BaseTheme.
func ParseTheme(data []byte) (*Theme, error) {
	t := BaseTheme()
	if _, err := toml.Decode(string(data), t); err != nil {
		return nil, fmt.Errorf("decode theme: %w", err)
	}
	for _, r := range t.Rules {
		if _, err := ParseSelector(r.Selector); err != nil {
			return nil, fmt.Errorf("theme rule: %w", err)
		}
	}
	return t, nil
}

// LoadTheme reads the theme at path inside fsys, then lets the file at
// override (if it exists) replace it. Override rules are appended after
// the shipped ones so they win in the cascade.
func LoadTheme(fsys fs.FS, path, override string) (*Theme, error) {
	t := BaseTheme()
	if fsys != nil && path != "" {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read theme %s: %w", path, err)
		}
		if t, err = ParseTheme(data); err != nil {
			return nil, err
		}
	}
	if override == "" {
		return t, nil
	}
	data, err := os.ReadFile(override)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read theme %s: %w", override, err)
	}
	base := t.Rules
	t.Rules = nil
	if _, err := toml.Decode(string(data), t); err != nil {
		return nil, fmt.Errorf("decode theme %s: %w", override, err)
	}
	for _, r := range t.Rules {
		if _, err := ParseSelector(r.Selector); err != nil {
			return nil, fmt.Errorf("theme rule: %w", err)
		}
	}
	t.Rules = append(base, t.Rules...)
	return t, nil
}
