package scene

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Extent is the size of one line of text: Width along the baseline, Ascent
// above it and Descent below it.
type Extent struct {
	Width   float64
	Ascent  float64
	Descent float64
}

// Measurer sizes text set at a font size in pixels.
type Measurer interface {
	Measure(text string, size float64) Extent
}

// FontMeasurer measures with the Go Regular face. Faces are built lazily,
// one per size.
type FontMeasurer struct {
	fnt *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFontMeasurer parses the embedded Go Regular font.
func NewFontMeasurer() (*FontMeasurer, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontMeasurer{fnt: fnt, faces: map[float64]font.Face{}}, nil
}

func (m *FontMeasurer) face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

// Measure implements Measurer. Sizes the face cannot be built for fall back
// to a fixed-pitch estimate.
func (m *FontMeasurer) Measure(text string, size float64) Extent {
	if size <= 0 {
		return Extent{}
	}
	f, err := m.face(size)
	if err != nil {
		return ApproxMeasurer{}.Measure(text, size)
	}
	met := f.Metrics()
	return Extent{
		Width:   toFloat(font.MeasureString(f, text)),
		Ascent:  toFloat(met.Ascent),
		Descent: toFloat(met.Descent),
	}
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// ApproxMeasurer assumes every glyph is 0.6em wide. It needs no font data,
// which keeps layout tests independent of font metrics.
type ApproxMeasurer struct{}

// Measure implements Measurer.
func (ApproxMeasurer) Measure(text string, size float64) Extent {
	n := 0
	for range text {
		n++
	}
	return Extent{
		Width:   0.6 * size * float64(n),
		Ascent:  0.8 * size,
		Descent: 0.2 * size,
	}
}
