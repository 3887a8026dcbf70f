package graphview

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// nominalFontSize is the size labels are measured at before fitting.
const nominalFontSize = 10.0

var (
	fitOnce sync.Once
	fitFace font.Face
)

// labelFace returns the measuring face, parsed once from the embedded Go
// Regular font.
func labelFace() font.Face {
	fitOnce.Do(func() {
		fnt, err := opentype.Parse(goregular.TTF)
		if err != nil {
			panic(err) // embedded font is always parseable
		}
		fitFace, err = opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    nominalFontSize,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			panic(err)
		}
	})
	return fitFace
}

// measureLabel returns the bounding box of text rendered at the nominal size.
func measureLabel(text string) (width, height float64) {
	face := labelFace()
	width = float64(font.MeasureString(face, text)) / 64
	m := face.Metrics()
	height = float64(m.Ascent+m.Descent) / 64
	return width, height
}

// fitLabel computes the font size that makes text fit inside a circle of the
// given radius: the nominal size scaled by the smaller of the width and
// height ratios between the circle's bounding box and the text's.
func fitLabel(text string, radius float64) float64 {
	if text == "" || radius <= 0 {
		return nominalFontSize
	}
	w, h := measureLabel(text)
	if w <= 0 || h <= 0 {
		return nominalFontSize
	}
	box := 2 * radius
	scale := box / w
	if s := box / h; s < scale {
		scale = s
	}
	return nominalFontSize * scale
}
