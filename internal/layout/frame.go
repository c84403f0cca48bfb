// Package layout models the flowed text region of a page and computes how
// many characters of real, font-measured text fit inside it.
package layout

import "math"

// MmToPt converts millimetres to PostScript points.
const MmToPt = 2.83465

// framePaddingMm is the fixed internal allowance kept clear at the top and
// bottom of every text frame.
const framePaddingMm = 2.0

// TextFrame describes the geometry and typography of a flowed text region.
// Dimensions are millimetres, font size and character spacing are points.
type TextFrame struct {
	WidthMm     float64
	HeightMm    float64
	FontSize    float64
	LineHeight  float64 // multiplier on FontSize
	CharSpacing float64 // added per rune
	Font        string  // metrics font ref; empty selects the default family
}

// WidthPt returns the frame width in points.
func (f TextFrame) WidthPt() float64 {
	return f.WidthMm * MmToPt
}

// UsableHeightPt returns the frame height in points after subtracting the
// internal top and bottom padding.
func (f TextFrame) UsableHeightPt() float64 {
	return (f.HeightMm - 2*framePaddingMm) * MmToPt
}

// PaddingPt returns the internal top padding in points.
func (f TextFrame) PaddingPt() float64 {
	return framePaddingMm * MmToPt
}

// LineHeightPt returns the advance between baselines in points.
func (f TextFrame) LineHeightPt() float64 {
	return f.FontSize * f.LineHeight
}

// MaxLines returns how many full lines fit in the usable height.
func (f TextFrame) MaxLines() int {
	lh := f.LineHeightPt()
	if lh <= 0 {
		return 0
	}
	n := math.Floor(f.UsableHeightPt() / lh)
	if n < 0 {
		return 0
	}
	return int(n)
}

func (f TextFrame) valid() bool {
	return f.WidthMm > 0 && f.HeightMm > 0 && f.FontSize > 0 && f.LineHeight > 0
}
