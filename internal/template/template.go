// Package template defines the document template model: page layouts with
// positioned fields over a background PDF, parsed from pdfme-style JSON.
package template

import "github.com/r0ks0n/pdfflow/internal/layout"

// A4 portrait, millimetres. Used when the template does not dictate a size.
const (
	DefaultPageWidthMm  = 210.0
	DefaultPageHeightMm = 297.0
)

// Typography defaults applied to fields that leave them unset.
const (
	DefaultFontSize   = 13.0
	DefaultLineHeight = 1.4
)

// FieldType names the kind of content a field holds.
type FieldType string

const (
	FieldText  FieldType = "text"
	FieldImage FieldType = "image"
)

// Field is one positioned element of a page layout. Geometry is millimetres
// from the top-left page corner; typography is points.
type Field struct {
	Name        string
	Type        FieldType
	X           float64
	Y           float64
	Width       float64
	Height      float64
	FontSize    float64
	LineHeight  float64
	CharSpacing float64
	Font        string
	Color       string // #RGB or #RRGGBB text color
	Background  string // optional fill behind the field
	Alignment   string // left, center or right
}

// Frame returns the field geometry as a text frame.
func (f Field) Frame() layout.TextFrame {
	return layout.TextFrame{
		WidthMm:     f.Width,
		HeightMm:    f.Height,
		FontSize:    f.FontSize,
		LineHeight:  f.LineHeight,
		CharSpacing: f.CharSpacing,
		Font:        f.Font,
	}
}

// PageLayout is one page's visual template: page size, background source and
// the positioned fields, sorted by name.
type PageLayout struct {
	WidthMm  float64
	HeightMm float64
	Source   LayoutSource
	Fields   []Field
}

// Field returns the named field.
func (l PageLayout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FlowFrame returns the text frame of the named field, which must exist and
// be a text field to serve as a flow target.
func (l PageLayout) FlowFrame(name string) (layout.TextFrame, bool) {
	f, ok := l.Field(name)
	if !ok || f.Type != FieldText {
		return layout.TextFrame{}, false
	}
	return f.Frame(), true
}

// Template is a parsed document template.
type Template struct {
	Pages []PageLayout
}

// First returns the first-page layout.
func (t *Template) First() PageLayout {
	return t.Pages[0]
}

// Continuation returns the layout used for overflow pages: the second page
// layout when the template defines one, otherwise the first again.
func (t *Template) Continuation() PageLayout {
	if len(t.Pages) > 1 {
		return t.Pages[1]
	}
	return t.Pages[0]
}
