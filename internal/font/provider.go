package font

import (
	"fmt"
	"sync"

	"codeberg.org/go-pdf/fpdf"

	"github.com/r0ks0n/pdfflow/internal/apperr"
)

// DefaultFamily is the built-in fallback used when a field names no font or
// an unregistered one.
const DefaultFamily = "Helvetica"

// coreFamilies are always available without registration.
var coreFamilies = map[string]struct{}{
	"Helvetica": {},
	"Times":     {},
	"Courier":   {},
}

// Provider measures rendered text width using fpdf glyph metrics. It owns a
// dedicated measuring document; the mutex serializes access to it because
// font selection mutates document state. The underlying Table is read-only.
type Provider struct {
	mu       sync.Mutex
	pdf      *fpdf.Fpdf
	families map[string]struct{}
}

// NewProvider builds a measuring document and registers every font in table.
// A nil table yields a provider limited to the built-in families.
func NewProvider(table *Table) (*Provider, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	families := make(map[string]struct{})
	if table != nil {
		for _, ref := range table.Refs() {
			ttf, _ := table.Lookup(ref)
			pdf.AddUTF8FontFromBytes(ref, "", ttf)
			families[ref] = struct{}{}
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to register fonts: %w", err)
	}
	return &Provider{pdf: pdf, families: families}, nil
}

// WidthOf returns the rendered width of text in points at the given size.
// Unknown refs are measured with the default family; an error is returned
// only when the measuring backend itself is unusable.
func (p *Provider) WidthOf(text string, fontRef string, fontSize float64) (float64, error) {
	if fontSize <= 0 {
		return 0, apperr.New(apperr.ErrFontUnavailable,
			fmt.Sprintf("invalid font size %v", fontSize), nil)
	}
	family := DefaultFamily
	if fontRef != "" {
		if _, custom := p.families[fontRef]; custom {
			family = fontRef
		} else if _, core := coreFamilies[fontRef]; core {
			family = fontRef
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pdf.SetFont(family, "", fontSize)
	if err := p.pdf.Error(); err != nil {
		return 0, apperr.New(apperr.ErrFontUnavailable,
			"measuring backend unusable", err)
	}
	return p.pdf.GetStringWidth(text), nil
}

// Has reports whether ref is registered as a custom font.
func (p *Provider) Has(ref string) bool {
	_, ok := p.families[ref]
	return ok
}
