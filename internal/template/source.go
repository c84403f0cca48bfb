package template

type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceSingle
	sourcePerPage
)

// LayoutSource carries the background PDF(s) behind rendered pages. The
// variant is decided once, when the template is parsed: either one PDF
// reused for every page, or a per-page mapping. Nothing downstream inspects
// the template's raw basePdf shape again.
type LayoutSource struct {
	kind    sourceKind
	single  []byte
	perPage map[int][]byte
}

// SingleSource returns a source backing every page with pdf. Empty pdf means
// pages render on a blank background.
func SingleSource(pdf []byte) LayoutSource {
	if len(pdf) == 0 {
		return LayoutSource{}
	}
	return LayoutSource{kind: sourceSingle, single: pdf}
}

// PerPageSource returns a source with one background per page index. Page
// indexes beyond the mapping reuse the highest mapped entry.
func PerPageSource(pages map[int][]byte) LayoutSource {
	if len(pages) == 0 {
		return LayoutSource{}
	}
	return LayoutSource{kind: sourcePerPage, perPage: pages}
}

// PageBytes returns the background PDF for the 0-based document page index.
// The second return is false when the page has no background.
func (s LayoutSource) PageBytes(index int) ([]byte, bool) {
	switch s.kind {
	case sourceSingle:
		return s.single, true
	case sourcePerPage:
		if pdf, ok := s.perPage[index]; ok {
			return pdf, true
		}
		best := -1
		for i := range s.perPage {
			if i > best && i < index {
				best = i
			}
		}
		if best >= 0 {
			return s.perPage[best], true
		}
		return nil, false
	default:
		return nil, false
	}
}

// IsZero reports whether the source holds no background at all.
func (s LayoutSource) IsZero() bool {
	return s.kind == sourceNone
}
