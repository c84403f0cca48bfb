// Package pdf renders one page job into a standalone single-page PDF.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/r0ks0n/pdfflow/internal/apperr"
	"github.com/r0ks0n/pdfflow/internal/font"
	"github.com/r0ks0n/pdfflow/internal/layout"
	"github.com/r0ks0n/pdfflow/internal/logging"
	"github.com/r0ks0n/pdfflow/internal/pagination"
	"github.com/r0ks0n/pdfflow/internal/res"
	"github.com/r0ks0n/pdfflow/internal/template"
	"github.com/r0ks0n/pdfflow/internal/text"
)

// Renderer draws page jobs. Every RenderPage call builds a fresh fpdf
// document, so a single Renderer is safe for concurrent use.
type Renderer struct {
	// Fonts supplies custom TTF families registered into each page.
	Fonts *font.Table
	// Loader resolves image field sources.
	Loader *res.Loader
	// DefaultFont is the family used when a field names no usable font.
	DefaultFont string
	// Debug enables verbose render logging
	Debug bool
}

// NewRenderer creates a page renderer.
func NewRenderer(fonts *font.Table, loader *res.Loader) *Renderer {
	if fonts == nil {
		fonts = font.NewTable()
	}
	if loader == nil {
		loader = res.NewLoader("")
	}
	return &Renderer{
		Fonts:       fonts,
		Loader:      loader,
		DefaultFont: font.DefaultFamily,
	}
}

// RenderPage renders the plan page at index into PDF bytes.
func (r *Renderer) RenderPage(ctx context.Context, index int, job pagination.PageJob) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	widthPt := job.Layout.WidthMm * layout.MmToPt
	heightPt := job.Layout.HeightMm * layout.MmToPt
	if widthPt <= 0 || heightPt <= 0 {
		return nil, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
			"page layout has no printable area",
			fmt.Sprintf("%.1fmm x %.1fmm", job.Layout.WidthMm, job.Layout.HeightMm), nil)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	families := r.registerFonts(pdf)
	if err := pdf.Error(); err != nil {
		return nil, apperr.New(apperr.ErrFontUnavailable, "failed to register fonts", err)
	}

	pdf.AddPageFormat("P", fpdf.SizeType{Wd: widthPt, Ht: heightPt})

	if data, ok := job.Layout.Source.PageBytes(index); ok {
		if err := drawBackground(pdf, data, widthPt); err != nil {
			return nil, err
		}
	}

	for _, field := range job.Layout.Fields {
		value, ok := fieldValue(field, job)
		if !ok || value == "" {
			continue
		}
		if r.Debug {
			logging.Logger().Debug("drawing field",
				slog.Int("page", index+1),
				slog.String("field", field.Name),
				slog.String("type", string(field.Type)))
		}
		switch field.Type {
		case template.FieldText:
			r.drawText(pdf, field, value, families)
		case template.FieldImage:
			r.drawImage(pdf, field, value)
		default:
			// Unknown field types travel through plans but are never drawn.
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index+1, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to emit page %d: %w", index+1, err)
	}
	return buf.Bytes(), nil
}

// fieldValue resolves a layout field to its job value. The flow field of a
// continuation page is stored under its page-suffixed key, everything else
// under its plain name.
func fieldValue(field template.Field, job pagination.PageJob) (string, bool) {
	if field.Name == job.FlowKey.Base {
		v, ok := job.Values[job.FlowKey]
		return v, ok
	}
	v, ok := job.Values[pagination.FieldKey{Base: field.Name}]
	return v, ok
}

// registerFonts loads every table entry into the document and returns the
// set of usable family names. The fpdf core families are always present.
func (r *Renderer) registerFonts(pdf *fpdf.Fpdf) map[string]bool {
	families := map[string]bool{
		"Helvetica": true,
		"Times":     true,
		"Courier":   true,
	}
	for _, ref := range r.Fonts.Refs() {
		data, ok := r.Fonts.Lookup(ref)
		if !ok {
			continue
		}
		pdf.AddUTF8FontFromBytes(ref, "", data)
		families[ref] = true
	}
	return families
}

func (r *Renderer) resolveFamily(name string, families map[string]bool) string {
	if name != "" && families[name] {
		return name
	}
	if r.DefaultFont != "" && families[r.DefaultFont] {
		return r.DefaultFont
	}
	return font.DefaultFamily
}

// drawBackground stamps the first page of src full-bleed behind the fields.
// The importer panics on malformed input, so the call is fenced.
func drawBackground(pdf *fpdf.Fpdf, src []byte, widthPt float64) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = apperr.NewWithDetails(apperr.ErrTemplateInvalid,
				"failed to import background page", fmt.Sprint(rec), nil)
		}
	}()
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	tpl := importer.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")
	importer.UseImportedTemplate(pdf, tpl, 0, 0, widthPt, 0)
	return nil
}

// drawText wraps value into the field frame and places the lines that fit.
func (r *Renderer) drawText(pdf *fpdf.Fpdf, field template.Field, value string, families map[string]bool) {
	frame := field.Frame()
	xPt := field.X * layout.MmToPt
	yPt := field.Y * layout.MmToPt

	if field.Background != "" {
		bg := parseColor(field.Background)
		pdf.SetFillColor(bg[0], bg[1], bg[2])
		pdf.Rect(xPt, yPt, field.Width*layout.MmToPt, field.Height*layout.MmToPt, "F")
	}

	color := parseColor(field.Color)
	pdf.SetTextColor(color[0], color[1], color[2])
	pdf.SetFont(r.resolveFamily(field.Font, families), "", frame.FontSize)

	lines := layoutLines(pdf, value, frame)
	limit := frame.MaxLines()
	if limit < 1 {
		limit = 1
	}
	if len(lines) > limit {
		lines = lines[:limit]
	}

	// Baseline per line: ascent plus half the leading, mirroring how line
	// boxes center glyphs inside their line height.
	ascent := 0.8 * frame.FontSize
	leading := frame.LineHeightPt() - frame.FontSize
	if leading < 0 {
		leading = 0
	}
	top := yPt + frame.PaddingPt()
	for i, line := range lines {
		if line == "" {
			continue
		}
		baseline := top + float64(i)*frame.LineHeightPt() + ascent + leading/2
		startX := lineStartX(pdf, xPt, frame, field.Alignment, line)
		drawLine(pdf, startX, baseline, line, frame.CharSpacing)
	}
}

// layoutLines wraps value into frame-width lines. Blank source lines survive
// as empty entries so the vertical rhythm matches the planner's accounting.
func layoutLines(pdf *fpdf.Fpdf, value string, frame layout.TextFrame) []string {
	measure := func(s string) float64 { return pdf.GetStringWidth(s) }
	var lines []string
	for _, para := range strings.Split(value, "\n") {
		if para == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, text.WrapParagraph(para, frame.WidthPt(), frame.CharSpacing, measure)...)
	}
	return lines
}

func lineStartX(pdf *fpdf.Fpdf, xPt float64, frame layout.TextFrame, alignment, line string) float64 {
	width := pdf.GetStringWidth(line) + frame.CharSpacing*float64(text.RuneLen(line))
	var startX float64
	switch alignment {
	case "center":
		startX = xPt + (frame.WidthPt()-width)/2
	case "right", "end":
		startX = xPt + frame.WidthPt() - width
	default:
		startX = xPt
	}
	if startX < xPt {
		startX = xPt
	}
	if startX > xPt+frame.WidthPt() {
		startX = xPt + frame.WidthPt()
	}
	return startX
}

// drawLine places one line at the baseline. Positive letter spacing falls
// back to rune-by-rune placement since the plain text call has no tracking.
func drawLine(pdf *fpdf.Fpdf, x, y float64, line string, spacing float64) {
	if spacing <= 0 {
		pdf.Text(x, y, line)
		return
	}
	for _, rn := range line {
		s := string(rn)
		pdf.Text(x, y, s)
		x += pdf.GetStringWidth(s) + spacing
	}
}

// drawImage loads the referenced image and stretches it into the field box.
// Load or decode failures skip the field rather than failing the page.
func (r *Renderer) drawImage(pdf *fpdf.Fpdf, field template.Field, value string) {
	img, err := r.Loader.LoadImage(value)
	if err != nil {
		logging.Logger().Warn("failed to load image field",
			slog.String("field", field.Name), slog.Any("error", err))
		return
	}
	name, opts, reader, err := imageSource(field.Name, img)
	if err != nil {
		logging.Logger().Warn("failed to decode image field",
			slog.String("field", field.Name), slog.Any("error", err))
		return
	}
	pdf.RegisterImageOptionsReader(name, opts, reader)
	pdf.ImageOptions(name,
		field.X*layout.MmToPt, field.Y*layout.MmToPt,
		field.Width*layout.MmToPt, field.Height*layout.MmToPt,
		false, opts, 0, "")
}

// imageSource prepares a register-ready reader for the image. Formats the
// PDF writer cannot embed directly are transcoded to PNG through the
// registered decoders.
func imageSource(fieldName string, img *res.Resource) (string, fpdf.ImageOptions, io.Reader, error) {
	switch img.MimeType {
	case "image/jpeg":
		return fieldName, fpdf.ImageOptions{ImageType: "JPG"}, img.GetReader(), nil
	case "image/png":
		return fieldName, fpdf.ImageOptions{ImageType: "PNG"}, img.GetReader(), nil
	case "image/gif":
		return fieldName, fpdf.ImageOptions{ImageType: "GIF"}, img.GetReader(), nil
	}
	decoded, _, err := image.Decode(img.GetReader())
	if err != nil {
		return "", fpdf.ImageOptions{}, nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return "", fpdf.ImageOptions{}, nil, fmt.Errorf("failed to transcode image: %w", err)
	}
	return fieldName + "_png", fpdf.ImageOptions{ImageType: "PNG"}, &buf, nil
}

// parseColor parses a hex or rgb() color value, defaulting to black.
func parseColor(value string) [3]int {
	if strings.HasPrefix(value, "#") {
		if r, g, b, ok := parseHexColor(value); ok {
			return [3]int{r, g, b}
		}
	}

	var r, g, b int
	if _, err := fmt.Sscanf(value, "rgb(%d,%d,%d)", &r, &g, &b); err == nil {
		return [3]int{r, g, b}
	}
	if _, err := fmt.Sscanf(value, "rgb(%d, %d, %d)", &r, &g, &b); err == nil {
		return [3]int{r, g, b}
	}

	return [3]int{0, 0, 0}
}

// parseHexColor parses #RRGGBB or #RGB into r,g,b
func parseHexColor(s string) (int, int, int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 6:
		if rv, err := strconv.ParseUint(s[0:2], 16, 8); err == nil {
			if gv, err := strconv.ParseUint(s[2:4], 16, 8); err == nil {
				if bv, err := strconv.ParseUint(s[4:6], 16, 8); err == nil {
					return int(rv), int(gv), int(bv), true
				}
			}
		}
	case 3:
		r := string([]byte{s[0], s[0]})
		g := string([]byte{s[1], s[1]})
		b := string([]byte{s[2], s[2]})
		if rv, err := strconv.ParseUint(r, 16, 8); err == nil {
			if gv, err := strconv.ParseUint(g, 16, 8); err == nil {
				if bv, err := strconv.ParseUint(b, 16, 8); err == nil {
					return int(rv), int(gv), int(bv), true
				}
			}
		}
	}
	return 0, 0, 0, false
}
