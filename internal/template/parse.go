package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/r0ks0n/pdfflow/internal/apperr"
	"github.com/r0ks0n/pdfflow/internal/res"
)

// Parser parses template JSON into the typed model. Background sources are
// materialized through the resource loader at parse time, so downstream code
// never sees a raw basePdf value.
type Parser struct {
	loader *res.Loader
}

// NewParser creates a template parser. A nil loader gets a default one.
func NewParser(loader *res.Loader) *Parser {
	if loader == nil {
		loader = res.NewLoader("")
	}
	return &Parser{loader: loader}
}

// Parse parses a template from r.
func (p *Parser) Parse(r io.Reader) (*Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes parses template JSON.
func (p *Parser) ParseBytes(data []byte) (*Template, error) {
	var raw jsonTemplate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
			"template is not valid JSON", err.Error(), err)
	}
	if len(raw.Schemas) == 0 {
		return nil, apperr.New(apperr.ErrTemplateInvalid,
			"template defines no schema pages", nil)
	}

	source, widthMm, heightMm, err := p.parseBasePdf(raw.BasePdf)
	if err != nil {
		return nil, err
	}

	pages := make([]PageLayout, 0, len(raw.Schemas))
	for _, schema := range raw.Schemas {
		pages = append(pages, PageLayout{
			WidthMm:  widthMm,
			HeightMm: heightMm,
			Source:   source,
			Fields:   parseFields(schema),
		})
	}
	return &Template{Pages: pages}, nil
}

// parseBasePdf decides the LayoutSource variant from the basePdf shape:
// a string is one background for every page, an array maps page indexes to
// backgrounds, an object gives explicit blank-page dimensions.
func (p *Parser) parseBasePdf(raw json.RawMessage) (LayoutSource, float64, float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return LayoutSource{}, DefaultPageWidthMm, DefaultPageHeightMm, nil
	}

	switch trimmed[0] {
	case '"':
		var src string
		if err := json.Unmarshal(trimmed, &src); err != nil {
			return LayoutSource{}, 0, 0, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
				"invalid basePdf value", err.Error(), err)
		}
		pdf, err := p.loader.LoadPDF(src)
		if err != nil {
			return LayoutSource{}, 0, 0, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
				"failed to load basePdf", err.Error(), err)
		}
		return SingleSource(pdf.Data), DefaultPageWidthMm, DefaultPageHeightMm, nil

	case '[':
		var srcs []string
		if err := json.Unmarshal(trimmed, &srcs); err != nil {
			return LayoutSource{}, 0, 0, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
				"invalid basePdf array", err.Error(), err)
		}
		pages := make(map[int][]byte, len(srcs))
		for i, src := range srcs {
			pdf, err := p.loader.LoadPDF(src)
			if err != nil {
				return LayoutSource{}, 0, 0, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
					fmt.Sprintf("failed to load basePdf[%d]", i), err.Error(), err)
			}
			pages[i] = pdf.Data
		}
		return PerPageSource(pages), DefaultPageWidthMm, DefaultPageHeightMm, nil

	case '{':
		var dims struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		}
		if err := json.Unmarshal(trimmed, &dims); err != nil {
			return LayoutSource{}, 0, 0, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
				"invalid basePdf object", err.Error(), err)
		}
		w, h := dims.Width, dims.Height
		if w <= 0 {
			w = DefaultPageWidthMm
		}
		if h <= 0 {
			h = DefaultPageHeightMm
		}
		return LayoutSource{}, w, h, nil
	}

	return LayoutSource{}, 0, 0, apperr.New(apperr.ErrTemplateInvalid,
		"basePdf must be a string, an array of strings or a size object", nil)
}

// parseFields converts one schema page, sorted by field name so layouts are
// deterministic regardless of JSON map order.
func parseFields(schema map[string]jsonField) []Field {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f := schema[name]
		field := Field{
			Name:        name,
			Type:        FieldType(f.Type),
			X:           f.Position.X,
			Y:           f.Position.Y,
			Width:       f.Width,
			Height:      f.Height,
			FontSize:    f.FontSize,
			LineHeight:  f.LineHeight,
			CharSpacing: f.CharacterSpacing,
			Font:        f.FontName,
			Color:       f.FontColor,
			Background:  f.BackgroundColor,
			Alignment:   f.Alignment,
		}
		if field.Type == "" {
			field.Type = FieldText
		}
		if field.FontSize <= 0 {
			field.FontSize = DefaultFontSize
		}
		if field.LineHeight <= 0 {
			field.LineHeight = DefaultLineHeight
		}
		if field.Alignment == "" {
			field.Alignment = "left"
		}
		fields = append(fields, field)
	}
	return fields
}

type jsonTemplate struct {
	BasePdf json.RawMessage        `json:"basePdf"`
	Schemas []map[string]jsonField `json:"schemas"`
}

type jsonField struct {
	Type             string       `json:"type"`
	Position         jsonPosition `json:"position"`
	Width            float64      `json:"width"`
	Height           float64      `json:"height"`
	FontSize         float64      `json:"fontSize"`
	LineHeight       float64      `json:"lineHeight"`
	CharacterSpacing float64      `json:"characterSpacing"`
	FontName         string       `json:"fontName"`
	FontColor        string       `json:"fontColor"`
	BackgroundColor  string       `json:"backgroundColor"`
	Alignment        string       `json:"alignment"`
}

type jsonPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
