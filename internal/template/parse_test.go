package template

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r0ks0n/pdfflow/internal/apperr"
)

func pdfDataURL(marker string) string {
	return "data:application/pdf;base64," +
		base64.StdEncoding.EncodeToString([]byte("%PDF-1.4\n"+marker))
}

func TestParseSizeObject(t *testing.T) {
	tpl, err := NewParser(nil).ParseBytes([]byte(`{
		"basePdf": {"width": 148, "height": 210},
		"schemas": [{
			"content": {
				"type": "text",
				"position": {"x": 20, "y": 40},
				"width": 108, "height": 150,
				"fontSize": 11, "lineHeight": 1.5,
				"characterSpacing": 0.5,
				"fontName": "NotoSerifJP-Regular",
				"fontColor": "#333333",
				"backgroundColor": "#ffffee",
				"alignment": "center"
			}
		}]
	}`))
	require.NoError(t, err)
	require.Len(t, tpl.Pages, 1)

	page := tpl.Pages[0]
	assert.Equal(t, 148.0, page.WidthMm)
	assert.Equal(t, 210.0, page.HeightMm)
	assert.True(t, page.Source.IsZero())

	f, ok := page.Field("content")
	require.True(t, ok)
	assert.Equal(t, FieldText, f.Type)
	assert.Equal(t, 20.0, f.X)
	assert.Equal(t, 40.0, f.Y)
	assert.Equal(t, 108.0, f.Width)
	assert.Equal(t, 150.0, f.Height)
	assert.Equal(t, 11.0, f.FontSize)
	assert.Equal(t, 1.5, f.LineHeight)
	assert.Equal(t, 0.5, f.CharSpacing)
	assert.Equal(t, "NotoSerifJP-Regular", f.Font)
	assert.Equal(t, "#333333", f.Color)
	assert.Equal(t, "#ffffee", f.Background)
	assert.Equal(t, "center", f.Alignment)
}

func TestParseFieldDefaults(t *testing.T) {
	tpl, err := NewParser(nil).ParseBytes([]byte(`{
		"schemas": [{"note": {"position": {"x": 1, "y": 2}, "width": 50, "height": 20}}]
	}`))
	require.NoError(t, err)

	f, ok := tpl.Pages[0].Field("note")
	require.True(t, ok)
	assert.Equal(t, FieldText, f.Type)
	assert.Equal(t, DefaultFontSize, f.FontSize)
	assert.Equal(t, DefaultLineHeight, f.LineHeight)
	assert.Equal(t, "left", f.Alignment)

	// No basePdf at all falls back to a blank A4 page.
	assert.Equal(t, DefaultPageWidthMm, tpl.Pages[0].WidthMm)
	assert.Equal(t, DefaultPageHeightMm, tpl.Pages[0].HeightMm)
	assert.True(t, tpl.Pages[0].Source.IsZero())
}

func TestParseFieldsSortedByName(t *testing.T) {
	tpl, err := NewParser(nil).ParseBytes([]byte(`{
		"schemas": [{
			"zeta":  {"width": 1, "height": 1},
			"alpha": {"width": 1, "height": 1},
			"mid":   {"width": 1, "height": 1}
		}]
	}`))
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for _, f := range tpl.Pages[0].Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestParseStringBasePdf(t *testing.T) {
	tpl, err := NewParser(nil).ParseBytes([]byte(`{
		"basePdf": "` + pdfDataURL("base") + `",
		"schemas": [{"content": {"width": 100, "height": 200}}]
	}`))
	require.NoError(t, err)

	src := tpl.Pages[0].Source
	require.False(t, src.IsZero())
	data, ok := src.PageBytes(4)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.Equal(t, DefaultPageWidthMm, tpl.Pages[0].WidthMm)
}

func TestParseArrayBasePdf(t *testing.T) {
	tpl, err := NewParser(nil).ParseBytes([]byte(`{
		"basePdf": ["` + pdfDataURL("first") + `", "` + pdfDataURL("rest") + `"],
		"schemas": [{"content": {"width": 100, "height": 200}}]
	}`))
	require.NoError(t, err)

	src := tpl.Pages[0].Source
	data, ok := src.PageBytes(0)
	require.True(t, ok)
	assert.Contains(t, string(data), "first")

	data, ok = src.PageBytes(1)
	require.True(t, ok)
	assert.Contains(t, string(data), "rest")

	data, ok = src.PageBytes(6)
	require.True(t, ok)
	assert.Contains(t, string(data), "rest")
}

func TestParseContinuationLayout(t *testing.T) {
	one, err := NewParser(nil).ParseBytes([]byte(`{
		"schemas": [{"content": {"width": 100, "height": 200}}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, one.First(), one.Continuation())

	two, err := NewParser(nil).ParseBytes([]byte(`{
		"schemas": [
			{"content": {"width": 100, "height": 100}, "title": {"width": 100, "height": 20}},
			{"content": {"width": 100, "height": 200}}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, two.Pages, 2)
	assert.NotEqual(t, two.First(), two.Continuation())
	_, ok := two.Continuation().Field("title")
	assert.False(t, ok)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{"schemas": [`},
		{"no schemas", `{"basePdf": {"width": 210, "height": 297}}`},
		{"empty schemas", `{"schemas": []}`},
		{"numeric basePdf", `{"basePdf": 42, "schemas": [{"a": {"width": 1, "height": 1}}]}`},
		{"basePdf not a pdf", `{"basePdf": "data:text/plain,hello", "schemas": [{"a": {"width": 1, "height": 1}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(nil).ParseBytes([]byte(tt.json))
			require.Error(t, err)
			assert.Equal(t, apperr.ErrTemplateInvalid, apperr.CodeOf(err))
		})
	}
}

func TestParseSizeObjectDefaultsBadDimensions(t *testing.T) {
	tpl, err := NewParser(nil).ParseBytes([]byte(`{
		"basePdf": {"width": -5, "height": 0},
		"schemas": [{"content": {"width": 100, "height": 200}}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultPageWidthMm, tpl.Pages[0].WidthMm)
	assert.Equal(t, DefaultPageHeightMm, tpl.Pages[0].HeightMm)
}

func TestParseReader(t *testing.T) {
	tpl, err := NewParser(nil).Parse(strings.NewReader(`{
		"schemas": [{"content": {"width": 100, "height": 200}}]
	}`))
	require.NoError(t, err)
	assert.Len(t, tpl.Pages, 1)
}
