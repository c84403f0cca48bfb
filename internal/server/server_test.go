package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r0ks0n/pdfflow/internal/apperr"
	"github.com/r0ks0n/pdfflow/internal/logging"
	"github.com/r0ks0n/pdfflow/internal/store"
)

const letterTemplate = `{
	"basePdf": {"width": 210, "height": 297},
	"schemas": [{
		"content": {"type": "text", "position": {"x": 20, "y": 40},
			"width": 170, "height": 200, "fontSize": 11, "lineHeight": 1.5},
		"title": {"type": "text", "position": {"x": 20, "y": 15},
			"width": 170, "height": 12, "fontSize": 18, "lineHeight": 1.2}
	}]
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{StoreDir: t.TempDir()})
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRenderInlineTemplate(t *testing.T) {
	body := `{"template": ` + letterTemplate + `, "data": {"content": "Hello there.", "title": "Greeting"}}`
	rec := do(t, newTestServer(t), http.MethodPost, "/v1/render", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Page-Count"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestRenderStoredTemplate(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/templates",
		`{"name": "letter", "template": `+letterTemplate+`}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, s, http.MethodPost, "/v1/render",
		`{"templateId": "`+created.ID+`", "data": {"content": "From the store."}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestRenderCustomFlowField(t *testing.T) {
	tmpl := `{"schemas": [{"body": {"type": "text", "width": 170, "height": 200,
		"fontSize": 11, "lineHeight": 1.5}}]}`
	body := `{"template": ` + tmpl + `, "flowField": "body", "data": {"body": "Custom flow target."}}`

	rec := do(t, newTestServer(t), http.MethodPost, "/v1/render", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRenderRequestValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		errRef string
	}{
		{"no template", `{"data": {"content": "x"}}`, http.StatusBadRequest, "template or templateId"},
		{"malformed body", `{"template": `, http.StatusBadRequest, "invalid request body"},
		{"batch data", `{"template": ` + letterTemplate + `, "data": [{"content": "a"}]}`,
			http.StatusBadRequest, "batch arrays are not supported"},
		{"unknown template id", `{"templateId": "` + uuid.NewString() + `", "data": {}}`,
			http.StatusNotFound, "template not found"},
		{"missing flow field", `{"template": {"schemas": [{"title": {"width": 100, "height": 20}}]}, "data": {}}`,
			http.StatusUnprocessableEntity, "flow field"},
		{"non-string flow value", `{"template": ` + letterTemplate + `, "data": {"content": 5}}`,
			http.StatusUnprocessableEntity, "must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/render", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.errRef)
		})
	}
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/templates",
		`{"name": "invoice", "template": `+letterTemplate+`}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "invoice", created.Name)

	rec = do(t, s, http.MethodGet, "/v1/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = do(t, s, http.MethodGet, "/v1/templates/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPut, "/v1/templates/"+created.ID,
		`{"name": "invoice-v2", "template": `+letterTemplate+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "invoice-v2", updated.Name)

	rec = do(t, s, http.MethodDelete, "/v1/templates/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/v1/templates/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateCreateValidation(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/templates", `{"name": "empty"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/v1/templates", `{"name": "bad", "template": {`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/v1/render", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	defer logging.SetLogger(nil)
	handler := logging.NewBufferedLogHandler(nil)
	logging.SetLogger(slog.New(handler))

	do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.True(t, handler.Contains("request"))
	assert.True(t, handler.Contains("path=/healthz"))
	assert.True(t, handler.Contains("status=200"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code apperr.Code
		want int
	}{
		{apperr.ErrTemplateNotFound, http.StatusNotFound},
		{apperr.ErrTemplateInvalid, http.StatusBadRequest},
		{apperr.ErrMissingFlowField, http.StatusUnprocessableEntity},
		{apperr.ErrInvalidFieldType, http.StatusUnprocessableEntity},
		{apperr.ErrPageRenderFailed, http.StatusInternalServerError},
		{apperr.ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := apperr.New(tt.code, "boom", nil)
		assert.Equal(t, tt.want, statusFor(err), string(tt.code))
	}
}
