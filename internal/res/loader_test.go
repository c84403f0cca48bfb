package res

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r0ks0n/pdfflow/internal/apperr"
)

func TestLoadDataURLBase64(t *testing.T) {
	payload := []byte("%PDF-1.4\nfake body")
	src := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(payload)

	res, err := NewLoader("").Load(src)
	require.NoError(t, err)
	assert.Equal(t, payload, res.Data)
	assert.Equal(t, "application/pdf", res.MimeType)
	assert.Equal(t, ResourceTypePDF, res.Type)
}

func TestLoadDataURLPlain(t *testing.T) {
	res, err := NewLoader("").Load("data:text/plain,Hello%20World")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello World"), res.Data)
	assert.Equal(t, "text/plain", res.MimeType)
	assert.Equal(t, ResourceTypeOther, res.Type)
}

func TestLoadDataURLInvalid(t *testing.T) {
	_, err := NewLoader("").Load("data:application/pdf;base64,!!!not-base64!!!")
	assert.Error(t, err)

	_, err = NewLoader("").Load("data:no-comma")
	assert.Error(t, err)
}

func TestLoadLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nlocal"), 0o644))

	res, err := NewLoader("").Load(path)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.MimeType)
	assert.Equal(t, ResourceTypePDF, res.Type)
}

func TestLoadRelativeToBase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bg.png"), []byte("png bytes"), 0o644))

	// The base is a template file path; siblings resolve next to it.
	loader := NewLoader(filepath.Join(dir, "template.json"))
	res, err := loader.Load("bg.png")
	require.NoError(t, err)
	assert.Equal(t, ResourceTypeImage, res.Type)
	assert.Equal(t, []byte("png bytes"), res.Data)
}

func TestLoadSearchPaths(t *testing.T) {
	assets := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assets, "logo.jpg"), []byte("jpg bytes"), 0o644))

	loader := NewLoader("")
	loader.AddSearchPath(assets)

	res, err := loader.Load(filepath.Join(t.TempDir(), "missing", "logo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpg bytes"), res.Data)
	assert.Equal(t, ResourceTypeImage, res.Type)
}

func TestLoadCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cached.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\ncached"), 0o644))

	loader := NewLoader("")
	first, err := loader.Load(path)
	require.NoError(t, err)

	// Deleting the file proves the second load is served from cache.
	require.NoError(t, os.Remove(path))
	second, err := loader.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bg.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4\nremote"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := NewLoader("")
	res, err := loader.Load(srv.URL + "/bg.pdf")
	require.NoError(t, err)
	assert.Equal(t, ResourceTypePDF, res.Type)

	_, err = loader.Load(srv.URL + "/gone.pdf")
	assert.Error(t, err)
}

func TestLoadRemoteRelativeToBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/assets/bg.pdf" {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4\nnested"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	loader := NewLoader(srv.URL + "/assets/")
	res, err := loader.Load("bg.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4\nnested"), res.Data)
}

func TestLoadPDFRejectsOtherContent(t *testing.T) {
	loader := NewLoader("")

	_, err := loader.LoadPDF("data:text/plain,not a pdf")
	require.Error(t, err)
	assert.Equal(t, apperr.ErrResource, apperr.CodeOf(err))

	// Octet-stream content with a PDF magic still passes.
	src := "data:;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.7\nx"))
	res, err := loader.LoadPDF(src)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7\nx"), res.Data)
}

func TestLoadImageChecksType(t *testing.T) {
	loader := NewLoader("")

	res, err := loader.LoadImage("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png")))
	require.NoError(t, err)
	assert.Equal(t, ResourceTypeImage, res.Type)

	_, err = loader.LoadImage("data:text/plain,nope")
	require.Error(t, err)
	assert.Equal(t, apperr.ErrResource, apperr.CodeOf(err))
}

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a/b/doc.pdf", "application/pdf"},
		{"photo.JPG", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"img.png", "image/png"},
		{"anim.gif", "image/gif"},
		{"scan.tiff", "image/tiff"},
		{"pic.webp", "image/webp"},
		{"old.bmp", "image/bmp"},
		{"font.ttf", "font/ttf"},
		{"font.otf", "font/otf"},
		{"mystery.dat", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mimeTypeFor(tt.path), tt.path)
	}
}

func TestGetReader(t *testing.T) {
	r := (&Resource{Data: []byte("abc")}).GetReader()
	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(buf))
}
