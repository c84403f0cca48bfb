// Package res loads the external assets a template refers to: base PDFs,
// font files and image field content. Sources may be RFC 2397 data URLs,
// http(s) URLs or local paths.
package res

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/r0ks0n/pdfflow/internal/apperr"
)

// ResourceType classifies a loaded resource.
type ResourceType int

const (
	// ResourceTypeUnknown is an unclassified resource
	ResourceTypeUnknown ResourceType = iota
	// ResourceTypePDF is a PDF document
	ResourceTypePDF
	// ResourceTypeImage is an image resource
	ResourceTypeImage
	// ResourceTypeFont is a font resource
	ResourceTypeFont
	// ResourceTypeOther is any other resource
	ResourceTypeOther
)

// Resource is a loaded asset.
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// Loader resolves and caches template assets. Safe for concurrent use.
type Loader struct {
	// Base URL or file path for resolving relative references
	BaseURL string

	cache     map[string]*Resource
	cacheLock sync.RWMutex

	searchPaths []string

	client *http.Client
}

// NewLoader creates a loader resolving relative references against baseURL.
func NewLoader(baseURL string) *Loader {
	return &Loader{
		BaseURL: baseURL,
		cache:   make(map[string]*Resource),
		client:  &http.Client{},
	}
}

// AddSearchPath adds a directory consulted when a local path does not exist.
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// Load fetches the resource at src, serving repeated loads from cache.
func (l *Loader) Load(src string) (*Resource, error) {
	l.cacheLock.RLock()
	if res, ok := l.cache[src]; ok {
		l.cacheLock.RUnlock()
		return res, nil
	}
	l.cacheLock.RUnlock()

	var res *Resource
	var err error
	switch {
	case strings.HasPrefix(src, "data:"):
		res, err = parseDataURL(src)
	default:
		var resolved string
		resolved, err = l.resolveURL(src)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(resolved, "http://") || strings.HasPrefix(resolved, "https://") {
			res, err = l.loadRemote(resolved)
		} else {
			res, err = l.loadLocal(resolved)
		}
	}
	if err != nil {
		return nil, err
	}

	l.cacheLock.Lock()
	l.cache[src] = res
	l.cacheLock.Unlock()

	return res, nil
}

// LoadPDF loads a resource and checks that it is a PDF.
func (l *Loader) LoadPDF(src string) (*Resource, error) {
	res, err := l.Load(src)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypePDF && !bytes.HasPrefix(res.Data, []byte("%PDF")) {
		return nil, apperr.NewWithDetails(apperr.ErrResource, "resource is not a PDF", src, nil)
	}
	return res, nil
}

// LoadImage loads a resource and checks that it is an image.
func (l *Loader) LoadImage(src string) (*Resource, error) {
	res, err := l.Load(src)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeImage {
		return nil, apperr.NewWithDetails(apperr.ErrResource, "resource is not an image", src, nil)
	}
	return res, nil
}

// LoadFont loads a resource and checks that it is a font.
func (l *Loader) LoadFont(src string) (*Resource, error) {
	res, err := l.Load(src)
	if err != nil {
		return nil, err
	}
	if res.Type != ResourceTypeFont {
		return nil, apperr.NewWithDetails(apperr.ErrResource, "resource is not a font", src, nil)
	}
	return res, nil
}

// parseDataURL parses an RFC 2397 data URL.
// Examples:
//
//	data:application/pdf;base64,<base64>
//	data:text/plain,Hello%20World
func parseDataURL(u string) (*Resource, error) {
	s := strings.TrimPrefix(u, "data:")
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid data URL")
	}
	meta, payload := parts[0], parts[1]

	mime := "application/octet-stream"
	isBase64 := false
	if meta != "" {
		comps := strings.Split(meta, ";")
		if comps[0] != "" {
			mime = comps[0]
		}
		for _, c := range comps[1:] {
			if strings.EqualFold(strings.TrimSpace(c), "base64") {
				isBase64 = true
			}
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URL: %w", err)
		}
		data = decoded
	} else {
		// The non-base64 form is URL-escaped
		if d, err := url.QueryUnescape(payload); err == nil {
			data = []byte(d)
		} else {
			data = []byte(payload)
		}
	}

	r := &Resource{URL: u, Data: data, MimeType: mime}
	r.Type = resourceTypeFor(mime, "")
	return r, nil
}

// resolveURL resolves src relative to the loader's base.
func (l *Loader) resolveURL(src string) (string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src, nil
	}
	if filepath.IsAbs(src) {
		return src, nil
	}

	if !strings.HasPrefix(l.BaseURL, "http://") && !strings.HasPrefix(l.BaseURL, "https://") {
		if l.BaseURL == "" {
			return src, nil
		}
		return filepath.Join(filepath.Dir(l.BaseURL), src), nil
	}

	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}

func (l *Loader) loadRemote(src string) (*Resource, error) {
	resp, err := l.client.Get(src)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	res := &Resource{
		URL:      src,
		Data:     data,
		MimeType: resp.Header.Get("Content-Type"),
	}
	res.Type = resourceTypeFor(res.MimeType, src)
	return res, nil
}

func (l *Loader) loadLocal(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l.loadFromSearchPaths(path)
		}
		return nil, err
	}

	res := &Resource{URL: path, Data: data}
	res.MimeType = mimeTypeFor(path)
	res.Type = resourceTypeFor(res.MimeType, path)
	return res, nil
}

func (l *Loader) loadFromSearchPaths(path string) (*Resource, error) {
	name := filepath.Base(path)
	for _, dir := range l.searchPaths {
		candidate := filepath.Join(dir, name)
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		res := &Resource{URL: candidate, Data: data}
		res.MimeType = mimeTypeFor(candidate)
		res.Type = resourceTypeFor(res.MimeType, candidate)
		return res, nil
	}
	return nil, apperr.NewWithDetails(apperr.ErrResource, "resource not found", path, nil)
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	default:
		return "application/octet-stream"
	}
}

func resourceTypeFor(mimeType, path string) ResourceType {
	if mimeType == "application/pdf" {
		return ResourceTypePDF
	}
	if strings.HasPrefix(mimeType, "image/") {
		return ResourceTypeImage
	}
	if strings.HasPrefix(mimeType, "font/") {
		return ResourceTypeFont
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return ResourceTypePDF
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".tiff", ".tif", ".bmp":
		return ResourceTypeImage
	case ".ttf", ".otf":
		return ResourceTypeFont
	}
	return ResourceTypeOther
}

// GetReader returns a reader over the resource data.
func (r *Resource) GetReader() *bytes.Reader {
	return bytes.NewReader(r.Data)
}
