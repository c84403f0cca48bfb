// Package pdfflow generates paginated PDF documents from JSON templates.
// One designated text field per template receives long, flowing text and
// spills across continuation pages; all other fields render on the first
// page as given.
package pdfflow

import (
	"github.com/r0ks0n/pdfflow/pkg/api"
)

type Generator = api.Generator
type Options = api.Options
type Option = api.Option

func New() *Generator                           { return api.New() }
func NewWithOptions(options Options) *Generator { return api.NewWithOptions(options) }
func DefaultOptions() Options                   { return api.DefaultOptions() }

var (
	WithFlowField     = api.WithFlowField
	WithDefaultFont   = api.WithDefaultFont
	WithConcurrency   = api.WithConcurrency
	WithDebug         = api.WithDebug
	WithBaseURL       = api.WithBaseURL
	WithResourcePath  = api.WithResourcePath
	WithFontDirectory = api.WithFontDirectory

	PageCount = api.PageCount
)

const (
	DefaultFlowField   = api.DefaultFlowField
	DefaultConcurrency = api.DefaultConcurrency
)
