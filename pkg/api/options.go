package api

// DefaultFlowField is the conventional name of the field that receives the
// flowed text.
const DefaultFlowField = "content"

// DefaultConcurrency bounds parallel page renders per document.
const DefaultConcurrency = 4

// Options represents configuration options for the document generator
type Options struct {
	// FlowField names the template field that receives the flowed text
	FlowField string

	// DefaultFont is the family used when a field names no registered font
	DefaultFont string

	// Concurrency bounds parallel page renders per document
	Concurrency int

	// Debug enables verbose logging
	Debug bool

	// BaseURL resolves relative template resources
	BaseURL string

	// Resource paths
	ResourcePaths   []string
	FontDirectories []string
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		FlowField:   DefaultFlowField,
		DefaultFont: "Helvetica",
		Concurrency: DefaultConcurrency,
		Debug:       false,

		ResourcePaths:   []string{},
		FontDirectories: []string{},
	}
}

// WithFlowField names the template field that receives the flowed text
func WithFlowField(name string) Option {
	return func(o *Options) {
		o.FlowField = name
	}
}

// WithDefaultFont sets the fallback font family
func WithDefaultFont(family string) Option {
	return func(o *Options) {
		o.DefaultFont = family
	}
}

// WithConcurrency bounds parallel page renders per document
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

// WithDebug sets the debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithBaseURL sets the base URL for relative template resources
func WithBaseURL(base string) Option {
	return func(o *Options) {
		o.BaseURL = base
	}
}

// WithResourcePath adds a path to search for resources
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithFontDirectory adds a directory to search for fonts
func WithFontDirectory(dir string) Option {
	return func(o *Options) {
		o.FontDirectories = append(o.FontDirectories, dir)
	}
}
