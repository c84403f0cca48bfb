package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/r0ks0n/pdfflow/internal/assemble"
	"github.com/r0ks0n/pdfflow/internal/font"
	"github.com/r0ks0n/pdfflow/internal/interp"
	"github.com/r0ks0n/pdfflow/internal/layout"
	"github.com/r0ks0n/pdfflow/internal/logging"
	"github.com/r0ks0n/pdfflow/internal/pagination"
	"github.com/r0ks0n/pdfflow/internal/render/pdf"
	"github.com/r0ks0n/pdfflow/internal/res"
	"github.com/r0ks0n/pdfflow/internal/template"
)

// Generator is the main API for paginated document generation. Long text in
// the flow field spills across as many continuation pages as it needs; every
// other field is placed on the first page as given.
type Generator struct {
	options Options
	loader  *res.Loader
	fonts   *font.Table
}

// New creates a new document generator with default options
func New() *Generator {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates a new document generator with the specified options
func NewWithOptions(options Options) *Generator {
	loader := res.NewLoader(options.BaseURL)
	for _, path := range options.ResourcePaths {
		loader.AddSearchPath(path)
	}

	fonts := font.NewTable()
	for _, dir := range options.FontDirectories {
		if err := fonts.LoadDir(dir); err != nil {
			logging.Logger().Warn("failed to load font directory",
				slog.String("dir", dir), slog.Any("error", err))
		}
	}

	return &Generator{
		options: options,
		loader:  loader,
		fonts:   fonts,
	}
}

// RegisterFont adds a font family available to templates by name.
func (g *Generator) RegisterFont(name string, data []byte) {
	g.fonts.Register(name, data)
}

// Generate renders the template with the given inputs and returns the
// finished multi-page document.
func (g *Generator) Generate(ctx context.Context, templateJSON []byte, inputs map[string]any) ([]byte, error) {
	return g.GenerateField(ctx, templateJSON, inputs, g.options.FlowField)
}

// GenerateField is like Generate but flows text through the named field
// instead of the configured one. An empty name keeps the configured field.
func (g *Generator) GenerateField(ctx context.Context, templateJSON []byte, inputs map[string]any, flowField string) ([]byte, error) {
	if flowField == "" {
		flowField = g.options.FlowField
	}
	tpl, err := template.NewParser(g.loader).ParseBytes(templateJSON)
	if err != nil {
		return nil, err
	}
	return g.generate(ctx, tpl, inputs, flowField)
}

// GenerateDocument renders an already parsed template with the given inputs.
func (g *Generator) GenerateDocument(ctx context.Context, tpl *template.Template, inputs map[string]any) ([]byte, error) {
	return g.generate(ctx, tpl, inputs, g.options.FlowField)
}

func (g *Generator) generate(ctx context.Context, tpl *template.Template, inputs map[string]any, flowField string) ([]byte, error) {
	resolved := resolveInputs(inputs)

	if flowField == "" {
		flowField = DefaultFlowField
	}
	fullText := ""
	if v, ok := resolved[flowField]; ok {
		if s, isString := v.(string); isString {
			fullText = s
		}
	}

	metrics, err := font.NewProvider(g.fonts)
	if err != nil {
		return nil, err
	}
	planner := pagination.NewPlanner(layout.NewEstimator(metrics))
	plan, err := planner.Plan(flowField, tpl.First(), tpl.Continuation(), fullText, resolved)
	if err != nil {
		return nil, err
	}

	renderer := pdf.NewRenderer(g.fonts, g.loader)
	renderer.Debug = g.options.Debug
	if g.options.DefaultFont != "" {
		renderer.DefaultFont = g.options.DefaultFont
	}

	asm := assemble.NewAssembler(renderer.RenderPage)
	if g.options.Concurrency > 0 {
		asm.Concurrency = g.options.Concurrency
	}
	return asm.Assemble(ctx, plan)
}

// GenerateToFile renders the template with the given inputs and writes the
// document to the specified file
func (g *Generator) GenerateToFile(ctx context.Context, templateJSON []byte, inputs map[string]any, outputPath string) error {
	data, err := g.Generate(ctx, templateJSON, inputs)
	if err != nil {
		return err
	}

	outputDir := filepath.Dir(outputPath)
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// GenerateFromFiles reads a template file and a JSON data file and writes
// the rendered document to the specified file. Relative resources in the
// template resolve against the template's directory.
func (g *Generator) GenerateFromFiles(ctx context.Context, templatePath, dataPath, outputPath string) error {
	templateJSON, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template file: %w", err)
	}

	g.loader = res.NewLoader(templatePath)
	for _, path := range g.options.ResourcePaths {
		g.loader.AddSearchPath(path)
	}

	inputs := map[string]any{}
	if dataPath != "" {
		raw, err := os.ReadFile(dataPath)
		if err != nil {
			return fmt.Errorf("failed to read data file: %w", err)
		}
		if err := json.Unmarshal(raw, &inputs); err != nil {
			return fmt.Errorf("failed to decode data file: %w", err)
		}
	}

	return g.GenerateToFile(ctx, templateJSON, inputs, outputPath)
}

// PageCount reports the number of pages in a finished document.
func PageCount(data []byte) (int, error) {
	return assemble.PageCount(data)
}

// WithOptions returns a new generator with the specified options
func (g *Generator) WithOptions(options Options) *Generator {
	return NewWithOptions(options)
}

// WithOption returns a new generator with the specified option set
func (g *Generator) WithOption(option Option) *Generator {
	newOptions := g.options
	option(&newOptions)
	return NewWithOptions(newOptions)
}

// resolveInputs applies {{path}} resolution to every string value, using the
// full input map as the lookup context. Non-string values pass through.
func resolveInputs(inputs map[string]any) map[string]any {
	out := make(map[string]any, len(inputs))
	for k, v := range inputs {
		if s, ok := v.(string); ok {
			out[k] = interp.Resolve(s, inputs)
		} else {
			out[k] = v
		}
	}
	return out
}
