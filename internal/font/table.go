// Package font owns custom font registration and rendered text measurement.
package font

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Table maps font refs to TTF data. It is built once at startup and must not
// be mutated afterwards; from then on it is safe for concurrent readers.
type Table struct {
	fonts map[string][]byte
}

// NewTable returns an empty font table.
func NewTable() *Table {
	return &Table{fonts: make(map[string][]byte)}
}

// Register adds a font under ref, replacing any previous registration.
func (t *Table) Register(ref string, ttf []byte) {
	t.fonts[ref] = ttf
}

// LoadDir registers every *.ttf file found directly in dir under its file
// name without extension.
func (t *Table) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read font directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, ".ttf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read font file %s: %w", name, err)
		}
		t.Register(strings.TrimSuffix(name, ext), data)
	}
	return nil
}

// Lookup returns the TTF data registered under ref.
func (t *Table) Lookup(ref string) ([]byte, bool) {
	data, ok := t.fonts[ref]
	return data, ok
}

// Refs returns all registered refs in sorted order.
func (t *Table) Refs() []string {
	refs := make([]string, 0, len(t.fonts))
	for ref := range t.fonts {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Len returns the number of registered fonts.
func (t *Table) Len() int {
	return len(t.fonts)
}
