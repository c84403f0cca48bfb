// Package store persists templates as JSON files on disk, one file per
// template, named by its generated ID.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/r0ks0n/pdfflow/internal/apperr"
	"github.com/r0ks0n/pdfflow/internal/logging"
)

// Record is a stored template with its metadata.
type Record struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Template  json.RawMessage `json:"template"`
}

// Store is a file-backed template collection. All operations are safe for
// concurrent use.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// NewStore opens a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Create stores a new template and returns its record.
func (s *Store) Create(name string, tmpl json.RawMessage) (*Record, error) {
	if !json.Valid(tmpl) {
		return nil, apperr.New(apperr.ErrTemplateInvalid, "template is not valid JSON", nil)
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Template:  tmpl,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (*Record, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(path, id)
}

// Update replaces the template (and, when non-empty, the name) of an
// existing record.
func (s *Store) Update(id, name string, tmpl json.RawMessage) (*Record, error) {
	if !json.Valid(tmpl) {
		return nil, apperr.New(apperr.ErrTemplateInvalid, "template is not valid JSON", nil)
	}
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.read(path, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		rec.Name = name
	}
	rec.Template = tmpl
	rec.UpdatedAt = time.Now().UTC()
	if err := s.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	return nil
}

// List returns every stored record sorted by name, then ID. Unreadable
// files are skipped.
func (s *Store) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		rec, err := s.read(filepath.Join(s.dir, entry.Name()), id)
		if err != nil {
			logging.Logger().Warn("skipping unreadable template record",
				slog.String("file", entry.Name()), slog.Any("error", err))
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// path validates the ID and maps it to its file. Anything that is not a
// UUID cannot name a record, which also keeps IDs from escaping the store
// directory.
func (s *Store) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", notFound(id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *Store) read(path, id string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to read template %s: %w", id, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) write(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode template %s: %w", rec.ID, err)
	}
	path := filepath.Join(s.dir, rec.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write template %s: %w", rec.ID, err)
	}
	return nil
}

func notFound(id string) error {
	return apperr.NewWithDetails(apperr.ErrTemplateNotFound,
		"template not found", fmt.Sprintf("id %q", id), nil)
}
