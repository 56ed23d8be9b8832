package ident

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/okravets/shipkit/internal/config"
)

// ErrNotFound is returned when the identity record does not exist yet.
var ErrNotFound = errors.New("project identity record not found")

// Record is the persistent per-project identity. ProjectID is generated once
// and survives version advances.
type Record struct {
	// ProjectID is the stable project identifier.
	ProjectID string `yaml:"project_id"`
	// App is the packaged application name.
	App string `yaml:"app"`
	// Version is the last packaged version.
	Version string `yaml:"version"`
	// UpdatedAt is when the record last advanced.
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Repository stores the identity record in a YAML file.
type Repository struct {
	mu   sync.Mutex
	path string
}

// NewRepository returns a repository backed by the given file path.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Load reads the identity record. Returns ErrNotFound when no record has been
// written yet.
func (r *Repository) Load() (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// Advance records a packaged version, creating the record with a fresh
// project identifier on first use.
func (r *Repository) Advance(app, version string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.load()
	if errors.Is(err, ErrNotFound) {
		record = &Record{ProjectID: uuid.NewString()}
	} else if err != nil {
		return nil, err
	}

	record.App = app
	record.Version = version
	record.UpdatedAt = time.Now().UTC()

	if err = r.save(record); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *Repository) load() (*Record, error) {
	contents, err := os.ReadFile(filepath.Clean(r.path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", r.path, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("read identity record: %w", err)
	}

	var record Record
	if err = yaml.Unmarshal(contents, &record); err != nil {
		return nil, fmt.Errorf("decode identity record: %w", err)
	}

	return &record, nil
}

func (r *Repository) save(record *Record) error {
	contents, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal identity record: %w", err)
	}

	if err = os.WriteFile(r.path, contents, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write identity record: %w", err)
	}

	return nil
}
