package release

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/fsutil"
)

// ManifestFilename is the release manifest written next to the packages.
const ManifestFilename = "shipkit-release.yaml"

// Manifest describes everything one release run produced.
type Manifest struct {
	// Version is the released version, shared by both channels.
	Version string `yaml:"version"`
	// ProjectID is the stable project identifier from the identity record.
	ProjectID string `yaml:"project_id,omitempty"`
	// Producer records who ran the release, for the audit trail.
	Producer string `yaml:"producer,omitempty"`
	// CreatedAt is when the manifest was written.
	CreatedAt time.Time `yaml:"created_at"`
	// Channels holds the per-channel results.
	Channels Channels `yaml:"channels"`
	// Files maps every produced path to its base64 SHA-512 checksum.
	Files map[string]string `yaml:"files"`
}

// Channels groups the outputs of the two independent release channels.
type Channels struct {
	// Platforms lists the native package results, one per requested platform.
	Platforms []PlatformResult `yaml:"platforms,omitempty"`
	// Environment is the reproducible build channel result, when requested.
	Environment *EnvironmentResult `yaml:"environment,omitempty"`
}

// PlatformResult is one native packaging outcome.
type PlatformResult struct {
	// Platform names the target.
	Platform string `yaml:"platform"`
	// Package is the produced distributable path.
	Package string `yaml:"package"`
	// Signature is the terminal signature status: none, signed or notarized.
	Signature string `yaml:"signature"`
}

// EnvironmentResult is the reproducible channel outcome.
type EnvironmentResult struct {
	// Package is the environment archive path.
	Package string `yaml:"package"`
	// Digest is the archive content digest.
	Digest string `yaml:"digest"`
	// Image is the OCI layout reference, when the image was built.
	Image string `yaml:"image,omitempty"`
}

// NewManifest returns an empty manifest for the given version.
func NewManifest(version string) *Manifest {
	return &Manifest{
		Version:   version,
		CreatedAt: time.Now().UTC(),
		Files:     make(map[string]string),
	}
}

// AddFile checksums path and records it in the manifest.
func (m *Manifest) AddFile(path string) error {
	checksum, err := fsutil.FileChecksum(path)
	if err != nil {
		return err
	}

	m.Files[path] = base64.StdEncoding.EncodeToString(checksum)

	return nil
}

// SortedFiles returns the recorded paths in deterministic order.
func (m *Manifest) SortedFiles() []string {
	files := make([]string, 0, len(m.Files))
	for name := range m.Files {
		files = append(files, name)
	}

	sort.Strings(files)

	return files
}

// Save writes the manifest into dir and records its own path in the result.
func (m *Manifest) Save(dir string) (string, error) {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, ManifestFilename)
	if err = os.WriteFile(path, contents, config.DefaultFilePermissions); err != nil {
		return "", err
	}

	return path, nil
}

// LoadManifest reads a previously written release manifest.
func LoadManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err = yaml.Unmarshal(contents, &manifest); err != nil {
		return nil, err
	}

	return &manifest, nil
}
