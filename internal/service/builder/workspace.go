package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/okravets/shipkit/internal/version"
)

const (
	// ManifestFilename declares the project name, version and dependencies.
	ManifestFilename = "project.toml"

	// LockFilename pins every resolved dependency recipe.
	LockFilename = "shipkit.lock.yaml"

	// OverlayFilename holds optional workspace-level recipe overrides.
	// It is the highest-precedence layer.
	OverlayFilename = "shipkit.overlay.yaml"

	// SourceDirName is the source tree packaged into the environment.
	SourceDirName = "src"
)

var (
	// errMissingManifest is returned when the workspace has no project manifest.
	errMissingManifest = errors.New("workspace manifest not found")
	// errMissingLockfile is returned when the workspace has no lockfile.
	// Resolution without a lockfile would not be reproducible.
	errMissingLockfile = errors.New("workspace lockfile not found")
	// errMissingSourceTree is returned when the workspace has no source tree.
	errMissingSourceTree = errors.New("workspace source tree not found")
)

// Recipe is one resolved build recipe for a dependency. Recipes are replaced
// whole by higher layers, never merged field by field.
type Recipe struct {
	// Version is the pinned dependency version.
	Version string `toml:"version" yaml:"version"`
	// Source is where the dependency is fetched from.
	Source string `toml:"source" yaml:"source,omitempty"`
	// Checksum pins the dependency contents.
	Checksum string `toml:"checksum" yaml:"checksum,omitempty"`
}

// Manifest is the project declaration parsed from project.toml.
type Manifest struct {
	Project struct {
		// Name of the packaged application.
		Name string `toml:"name"`
		// Version declared by the source tree. This version is forced onto
		// the built package regardless of what resolution would infer.
		Version string `toml:"version"`
		// Dependencies lists the direct dependency names.
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`

	BuildSystem struct {
		// Overrides are recipe replacements applied on top of the lockfile.
		Overrides map[string]Recipe `toml:"overrides"`
	} `toml:"build-system"`
}

// Lockfile pins the full resolved dependency set.
type Lockfile struct {
	// Packages maps dependency names to their locked recipes.
	Packages map[string]Recipe `yaml:"packages"`
}

// overlayFile is the on-disk shape of the workspace override layer.
type overlayFile struct {
	Packages map[string]Recipe `yaml:"packages"`
}

// Workspace is a source tree plus its pinned resolution inputs.
type Workspace struct {
	// Dir is the workspace root.
	Dir string
	// Manifest is the parsed project declaration.
	Manifest *Manifest
	// Lockfile is the parsed dependency pin set.
	Lockfile *Lockfile
	// WorkspaceOverrides holds the optional highest-precedence layer.
	WorkspaceOverrides map[string]Recipe
}

// LoadWorkspace reads and validates the manifest, lockfile and optional
// overlay from dir.
func LoadWorkspace(dir string) (*Workspace, error) {
	manifestPath := filepath.Join(dir, ManifestFilename)
	if _, err := os.Stat(manifestPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", manifestPath, errMissingManifest)
	}

	var manifest Manifest
	if _, err := toml.DecodeFile(manifestPath, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if manifest.Project.Name == "" {
		return nil, fmt.Errorf("%s: project name missing: %w", manifestPath, errMissingManifest)
	}

	if err := version.ValidateSemver(manifest.Project.Version); err != nil {
		return nil, fmt.Errorf("manifest version: %w", err)
	}

	lockPath := filepath.Join(dir, LockFilename)

	lockContents, err := os.ReadFile(filepath.Clean(lockPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", lockPath, errMissingLockfile)
	} else if err != nil {
		return nil, fmt.Errorf("read lockfile: %w", err)
	}

	var lockfile Lockfile
	if err = yaml.Unmarshal(lockContents, &lockfile); err != nil {
		return nil, fmt.Errorf("decode lockfile: %w", err)
	}

	workspace := &Workspace{
		Dir:      dir,
		Manifest: &manifest,
		Lockfile: &lockfile,
	}

	overlayContents, err := os.ReadFile(filepath.Clean(filepath.Join(dir, OverlayFilename)))
	if err == nil {
		var overlay overlayFile
		if err = yaml.Unmarshal(overlayContents, &overlay); err != nil {
			return nil, fmt.Errorf("decode overlay: %w", err)
		}

		workspace.WorkspaceOverrides = overlay.Packages
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read overlay: %w", err)
	}

	return workspace, nil
}

// SourceDir returns the source tree packaged into the environment.
func (w *Workspace) SourceDir() string {
	return filepath.Join(w.Dir, SourceDirName)
}
