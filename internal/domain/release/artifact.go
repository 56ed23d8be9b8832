package release

import (
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
)

// PackageKind distinguishes the shape of a platform package.
type PackageKind string

const (
	// KindTarball is a compressed tar archive with a launcher (Linux).
	KindTarball PackageKind = "tarball"
	// KindAppBundle is a macOS application bundle plus its distribution zip.
	KindAppBundle PackageKind = "app-bundle"
	// KindInstallerSource is a Windows installer descriptor, optionally compiled.
	KindInstallerSource PackageKind = "installer-source"
)

var (
	// ErrMissingArtifact indicates the artifact directory does not exist.
	// The artifact producer step must run first; this is a precondition,
	// not a recoverable condition.
	ErrMissingArtifact = errors.New("artifact directory not found")

	// errVersionRequired is returned when an artifact carries no version.
	errVersionRequired = errors.New("artifact version must be provided")
)

// BuildArtifact is the raw per-platform compiled output consumed by packaging.
// It is immutable once packaged: packagers copy its files, never move them.
type BuildArtifact struct {
	// Platform is the packaging target this artifact was compiled for.
	Platform Platform
	// Version is the semantic version of the release.
	Version string
	// RootDir is the path to the unpacked executable tree.
	RootDir string
}

// Validate checks the artifact version is semver and the root directory exists.
// A missing root directory is reported as ErrMissingArtifact.
func (a *BuildArtifact) Validate() error {
	if a.Version == "" {
		return errVersionRequired
	}

	if _, err := semver.StrictNewVersion(a.Version); err != nil {
		return fmt.Errorf("invalid version %q: %w", a.Version, err)
	}

	info, err := os.Stat(a.RootDir)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", a.RootDir, ErrMissingArtifact)
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", a.RootDir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", a.RootDir, ErrMissingArtifact)
	}

	return nil
}

// ManifestEntry describes one file included in a platform package.
type ManifestEntry struct {
	// Path is relative to the package root.
	Path string `yaml:"path"`
	// Size is the file size in bytes.
	Size int64 `yaml:"size"`
	// Mode is the unix permission bits of the packaged file.
	Mode uint32 `yaml:"mode"`
	// Checksum is the base64-encoded SHA-512 of the file contents.
	Checksum string `yaml:"checksum"`
}

// PlatformPackage is the platform-native distributable produced from an artifact.
// It owns a copy of the artifact's files and is write-once: a failed packaging
// run discards the partial package instead of patching it.
type PlatformPackage struct {
	// Artifact is the input this package was produced from.
	Artifact BuildArtifact
	// Kind is the distributable shape.
	Kind PackageKind
	// OutputPath is the primary output (archive, zip, descriptor or installer).
	OutputPath string
	// BundlePath is the staged directory form of the package, when one exists
	// (the .app bundle or the unpacked tarball directory).
	BundlePath string
	// Manifest lists the packaged files with checksums.
	Manifest []ManifestEntry
}
