package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"

	"github.com/okravets/shipkit/internal/fsutil"
	"github.com/okravets/shipkit/internal/logger"
)

// environmentDescriptor is written to env/environment.yaml and records the
// identity of the built environment. VersionOverride documents that the
// manifest's declared version intentionally replaces whatever the resolver
// would infer.
type environmentDescriptor struct {
	Name            string           `yaml:"name"`
	Version         string           `yaml:"version"`
	VersionOverride bool             `yaml:"version_override"`
	Packages        []packageReceipt `yaml:"packages"`
}

// packageReceipt is the per-package resolution record, sorted by name in the
// descriptor so the output is deterministic.
type packageReceipt struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source,omitempty"`
	Checksum string `yaml:"checksum,omitempty"`
	Origin   string `yaml:"origin"`
}

// envLauncherScript delegates to the packaged application entry point.
const envLauncherScript = `#!/bin/sh
DIR="$(cd "$(dirname "$0")" && pwd)"
exec "$DIR/../app/%s" "$@"
`

// EnvironmentPackage is the content-addressed output of the build channel.
type EnvironmentPackage struct {
	// Name is the packaged application name.
	Name string
	// Path is the packaged environment archive.
	Path string
	// EnvDir is the materialized environment tree the archive was built from.
	EnvDir string
	// Version is the manifest-declared version carried by the package.
	Version string
	// Digest is the content digest of the archive.
	Digest digest.Digest
}

// Build resolves the workspace and materializes the environment package.
func Build(ctx context.Context, ws *Workspace, outputDir string) (*EnvironmentPackage, error) {
	resolved := ComposeLayers(ws.Layers()...)

	logger.InfoKV(ctx, "Resolved dependency overlay",
		"packages", len(resolved), "layers", len(ws.Layers()))

	appName := ws.Manifest.Project.Name
	envDir := filepath.Join(outputDir, appName+"-env")

	if err := materialize(ctx, ws, resolved, envDir); err != nil {
		return nil, err
	}

	return packageEnvironment(ctx, ws, envDir, outputDir)
}

// materialize writes the virtual environment tree: resolution receipts, the
// launcher and a copy of the source tree. The destination is reset first.
func materialize(
	ctx context.Context,
	ws *Workspace,
	resolved map[string]ResolvedPackage,
	envDir string,
) error {
	sourceDir := ws.SourceDir()
	if _, err := os.Stat(sourceDir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", sourceDir, errMissingSourceTree)
	}

	if err := fsutil.ResetDir(envDir); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Materializing environment", "dir", envDir)

	if err := fsutil.CopyTree(sourceDir, filepath.Join(envDir, "app")); err != nil {
		return fmt.Errorf("copy source tree: %w", err)
	}

	binDir := filepath.Join(envDir, "bin")
	if err := os.MkdirAll(binDir, fsutil.DefaultFileMode); err != nil {
		return fmt.Errorf("create %s: %w", binDir, err)
	}

	appName := ws.Manifest.Project.Name
	launcher := fmt.Sprintf(envLauncherScript, appName)

	if err := fsutil.WriteExecutable(filepath.Join(binDir, appName), launcher); err != nil {
		return err
	}

	receiptsDir := filepath.Join(envDir, "receipts")
	if err := os.MkdirAll(receiptsDir, fsutil.DefaultFileMode); err != nil {
		return fmt.Errorf("create %s: %w", receiptsDir, err)
	}

	descriptor := environmentDescriptor{
		Name:            appName,
		Version:         ws.Manifest.Project.Version,
		VersionOverride: true,
	}

	for _, name := range sortedPackageNames(resolved) {
		pkg := resolved[name]
		receipt := packageReceipt{
			Name:     name,
			Version:  pkg.Recipe.Version,
			Source:   pkg.Recipe.Source,
			Checksum: pkg.Recipe.Checksum,
			Origin:   pkg.Origin,
		}

		if err := writeReceipt(receiptsDir, receipt); err != nil {
			return err
		}

		descriptor.Packages = append(descriptor.Packages, receipt)
	}

	contents, err := yaml.Marshal(&descriptor)
	if err != nil {
		return fmt.Errorf("marshal environment descriptor: %w", err)
	}

	if err = os.WriteFile(filepath.Join(envDir, "environment.yaml"), contents, 0o644); err != nil {
		return fmt.Errorf("write environment descriptor: %w", err)
	}

	return nil
}

// writeReceipt writes one per-package resolution record under env/receipts.
func writeReceipt(receiptsDir string, receipt packageReceipt) error {
	contents, err := yaml.Marshal(&receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt %s: %w", receipt.Name, err)
	}

	path := filepath.Join(receiptsDir, receipt.Name+".yaml")
	if err = os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("write receipt %s: %w", receipt.Name, err)
	}

	return nil
}

// packageEnvironment archives the environment tree and computes its content
// digest. The archive writer is deterministic, so identical inputs yield
// identical digests across independent runs.
func packageEnvironment(
	ctx context.Context,
	ws *Workspace,
	envDir, outputDir string,
) (*EnvironmentPackage, error) {
	appName := ws.Manifest.Project.Name
	appVersion := ws.Manifest.Project.Version

	archivePath := filepath.Join(outputDir, fmt.Sprintf("%s-%s-env.tar.gz", appName, appVersion))
	if err := os.RemoveAll(archivePath); err != nil {
		return nil, fmt.Errorf("remove previous archive: %w", err)
	}

	if err := fsutil.TarGzDir(archivePath, envDir, appName); err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	contentDigest, err := digest.Canonical.FromReader(file)
	if err != nil {
		return nil, fmt.Errorf("digest archive: %w", err)
	}

	logger.InfoKV(ctx, "Environment package built",
		"path", archivePath, "digest", contentDigest.String())

	return &EnvironmentPackage{
		Name:    appName,
		Path:    archivePath,
		EnvDir:  envDir,
		Version: appVersion,
		Digest:  contentDigest,
	}, nil
}
