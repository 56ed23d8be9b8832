package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/fsutil"
	"github.com/okravets/shipkit/internal/logger"
)

// launcherScript resolves its own directory at runtime and execs the real
// binary with forwarded arguments, so the package works from any extraction path.
const launcherScript = `#!/bin/bash
DIR="$(cd "$(dirname "${BASH_SOURCE[0]}")" && pwd)"
exec "$DIR/%s" "$@"
`

// readmeText is the plaintext usage note shipped inside the tarball.
const readmeText = `%s - Linux

To run:
  ./%s.sh

Or directly:
  ./%s

To install system-wide (optional):
  sudo cp -r . /opt/%s
  sudo ln -s /opt/%s/%s.sh /usr/local/bin/%s
`

// packageLinux copies the artifact into a canonical package directory, injects
// the launcher and README, and archives everything as <app>-linux.tar.gz.
func packageLinux(
	ctx context.Context,
	cfg *config.Config,
	artifact *release.BuildArtifact,
) (*release.PlatformPackage, error) {
	app := cfg.AppName
	packageName := app + "-linux"
	packageDir := filepath.Join(cfg.OutputDir, packageName)

	logger.InfoKV(ctx, "Staging Linux package", "dir", packageDir)

	// Full replace of any previous staging directory.
	if err := fsutil.CopyTree(artifact.RootDir, packageDir); err != nil {
		return nil, fmt.Errorf("copy artifact: %w", err)
	}

	launcher := fmt.Sprintf(launcherScript, app)
	if err := fsutil.WriteExecutable(filepath.Join(packageDir, app+".sh"), launcher); err != nil {
		return nil, err
	}

	readme := fmt.Sprintf(readmeText, cfg.DisplayName, app, app, app, app, app, app)
	if err := os.WriteFile(filepath.Join(packageDir, "README.txt"), []byte(readme), 0o644); err != nil {
		return nil, fmt.Errorf("write README: %w", err)
	}

	manifest, err := buildManifest(packageDir)
	if err != nil {
		return nil, err
	}

	tarPath := filepath.Join(cfg.OutputDir, packageName+".tar.gz")
	if err = os.RemoveAll(tarPath); err != nil {
		return nil, fmt.Errorf("remove previous archive: %w", err)
	}

	logger.InfoKV(ctx, "Writing tarball", "path", tarPath)

	if err = fsutil.TarGzDir(tarPath, packageDir, packageName); err != nil {
		return nil, err
	}

	return &release.PlatformPackage{
		Artifact:   *artifact,
		Kind:       release.KindTarball,
		OutputPath: tarPath,
		BundlePath: packageDir,
		Manifest:   manifest,
	}, nil
}
