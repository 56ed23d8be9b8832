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

// trampolineScript resolves its bundle root at runtime and execs the payload
// binary matching its own invoked name. This keeps the bundle working when it
// is copied or renamed, and avoids flattening the payload into Contents/MacOS
// where System Integrity constraints bite.
const trampolineScript = `#!/bin/bash
set -euo pipefail
THIS_DIR="$(cd "$(dirname "$0")" && pwd)"
APP_ROOT="$(cd "${THIS_DIR}/.." && pwd)"
PAYLOAD_DIR="${APP_ROOT}/Resources/app"
exec "${PAYLOAD_DIR}/$(basename "$0")" "$@"
`

// infoPlistTemplate is the bundle property list. Version fields carry the
// artifact version, not the toolkit's own.
const infoPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>CFBundleExecutable</key>
    <string>%s</string>
    <key>CFBundleIdentifier</key>
    <string>%s</string>
    <key>CFBundleName</key>
    <string>%s</string>
    <key>CFBundleDisplayName</key>
    <string>%s</string>
    <key>CFBundleVersion</key>
    <string>%s</string>
    <key>CFBundleShortVersionString</key>
    <string>%s</string>
    <key>CFBundlePackageType</key>
    <string>APPL</string>
    <key>LSMinimumSystemVersion</key>
    <string>%s</string>
    <key>NSHighResolutionCapable</key>
    <true/>
</dict>
</plist>
`

// packageMacOS constructs a double-click application bundle and zips it with
// an architecture suffix so arm64 and x86_64 builds never collide on disk.
func packageMacOS(
	ctx context.Context,
	cfg *config.Config,
	artifact *release.BuildArtifact,
) (*release.PlatformPackage, error) {
	app := cfg.AppName
	bundleName := app + ".app"
	bundleDir := filepath.Join(cfg.OutputDir, bundleName)
	contentsDir := filepath.Join(bundleDir, "Contents")
	payloadDir := filepath.Join(contentsDir, "Resources", "app")

	logger.InfoKV(ctx, "Staging macOS bundle", "dir", bundleDir)

	if err := fsutil.ResetDir(bundleDir); err != nil {
		return nil, err
	}

	for _, dir := range []string{
		filepath.Join(contentsDir, "MacOS"),
		filepath.Join(contentsDir, "Resources"),
	} {
		if err := os.MkdirAll(dir, fsutil.DefaultFileMode); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	// Delete-then-copy: no stale payload files may survive between builds.
	if err := fsutil.CopyTree(artifact.RootDir, payloadDir); err != nil {
		return nil, fmt.Errorf("copy payload: %w", err)
	}

	trampolinePath := filepath.Join(contentsDir, "MacOS", app)
	if err := fsutil.WriteExecutable(trampolinePath, trampolineScript); err != nil {
		return nil, err
	}

	plist := fmt.Sprintf(infoPlistTemplate,
		app,
		cfg.BundleID,
		cfg.DisplayName,
		cfg.DisplayName,
		artifact.Version,
		artifact.Version,
		cfg.MinMacOSVersion,
	)

	plistPath := filepath.Join(contentsDir, "Info.plist")
	if err := os.WriteFile(plistPath, []byte(plist), 0o644); err != nil {
		return nil, fmt.Errorf("write Info.plist: %w", err)
	}

	manifest, err := buildManifest(bundleDir)
	if err != nil {
		return nil, err
	}

	zipPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-macos-%s.zip", app, artifact.Platform.Arch()))
	if err = os.RemoveAll(zipPath); err != nil {
		return nil, fmt.Errorf("remove previous archive: %w", err)
	}

	logger.InfoKV(ctx, "Writing bundle zip", "path", zipPath)

	if err = fsutil.ZipDir(zipPath, bundleDir, bundleName); err != nil {
		return nil, err
	}

	return &release.PlatformPackage{
		Artifact:   *artifact,
		Kind:       release.KindAppBundle,
		OutputPath: zipPath,
		BundlePath: bundleDir,
		Manifest:   manifest,
	}, nil
}
