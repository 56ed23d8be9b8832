package packager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/service/common"
)

// TestPackageMacOS_BundleLayout covers the macOS scenario: a standard bundle
// with trampoline launcher, payload under Resources/app, an Info.plist
// carrying the artifact version, and an architecture-suffixed zip.
func TestPackageMacOS_BundleLayout(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	artifact := newTestArtifact(t, cfg, release.PlatformMacOSARM64)

	pkg, err := Package(context.Background(), cfg, common.ExecRunner{}, artifact)
	require.NoError(t, err)
	require.Equal(t, release.KindAppBundle, pkg.Kind)
	require.Equal(t, filepath.Join(cfg.OutputDir, "app-macos-arm64.zip"), pkg.OutputPath)

	bundleDir := filepath.Join(cfg.OutputDir, "app.app")
	require.Equal(t, bundleDir, pkg.BundlePath)

	// Payload is preserved under Resources/app, not flattened into MacOS.
	_, err = os.Stat(filepath.Join(bundleDir, "Contents", "Resources", "app", "app"))
	require.NoError(t, err)

	// Trampoline is executable and resolves the payload by its own name,
	// so the bundle survives relocation and renaming.
	trampolinePath := filepath.Join(bundleDir, "Contents", "MacOS", "app")

	info, err := os.Stat(trampolinePath)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o111)

	trampoline, err := os.ReadFile(trampolinePath)
	require.NoError(t, err)
	require.Contains(t, string(trampoline), `"${PAYLOAD_DIR}/$(basename "$0")"`)
	require.Contains(t, string(trampoline), `Resources/app`)

	// Info.plist reports the artifact version.
	plist, err := os.ReadFile(filepath.Join(bundleDir, "Contents", "Info.plist"))
	require.NoError(t, err)
	require.Contains(t, string(plist), "<key>CFBundleVersion</key>\n    <string>1.0.0</string>")
	require.Contains(t, string(plist), "<string>"+cfg.BundleID+"</string>")
	require.Contains(t, string(plist), "<string>"+cfg.MinMacOSVersion+"</string>")
}

// TestPackageMacOS_ArchitecturesDoNotCollide verifies arm64 and x86_64 builds
// land in distinct zips.
func TestPackageMacOS_ArchitecturesDoNotCollide(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	artifact := newTestArtifact(t, cfg, release.PlatformMacOSARM64)
	ctx := context.Background()

	armPkg, err := Package(ctx, cfg, common.ExecRunner{}, artifact)
	require.NoError(t, err)

	artifact.Platform = release.PlatformMacOSAMD64

	intelPkg, err := Package(ctx, cfg, common.ExecRunner{}, artifact)
	require.NoError(t, err)

	require.NotEqual(t, armPkg.OutputPath, intelPkg.OutputPath)

	_, err = os.Stat(armPkg.OutputPath)
	require.NoError(t, err)

	_, err = os.Stat(intelPkg.OutputPath)
	require.NoError(t, err)
}

// TestPackageMacOS_PayloadFullReplace verifies a stale payload file from a
// previous build does not survive re-packaging.
func TestPackageMacOS_PayloadFullReplace(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	artifact := newTestArtifact(t, cfg, release.PlatformMacOSARM64)
	ctx := context.Background()

	first, err := Package(ctx, cfg, common.ExecRunner{}, artifact)
	require.NoError(t, err)

	stale := filepath.Join(first.BundlePath, "Contents", "Resources", "app", "stale.bin")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	firstBytes, err := os.ReadFile(first.OutputPath)
	require.NoError(t, err)

	second, err := Package(ctx, cfg, common.ExecRunner{}, artifact)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	require.ErrorIs(t, err, os.ErrNotExist)

	secondBytes, err := os.ReadFile(second.OutputPath)
	require.NoError(t, err)
	require.Equal(t, firstBytes, secondBytes)
}
