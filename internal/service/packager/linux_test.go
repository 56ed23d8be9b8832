package packager

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/service/common"
)

// newTestConfig returns a validated config rooted in a fresh temp directory.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		AppName:   "app",
		Publisher: "Example Corp",
		OutputDir: filepath.Join(t.TempDir(), "dist"),
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// newTestArtifact stages a minimal artifact tree with one executable.
func newTestArtifact(t *testing.T, cfg *config.Config, platform release.Platform) *release.BuildArtifact {
	t.Helper()

	rootDir := filepath.Join(cfg.OutputDir, cfg.AppName)
	require.NoError(t, os.MkdirAll(rootDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, cfg.AppName), []byte("#!/bin/sh\necho payload\n"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "_internal"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "_internal", "runtime.bin"), []byte("runtime"), 0o644))

	return &release.BuildArtifact{
		Platform: platform,
		Version:  "1.0.0",
		RootDir:  rootDir,
	}
}

// tarEntries reads all entry names from a gzip tarball, mapped to their modes.
func tarEntries(t *testing.T, path string) map[string]int64 {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	defer func() {
		_ = file.Close()
	}()

	gzReader, err := gzip.NewReader(file)
	require.NoError(t, err)

	entries := make(map[string]int64)

	tarReader := tar.NewReader(gzReader)

	for {
		header, readErr := tarReader.Next()
		if readErr == io.EOF {
			break
		}

		require.NoError(t, readErr)

		entries[header.Name] = header.Mode
	}

	return entries
}

// TestPackageLinux_EndToEnd covers the full Linux scenario: the tarball holds
// the binary, an executable launcher and a README, and the launcher delegates
// to the real binary.
func TestPackageLinux_EndToEnd(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	artifact := newTestArtifact(t, cfg, release.PlatformLinux)

	pkg, err := Package(context.Background(), cfg, common.ExecRunner{}, artifact)
	require.NoError(t, err)
	require.Equal(t, release.KindTarball, pkg.Kind)
	require.Equal(t, filepath.Join(cfg.OutputDir, "app-linux.tar.gz"), pkg.OutputPath)

	entries := tarEntries(t, pkg.OutputPath)
	require.Contains(t, entries, "app-linux/app")
	require.Contains(t, entries, "app-linux/app.sh")
	require.Contains(t, entries, "app-linux/README.txt")
	require.Contains(t, entries, "app-linux/_internal/runtime.bin")

	// Launcher is executable and delegates to the real binary.
	require.NotZero(t, entries["app-linux/app.sh"]&0o111)

	launcher, err := os.ReadFile(filepath.Join(pkg.BundlePath, "app.sh"))
	require.NoError(t, err)
	require.Contains(t, string(launcher), `exec "$DIR/app" "$@"`)

	// Manifest covers the staged files.
	paths := make([]string, 0, len(pkg.Manifest))
	for _, entry := range pkg.Manifest {
		paths = append(paths, entry.Path)
	}

	require.Contains(t, paths, "app")
	require.Contains(t, paths, "app.sh")
	require.Contains(t, paths, "README.txt")
}

// TestPackageLinux_Idempotent verifies that packaging the same artifact twice
// produces byte-identical archives: the destination is reset, never merged,
// and archive contents carry no timestamps.
func TestPackageLinux_Idempotent(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	artifact := newTestArtifact(t, cfg, release.PlatformLinux)
	ctx := context.Background()

	first, err := Package(ctx, cfg, common.ExecRunner{}, artifact)
	require.NoError(t, err)

	firstBytes, err := os.ReadFile(first.OutputPath)
	require.NoError(t, err)

	// Plant a stale file in the staging directory; the re-run must not keep it.
	stale := filepath.Join(first.BundlePath, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	second, err := Package(ctx, cfg, common.ExecRunner{}, artifact)
	require.NoError(t, err)

	secondBytes, err := os.ReadFile(second.OutputPath)
	require.NoError(t, err)
	require.Equal(t, firstBytes, secondBytes)

	_, err = os.Stat(stale)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestPackage_MissingArtifact verifies the precondition failure surfaces
// before any output is produced.
func TestPackage_MissingArtifact(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	artifact := &release.BuildArtifact{
		Platform: release.PlatformLinux,
		Version:  "1.0.0",
		RootDir:  filepath.Join(cfg.OutputDir, "missing"),
	}

	_, err := Package(context.Background(), cfg, common.ExecRunner{}, artifact)
	require.ErrorIs(t, err, release.ErrMissingArtifact)

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "app-linux.tar.gz"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestPackage_RejectsBadVersion verifies non-semver versions are refused.
func TestPackage_RejectsBadVersion(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	artifact := newTestArtifact(t, cfg, release.PlatformLinux)
	artifact.Version = "not-a-version"

	_, err := Package(context.Background(), cfg, common.ExecRunner{}, artifact)
	require.Error(t, err)
}
