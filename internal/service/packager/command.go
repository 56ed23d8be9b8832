package packager

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/logger"
	"github.com/okravets/shipkit/internal/service/common"
	"github.com/okravets/shipkit/internal/service/guard"
	"github.com/okravets/shipkit/internal/version"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to packaging settings (defaults to shipkit.yaml).
	ConfigPath string
	// ArtifactDir is the unpacked executable tree produced by the build step.
	// Defaults to <output-dir>/<app-name>.
	ArtifactDir string
	// Version is the release version; defaults to the toolkit build version.
	Version string
	// OutputDir overrides the configured output directory when set.
	OutputDir string
	// Platform selects the packaging strategy (linux, macos, macos-arm64,
	// macos-x86_64, windows).
	Platform string
}

// Run executes the packaging workflow for one platform and returns the
// produced package through the log; callers needing the package itself
// use Package directly.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "shipkit-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	platform, err := release.ParsePlatform(opts.Platform)
	if err != nil {
		return err
	}

	artifactVersion := opts.Version
	if artifactVersion == "" {
		artifactVersion = version.Short()
	}

	artifactDir := opts.ArtifactDir
	if artifactDir == "" {
		artifactDir = filepath.Join(cfg.OutputDir, cfg.AppName)
	}

	artifact := &release.BuildArtifact{
		Platform: platform,
		Version:  artifactVersion,
		RootDir:  artifactDir,
	}

	pkg, err := Package(ctx, cfg, common.ExecRunner{}, artifact)
	if err != nil {
		return fmt.Errorf("package %s: %w", platform, err)
	}

	logger.InfoKV(ctx, "Packaging completed",
		"platform", platform.String(), "output", pkg.OutputPath)

	return nil
}

// Package dispatches to the platform strategy and returns the produced package.
// It fails with release.ErrMissingArtifact when the artifact directory is
// absent: the artifact producer must run first.
func Package(
	ctx context.Context,
	cfg *config.Config,
	runner common.ToolRunner,
	artifact *release.BuildArtifact,
) (*release.PlatformPackage, error) {
	if err := artifact.Validate(); err != nil {
		return nil, err
	}

	// Staging directories are keyed by platform and architecture, so
	// concurrent platform jobs never contend for the same guard.
	releaseGuard, err := guard.Acquire(ctx, stagingDir(cfg, artifact.Platform))
	if err != nil {
		return nil, err
	}

	defer releaseGuard()

	switch {
	case artifact.Platform == release.PlatformLinux:
		return packageLinux(ctx, cfg, artifact)
	case artifact.Platform.IsMacOS():
		return packageMacOS(ctx, cfg, artifact)
	case artifact.Platform == release.PlatformWindows:
		return packageWindows(ctx, cfg, runner, artifact)
	default:
		return nil, fmt.Errorf("no packaging strategy for platform %q", artifact.Platform)
	}
}

// stagingDir returns the platform-specific staging directory for an artifact.
func stagingDir(cfg *config.Config, platform release.Platform) string {
	switch {
	case platform.IsMacOS():
		return filepath.Join(cfg.OutputDir, cfg.AppName+".app")
	case platform == release.PlatformWindows:
		return filepath.Join(cfg.OutputDir, cfg.AppName+"-installer")
	default:
		return filepath.Join(cfg.OutputDir, cfg.AppName+"-linux")
	}
}
