package signer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/logger"
	"github.com/okravets/shipkit/internal/service/common"
	"github.com/okravets/shipkit/internal/version"
)

// errPackageNotFound indicates the package to sign does not exist yet.
// Packaging must run first.
var errPackageNotFound = errors.New("package not found, run the packager first")

// Options contains inputs for the signer entry point.
type Options struct {
	// ConfigPath is an optional path to packaging settings.
	ConfigPath string
	// PackagePath is the package to sign (installer exe or bundle zip).
	// Defaults to the platform's standard output location.
	PackagePath string
	// BundlePath is the staged bundle directory (macOS only). Defaults to
	// <output-dir>/<app>.app.
	BundlePath string
	// Platform selects the signing path.
	Platform string
	// Version is recorded on the signed package metadata.
	Version string
	// Timeout overrides the configured notarization wait bound.
	Timeout time.Duration
}

// Run executes the signing workflow for one package. Credential absence is
// not a failure: the run succeeds and the package stays unsigned.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "shipkit-signer")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	platform, err := release.ParsePlatform(opts.Platform)
	if err != nil {
		return err
	}

	pkg, err := packageForSigning(cfg, platform, opts)
	if err != nil {
		return err
	}

	orchestrator := NewOrchestrator(cfg, common.ExecRunner{}).WithNotaryTimeout(opts.Timeout)

	signed, err := orchestrator.Sign(ctx, pkg, CredentialFromEnv(platform))
	if err != nil {
		return fmt.Errorf("sign %s: %w", pkg.OutputPath, err)
	}

	logger.InfoKV(ctx, "Signing completed",
		"package", signed.Package.OutputPath, "signature", string(signed.Status))

	return nil
}

// packageForSigning reconstructs the package entity from disk paths.
func packageForSigning(
	cfg *config.Config,
	platform release.Platform,
	opts *Options,
) (*release.PlatformPackage, error) {
	artifactVersion := opts.Version
	if artifactVersion == "" {
		artifactVersion = version.Short()
	}

	packagePath := opts.PackagePath
	bundlePath := opts.BundlePath

	switch {
	case platform.IsMacOS():
		if bundlePath == "" {
			bundlePath = filepath.Join(cfg.OutputDir, cfg.AppName+".app")
		}

		if packagePath == "" {
			packagePath = filepath.Join(cfg.OutputDir,
				fmt.Sprintf("%s-macos-%s.zip", cfg.AppName, platform.Arch()))
		}
	case platform == release.PlatformWindows:
		if packagePath == "" {
			packagePath = filepath.Join(cfg.OutputDir, cfg.AppName+"-setup.exe")
		}
	default:
		return nil, fmt.Errorf("no signing strategy for platform %q", platform)
	}

	if _, err := os.Stat(packagePath); err != nil {
		return nil, fmt.Errorf("%s: %w", packagePath, errPackageNotFound)
	}

	kind := release.KindInstallerSource
	if platform.IsMacOS() {
		kind = release.KindAppBundle
	}

	return &release.PlatformPackage{
		Artifact: release.BuildArtifact{
			Platform: platform,
			Version:  artifactVersion,
		},
		Kind:       kind,
		OutputPath: packagePath,
		BundlePath: bundlePath,
	}, nil
}
