package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/logger"
	"github.com/okravets/shipkit/internal/service/guard"
)

// Options holds the settings for the environment build command.
type Options struct {
	// ConfigPath is the path to the packaging configuration file.
	ConfigPath string
	// WorkspaceDir is the workspace root holding the manifest, lockfile
	// and source tree. Defaults to the current directory.
	WorkspaceDir string
	// OutputDir overrides the configured output directory when set.
	OutputDir string
}

// Run loads the workspace and builds the content-addressed environment
// package into the output directory.
func Run(ctx context.Context, options *Options) error {
	cfg, err := config.Load(options.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err = config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	outputDir := cfg.OutputDir
	if options.OutputDir != "" {
		outputDir = options.OutputDir
	}

	workspaceDir := options.WorkspaceDir
	if workspaceDir == "" {
		workspaceDir = "."
	}

	workspace, err := LoadWorkspace(workspaceDir)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	logger.InfoKV(ctx, "Building environment package",
		"workspace", workspaceDir,
		"project", workspace.Manifest.Project.Name,
		"version", workspace.Manifest.Project.Version)

	envDir := filepath.Join(outputDir, workspace.Manifest.Project.Name+"-env")

	releaseGuard, err := guard.Acquire(ctx, envDir)
	if err != nil {
		return err
	}
	defer releaseGuard()

	pkg, err := Build(ctx, workspace, outputDir)
	if err != nil {
		return fmt.Errorf("failed to build environment package: %w", err)
	}

	logger.InfoKV(ctx, "Environment package ready",
		"path", pkg.Path, "digest", pkg.Digest.String())

	return nil
}
