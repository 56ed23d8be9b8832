package imager

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/logger"
	"github.com/okravets/shipkit/internal/service/builder"
	"github.com/okravets/shipkit/internal/service/guard"
)

// Options holds the settings for the image build command.
type Options struct {
	// ConfigPath is the path to the packaging configuration file.
	ConfigPath string
	// WorkspaceDir is the workspace root holding the manifest, lockfile
	// and source tree. Defaults to the current directory.
	WorkspaceDir string
	// OutputDir overrides the configured output directory when set.
	OutputDir string
}

// Run builds the environment package and wraps it as an OCI image layout
// under the output directory.
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

	workspace, err := builder.LoadWorkspace(workspaceDir)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	layoutDir := filepath.Join(outputDir, workspace.Manifest.Project.Name+"-image")

	releaseGuard, err := guard.Acquire(ctx, layoutDir)
	if err != nil {
		return err
	}
	defer releaseGuard()

	pkg, err := builder.Build(ctx, workspace, outputDir)
	if err != nil {
		return fmt.Errorf("failed to build environment package: %w", err)
	}

	image, err := BuildImage(ctx, pkg, layoutDir)
	if err != nil {
		return fmt.Errorf("failed to build image: %w", err)
	}

	logger.InfoKV(ctx, "Image ready", "reference", image.Reference, "dir", image.LayoutDir)

	return nil
}
