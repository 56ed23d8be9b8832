package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/service/builder"
	"github.com/okravets/shipkit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// workspaceDir is the workspace root with the manifest and lockfile.
	workspaceDir string

	// outputDir overrides the configured output directory.
	outputDir string

	// rootCmd represents the base command for building the environment package.
	rootCmd = &cobra.Command{
		Use:   "shipkit-builder",
		Short: "Build a reproducible environment package from a locked workspace",
		Long: "Resolve the workspace lockfile and override layers, materialize " +
			"the runtime environment and wrap it as a content-addressed package. " +
			"Identical inputs always produce an identical package digest.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &builder.Options{
				ConfigPath:   configPath,
				WorkspaceDir: workspaceDir,
				OutputDir:    outputDir,
			}

			return builder.Run(ctx, options)
		},
	}
)

// Execute runs the shipkit-builder CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&workspaceDir, "workspace", "w", ".", "workspace root with manifest, lockfile and source tree")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "override the configured output directory")
}
