package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/service/imager"
	"github.com/okravets/shipkit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// workspaceDir is the workspace root with the manifest and lockfile.
	workspaceDir string

	// outputDir overrides the configured output directory.
	outputDir string

	// rootCmd represents the base command for building the container image.
	rootCmd = &cobra.Command{
		Use:   "shipkit-imager",
		Short: "Build a minimal OCI image layout from a locked workspace",
		Long: "Build the environment package and wrap it as an on-disk OCI image " +
			"layout with exactly two layers and a single launcher entrypoint. " +
			"No shell or tooling is present in any layer.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &imager.Options{
				ConfigPath:   configPath,
				WorkspaceDir: workspaceDir,
				OutputDir:    outputDir,
			}

			return imager.Run(ctx, options)
		},
	}
)

// Execute runs the shipkit-imager CLI and exits with non-zero status on error.
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
