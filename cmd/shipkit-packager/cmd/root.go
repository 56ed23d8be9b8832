package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/service/packager"
	"github.com/okravets/shipkit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// artifactDir is the unpacked executable tree to package.
	artifactDir string

	// appVersion is the version stamped into the package.
	appVersion string

	// outputDir overrides the configured output directory.
	outputDir string

	// rootCmd represents the base command for building a platform package.
	rootCmd = &cobra.Command{
		Use:   "shipkit-packager [platform]",
		Short: "Build an OS-native package from a compiled artifact tree",
		Long: "Build an OS-native distributable (linux tarball, macOS bundle or " +
			"Windows installer) from a platform-neutral compiled artifact tree.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath:  configPath,
				ArtifactDir: artifactDir,
				Version:     appVersion,
				OutputDir:   outputDir,
				Platform:    args[0],
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the shipkit-packager CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&artifactDir, "artifact-dir", "a", "", "compiled artifact tree (defaults to <output-dir>/<app-name>)")
	rootCmd.Flags().StringVarP(&appVersion, "app-version", "V", "", "release version (defaults to the toolkit version)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "override the configured output directory")
}
