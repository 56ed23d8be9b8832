package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/service/release"
	"github.com/okravets/shipkit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// artifactDir is the unpacked executable tree for native packaging.
	artifactDir string

	// appVersion is the released version.
	appVersion string

	// outputDir overrides the configured output directory.
	outputDir string

	// workspaceDir enables the environment channel when set.
	workspaceDir string

	// skipImage leaves the environment channel at the package stage.
	skipImage bool

	// rootCmd represents the base command for running a full release.
	rootCmd = &cobra.Command{
		Use:   "shipkit-release [platform]...",
		Short: "Run a full release: package, sign, build and manifest",
		Long: "Package and sign every requested platform, run the reproducible " +
			"environment channel when a workspace is given, and write a release " +
			"manifest with checksums of everything produced.",
		Args: cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &release.Options{
				ConfigPath:   configPath,
				ArtifactDir:  artifactDir,
				Version:      appVersion,
				OutputDir:    outputDir,
				Platforms:    args,
				WorkspaceDir: workspaceDir,
				SkipImage:    skipImage,
			}

			return release.Run(ctx, options)
		},
	}
)

// Execute runs the shipkit-release CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&workspaceDir, "workspace", "w", "", "workspace root enabling the environment channel")
	rootCmd.Flags().BoolVar(&skipImage, "skip-image", false, "build the environment package but not the image layout")
}
