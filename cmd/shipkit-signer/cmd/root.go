package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/service/signer"
	"github.com/okravets/shipkit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// packagePath is the package to sign.
	packagePath string

	// bundlePath is the staged macOS bundle directory.
	bundlePath string

	// appVersion is recorded on the signed package metadata.
	appVersion string

	// notaryTimeout bounds the notarization wait.
	notaryTimeout time.Duration

	// rootCmd represents the base command for signing a built package.
	rootCmd = &cobra.Command{
		Use:   "shipkit-signer [platform]",
		Short: "Sign and notarize a built package",
		Long: "Apply platform code signing to a built package. Credentials come " +
			"from the environment; without them the package stays unsigned and " +
			"the run still succeeds.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &signer.Options{
				ConfigPath:  configPath,
				PackagePath: packagePath,
				BundlePath:  bundlePath,
				Platform:    args[0],
				Version:     appVersion,
				Timeout:     notaryTimeout,
			}

			return signer.Run(ctx, options)
		},
	}
)

// Execute runs the shipkit-signer CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&packagePath, "package", "p", "", "package to sign (defaults to the platform's standard output)")
	rootCmd.Flags().StringVarP(&bundlePath, "bundle", "b", "", "staged bundle directory, macOS only")
	rootCmd.Flags().StringVarP(&appVersion, "app-version", "V", "", "release version recorded on the package")
	rootCmd.Flags().DurationVarP(&notaryTimeout, "timeout", "t", 0, "notarization wait bound (defaults to the configured value)")
}
