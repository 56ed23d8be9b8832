package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds packaging parameters shared by the shipkit binaries.
type Config struct {
	// AppName is the executable and package base name (e.g. "app").
	AppName string `yaml:"app_name"`
	// DisplayName is the human-readable application name shown by installers
	// and the macOS bundle. Defaults to AppName.
	DisplayName string `yaml:"display_name"`
	// BundleID is the macOS bundle identifier. Derived from AppName when empty.
	BundleID string `yaml:"bundle_id"`
	// Publisher is the vendor name recorded in the Windows installer.
	Publisher string `yaml:"publisher"`
	// OutputDir is where artifacts are read from and packages are written to.
	OutputDir string `yaml:"output_dir"`
	// MinMacOSVersion is the LSMinimumSystemVersion written to Info.plist.
	MinMacOSVersion string `yaml:"min_macos_version"`
	// TimestampURL is the RFC 3161 timestamp authority used by Windows signing.
	TimestampURL string `yaml:"timestamp_url"`
	// NotaryTimeout bounds the synchronous notarization wait.
	NotaryTimeout time.Duration `yaml:"notary_timeout"`
	// IdentityFile is the path to the per-project identity record.
	IdentityFile string `yaml:"identity_file"`
}

const (
	// DefaultConfigFilename is the default filename for packaging settings.
	DefaultConfigFilename = "shipkit.yaml"

	// DefaultOutputDir is where packages land unless configured otherwise.
	DefaultOutputDir = "dist"

	// DefaultMinMacOSVersion is the minimum macOS version for bundles.
	DefaultMinMacOSVersion = "10.13"

	// DefaultTimestampURL is the timestamp authority for Windows signing.
	DefaultTimestampURL = "http://timestamp.digicert.com"

	// DefaultNotaryTimeout bounds the notarization wait; remote review
	// normally finishes within minutes but is unbounded in principle.
	DefaultNotaryTimeout = 30 * time.Minute

	// DefaultIdentityFilename is the default per-project identity record path.
	DefaultIdentityFilename = "shipkit-project.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errAppNameRequired is returned when the application name is missing.
	errAppNameRequired = errors.New("application name must be provided")
	// errBadAppName is returned when the application name cannot be used
	// as a file or directory name.
	errBadAppName = errors.New("application name must not contain path separators")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.AppName == "" {
		return errAppNameRequired
	}

	if strings.ContainsAny(cfg.AppName, `/\`) {
		return fmt.Errorf("%q: %w", cfg.AppName, errBadAppName)
	}

	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.AppName
	}

	if cfg.BundleID == "" {
		cfg.BundleID = "com." + strings.ReplaceAll(cfg.AppName, " ", "-") + ".app"
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.MinMacOSVersion == "" {
		cfg.MinMacOSVersion = DefaultMinMacOSVersion
	}

	if cfg.TimestampURL == "" {
		cfg.TimestampURL = DefaultTimestampURL
	}

	if _, err := url.ParseRequestURI(cfg.TimestampURL); err != nil {
		return fmt.Errorf("invalid timestamp URL: %w", err)
	}

	if cfg.NotaryTimeout <= 0 {
		cfg.NotaryTimeout = DefaultNotaryTimeout
	}

	if cfg.IdentityFile == "" {
		cfg.IdentityFile = DefaultIdentityFilename
	}

	return nil
}
