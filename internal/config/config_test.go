package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, name restrictions and defaulting.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing app name.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// App name with a path separator.
	cfg = &Config{AppName: "di/st"}

	err = Validate(cfg)
	require.Error(t, err)

	// Minimal valid config gets defaults filled in.
	cfg = &Config{AppName: "app"}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, "app", cfg.DisplayName)
	require.Equal(t, "com.app.app", cfg.BundleID)
	require.Equal(t, DefaultOutputDir, cfg.OutputDir)
	require.Equal(t, DefaultMinMacOSVersion, cfg.MinMacOSVersion)
	require.Equal(t, DefaultNotaryTimeout, cfg.NotaryTimeout)

	// Broken timestamp URL.
	cfg = &Config{AppName: "app", TimestampURL: "not a url"}

	err = Validate(cfg)
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "shipkit.yaml")

	cfg := &Config{
		AppName:       "app",
		DisplayName:   "App",
		Publisher:     "Example Corp",
		NotaryTimeout: 10 * time.Minute,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.AppName, loaded.AppName)
	require.Equal(t, cfg.DisplayName, loaded.DisplayName)
	require.Equal(t, cfg.Publisher, loaded.Publisher)
	require.Equal(t, cfg.NotaryTimeout, loaded.NotaryTimeout)
}
