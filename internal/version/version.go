package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}

// ValidateSemver checks that the provided string is a strict semantic version.
// Packaging refuses artifacts whose version cannot round-trip through
// installer descriptors and bundle plists unambiguously.
func ValidateSemver(s string) error {
	if _, err := semver.StrictNewVersion(s); err != nil {
		return fmt.Errorf("invalid semantic version %q: %w", s, err)
	}

	return nil
}
