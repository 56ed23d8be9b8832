// Package version exposes build metadata for the toolkit and the semver
// validation used for release versions.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds. Short is also
// the default version stamped into packages when none is given.
package version
