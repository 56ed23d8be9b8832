// Package release orchestrates a full release run: native platform packages
// through packaging and signing, the reproducible environment package through
// the build and image channels, and a release manifest tying the outputs
// together with checksums. The two channels share nothing but the version
// string.
package release
