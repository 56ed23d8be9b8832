// Package builder implements the reproducible build channel: it loads a
// lockfile-pinned workspace, composes dependency override layers with
// last-writer-wins precedence, materializes a virtual runtime environment
// and wraps it as a content-addressed package. Given an identical lockfile
// and source tree, two independent runs yield byte-identical packages.
// This channel shares only the version identifier with platform packaging.
package builder
