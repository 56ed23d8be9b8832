// Package packager transforms a platform build artifact into the
// OS-native distributable shape: a Linux tarball with a launcher script, a
// macOS application bundle with a relocation-safe trampoline, or a Windows
// installer descriptor for an external installer compiler. The three
// strategies share one contract and no internal structure; dispatch is a
// plain switch over the target platform. Every strategy resets its
// destination before writing, so re-runs never mix stale and fresh files.
package packager
