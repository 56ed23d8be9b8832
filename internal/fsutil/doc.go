// Package fsutil provides the filesystem discipline shared by every packaging
// step: destructive reset-before-write, full-replace tree copies, SHA-512
// checksums and deterministic archive writers whose output is byte-identical
// across repeated runs.
package fsutil
