// Package release defines the domain model shared by the packaging pipeline:
// platforms, build artifacts, platform packages, signing credentials and the
// error taxonomy. All entities are created fresh per release invocation and
// are write-once; a failed step discards its partial entity.
package release
