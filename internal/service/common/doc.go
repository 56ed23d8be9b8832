//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
// Package common holds helpers shared by the packaging services: external
// tool execution behind an interface (so tests never shell out) and actor
// detection for audit metadata in release manifests.
package common
