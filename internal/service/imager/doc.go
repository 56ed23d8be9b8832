// Package imager turns a built environment package into an on-disk OCI image
// layout. The image is deliberately minimal: one base layer carrying only a
// directory skeleton, one layer carrying the environment contents, and a
// config whose sole entrypoint is the packaged launcher. No shell, package
// manager or other tooling is present in any layer.
package imager
