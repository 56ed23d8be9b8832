// Package signer conditionally wraps platform packages with a code-signing
// and, for macOS, notarization step. Signing is strictly additive: when no
// credentials are present in the environment the package passes through
// unchanged with signature "none", which is a fully valid release. External
// tool failures abort only the signing step; the unsigned package remains
// the valid fallback.
package signer
