package signer

import (
	"os"

	"github.com/okravets/shipkit/internal/domain/release"
)

// Environment variables supplying signing credentials. Their absence is a
// supported, detected configuration state, not an error.
const (
	// EnvWinCertFile points at the PFX code-signing certificate.
	EnvWinCertFile = "SHIPKIT_WIN_CERT_FILE"
	// EnvWinCertPassword unlocks the certificate.
	EnvWinCertPassword = "SHIPKIT_WIN_CERT_PASSWORD"

	// EnvMacSigningIdentity is the codesign identity
	// ("Developer ID Application: ...").
	EnvMacSigningIdentity = "SHIPKIT_MAC_SIGNING_IDENTITY"
	// EnvMacNotaryAppleID is the Apple account for notarization submissions.
	EnvMacNotaryAppleID = "SHIPKIT_MAC_NOTARY_APPLE_ID"
	// EnvMacNotaryTeamID is the Apple developer team id.
	EnvMacNotaryTeamID = "SHIPKIT_MAC_NOTARY_TEAM_ID"
	// EnvMacNotaryPassword is the app-specific notarization password.
	EnvMacNotaryPassword = "SHIPKIT_MAC_NOTARY_PASSWORD"
)

// CredentialFromEnv reads the signing credential for a platform from the
// environment. It returns nil when the gating variables are absent, which
// callers treat as "proceed unsigned".
func CredentialFromEnv(platform release.Platform) *release.SigningCredential {
	switch {
	case platform == release.PlatformWindows:
		certFile := os.Getenv(EnvWinCertFile)
		password := os.Getenv(EnvWinCertPassword)

		if certFile == "" || password == "" {
			return nil
		}

		return &release.SigningCredential{
			Platform:        platform,
			CertificateFile: certFile,
			Secret:          password,
		}
	case platform.IsMacOS():
		identity := os.Getenv(EnvMacSigningIdentity)
		if identity == "" {
			return nil
		}

		return &release.SigningCredential{
			Platform: platform,
			Identity: identity,
			AppleID:  os.Getenv(EnvMacNotaryAppleID),
			TeamID:   os.Getenv(EnvMacNotaryTeamID),
			Secret:   os.Getenv(EnvMacNotaryPassword),
		}
	default:
		// Linux releases ship unsigned tarballs.
		return nil
	}
}

// canNotarize reports whether the credential carries the full notarization
// account. Code-signing without notarization is valid for internal builds.
func canNotarize(cred *release.SigningCredential) bool {
	return cred != nil && cred.AppleID != "" && cred.TeamID != "" && cred.Secret != ""
}
