package release

// SignatureStatus describes how far a package travelled through signing.
type SignatureStatus string

const (
	// SignatureNone means the package is unsigned. This is a valid terminal
	// state: credential absence is a supported configuration, not an error.
	SignatureNone SignatureStatus = "none"
	// SignatureSigned means a platform signing tool signed the package.
	SignatureSigned SignatureStatus = "signed"
	// SignatureNotarized means the signed package also holds a notarization ticket.
	SignatureNotarized SignatureStatus = "notarized"
)

// SigningCredential carries the secrets required to sign for one platform.
// Presence of a credential is the sole gate controlling whether signing runs.
type SigningCredential struct {
	// Platform this credential applies to.
	Platform Platform
	// CertificateFile points at the code-signing certificate (Windows PFX).
	CertificateFile string
	// Secret is the certificate password or notarization app password.
	Secret string
	// Identity is the codesign identity (macOS "Developer ID Application: ...").
	Identity string
	// AppleID is the account used for notarization submissions.
	AppleID string
	// TeamID is the Apple developer team for notarization submissions.
	TeamID string
}

// SignedPackage wraps a PlatformPackage with its signing outcome.
// Status SignatureNone with a nil error is the expected result for
// community and internal builds without credentials.
type SignedPackage struct {
	// Package is the underlying platform package, unchanged by signing
	// in everything except signature metadata.
	Package *PlatformPackage
	// Status records how far signing progressed.
	Status SignatureStatus
	// Identity is the signing identity used, when signed.
	Identity string
	// NotarizationID is the submission id returned by the notary service.
	NotarizationID string
}
