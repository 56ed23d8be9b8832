package signer

import (
	"context"

	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/logger"
)

// signWindows invokes the platform signing tool against the installer
// executable. A non-zero exit (credential misconfiguration, revoked cert,
// unreachable timestamp server) is reported as a ToolError; it aborts only
// the signing step, never the unsigned release.
func (o *Orchestrator) signWindows(
	ctx context.Context,
	pkg *release.PlatformPackage,
	cred *release.SigningCredential,
) (*release.SignedPackage, error) {
	logger.InfoKV(ctx, "Signing installer", "path", pkg.OutputPath)

	output, err := o.runner.Run(ctx, "signtool", "sign",
		"/f", cred.CertificateFile,
		"/p", cred.Secret,
		"/tr", o.cfg.TimestampURL,
		"/td", "sha256",
		"/fd", "sha256",
		pkg.OutputPath,
	)
	if err != nil {
		return nil, &release.ToolError{Tool: "signtool", Output: output, Err: err}
	}

	return &release.SignedPackage{
		Package:  pkg,
		Status:   release.SignatureSigned,
		Identity: cred.CertificateFile,
	}, nil
}
