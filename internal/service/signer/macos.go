package signer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/fsutil"
	"github.com/okravets/shipkit/internal/logger"
)

// signMacOS runs the two-stage macOS flow: code-sign the bundle, then submit
// a zipped bundle for notarization and block until a ticket is returned or
// the request is rejected. The wait is bounded by the configured timeout;
// on timeout the signed-but-unnotarized bundle stays intact and the caller
// falls back to the prior-stage package.
func (o *Orchestrator) signMacOS(
	ctx context.Context,
	pkg *release.PlatformPackage,
	cred *release.SigningCredential,
) (*release.SignedPackage, error) {
	logger.InfoKV(ctx, "Code-signing bundle",
		"bundle", pkg.BundlePath, "identity", cred.Identity)

	output, err := o.runner.Run(ctx, "codesign",
		"--deep", "--force",
		"--options", "runtime",
		"--timestamp",
		"--sign", cred.Identity,
		pkg.BundlePath,
	)
	if err != nil {
		return nil, &release.ToolError{Tool: "codesign", Output: output, Err: err}
	}

	// The distribution zip must carry the signed bundle contents.
	if err = o.refreshBundleZip(pkg); err != nil {
		return nil, err
	}

	signed := &release.SignedPackage{
		Package:  pkg,
		Status:   release.SignatureSigned,
		Identity: cred.Identity,
	}

	if !canNotarize(cred) {
		logger.Info(ctx, "Notarization account not configured, releasing signed without ticket")
		return signed, nil
	}

	submissionID, err := o.notarize(ctx, pkg, cred)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Stapling notarization ticket", "bundle", pkg.BundlePath)

	output, err = o.runner.Run(ctx, "xcrun", "stapler", "staple", pkg.BundlePath)
	if err != nil {
		return nil, &release.ToolError{Tool: "stapler", Output: output, Err: err}
	}

	// Re-zip once more so the published archive includes the ticket.
	if err = o.refreshBundleZip(pkg); err != nil {
		return nil, err
	}

	signed.Status = release.SignatureNotarized
	signed.NotarizationID = submissionID

	return signed, nil
}

// notarize submits the zipped bundle and waits synchronously for the verdict,
// bounded by the orchestrator's timeout. Timeout and rejection are surfaced
// as distinct errors because their remediation differs: retry versus
// fix-and-rebuild.
func (o *Orchestrator) notarize(
	ctx context.Context,
	pkg *release.PlatformPackage,
	cred *release.SigningCredential,
) (string, error) {
	logger.InfoKV(ctx, "Submitting for notarization",
		"archive", pkg.OutputPath, "timeout", o.notaryTimeout.String())

	notarizeCtx, cancel := context.WithTimeout(ctx, o.notaryTimeout)
	defer cancel()

	output, err := o.runner.Run(notarizeCtx, "xcrun", "notarytool", "submit",
		pkg.OutputPath,
		"--apple-id", cred.AppleID,
		"--team-id", cred.TeamID,
		"--password", cred.Secret,
		"--wait",
	)
	if errors.Is(notarizeCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("after %s: %w", o.notaryTimeout, release.ErrNotarizationTimeout)
	}

	if err != nil {
		return "", &release.ToolError{Tool: "notarytool", Output: output, Err: err}
	}

	submissionID, status := parseNotaryOutput(output)
	if !strings.EqualFold(status, "Accepted") {
		return "", &release.NotarizationRejectedError{Reason: status}
	}

	return submissionID, nil
}

// refreshBundleZip rebuilds the distribution zip from the bundle directory.
func (o *Orchestrator) refreshBundleZip(pkg *release.PlatformPackage) error {
	bundleName := filepath.Base(pkg.BundlePath)

	if err := fsutil.ZipDir(pkg.OutputPath, pkg.BundlePath, bundleName); err != nil {
		return fmt.Errorf("refresh bundle zip: %w", err)
	}

	return nil
}

// parseNotaryOutput extracts the submission id and final status from the
// notary tool's plain-text output. The last status line wins because the
// tool echoes intermediate "In Progress" states while waiting.
func parseNotaryOutput(output string) (submissionID, status string) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		if value, found := strings.CutPrefix(line, "id: "); found && submissionID == "" {
			submissionID = strings.TrimSpace(value)
		}

		if value, found := strings.CutPrefix(line, "status: "); found {
			status = strings.TrimSpace(value)
		}
	}

	return submissionID, status
}
