package signer

import (
	"context"
	"fmt"
	"time"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/logger"
	"github.com/okravets/shipkit/internal/service/common"
)

// Orchestrator applies the platform signing step to packages.
type Orchestrator struct {
	// cfg supplies the timestamp authority and notarization timeout.
	cfg *config.Config
	// runner executes the platform signing tools.
	runner common.ToolRunner
	// notaryTimeout bounds the synchronous notarization wait.
	notaryTimeout time.Duration
}

// NewOrchestrator creates a signing orchestrator using the configured
// notarization timeout.
func NewOrchestrator(cfg *config.Config, runner common.ToolRunner) *Orchestrator {
	return &Orchestrator{
		cfg:           cfg,
		runner:        runner,
		notaryTimeout: cfg.NotaryTimeout,
	}
}

// WithNotaryTimeout overrides the notarization wait bound.
func (o *Orchestrator) WithNotaryTimeout(timeout time.Duration) *Orchestrator {
	if timeout > 0 {
		o.notaryTimeout = timeout
	}

	return o
}

// Sign wraps the package with a platform signing step gated on credential
// presence. A nil credential is the expected path for community and internal
// builds: the package is returned unchanged with signature "none" and an
// informational caveat about OS unsigned-binary warnings.
func (o *Orchestrator) Sign(
	ctx context.Context,
	pkg *release.PlatformPackage,
	cred *release.SigningCredential,
) (*release.SignedPackage, error) {
	if cred == nil {
		logger.InfoKV(ctx, "No signing credentials detected, releasing unsigned",
			"platform", pkg.Artifact.Platform.String(),
			"caveat", "users will see OS warnings for unsigned binaries")

		return &release.SignedPackage{
			Package: pkg,
			Status:  release.SignatureNone,
		}, nil
	}

	switch {
	case pkg.Artifact.Platform == release.PlatformWindows:
		return o.signWindows(ctx, pkg, cred)
	case pkg.Artifact.Platform.IsMacOS():
		return o.signMacOS(ctx, pkg, cred)
	default:
		return nil, fmt.Errorf("no signing strategy for platform %q", pkg.Artifact.Platform)
	}
}
