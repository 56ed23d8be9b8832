package signer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/domain/release"
)

// fakeResponse scripts one tool invocation.
type fakeResponse struct {
	// output is the combined tool output to return.
	output string
	// err simulates a non-zero exit.
	err error
	// block makes the call wait for context cancellation, simulating the
	// unbounded latency of the remote notary service.
	block bool
}

// fakeRunner is a ToolRunner double scripted per tool name.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	response := f.responses[toolKey(name, args)]
	if response.block {
		<-ctx.Done()
		return "", ctx.Err()
	}

	return response.output, response.err
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	return name, nil
}

// toolKey keys scripted responses; xcrun subcommands are distinguished.
func toolKey(name string, args []string) string {
	if name == "xcrun" && len(args) > 0 {
		return args[0]
	}

	return name
}

// toolNames flattens recorded calls into their tool keys for assertions.
func (f *fakeRunner) toolNames() []string {
	names := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		names = append(names, toolKey(call[0], call[1:]))
	}

	return names
}

// newSignerConfig returns a validated config with a short notary timeout.
func newSignerConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		AppName:   "app",
		OutputDir: t.TempDir(),
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// newBundlePackage stages a fake signed-bundle package: a bundle directory
// with one payload file and its distribution zip.
func newBundlePackage(t *testing.T, cfg *config.Config) *release.PlatformPackage {
	t.Helper()

	bundleDir := filepath.Join(cfg.OutputDir, "app.app")
	require.NoError(t, os.MkdirAll(filepath.Join(bundleDir, "Contents", "MacOS"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(bundleDir, "Contents", "MacOS", "app"), []byte("#!/bin/sh\n"), 0o755))

	zipPath := filepath.Join(cfg.OutputDir, "app-macos-arm64.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("placeholder"), 0o644))

	return &release.PlatformPackage{
		Artifact: release.BuildArtifact{
			Platform: release.PlatformMacOSARM64,
			Version:  "1.0.0",
		},
		Kind:       release.KindAppBundle,
		OutputPath: zipPath,
		BundlePath: bundleDir,
	}
}

// TestSign_NoCredentialsPassThrough verifies the optional-step-as-no-op
// contract: without credentials the package is returned unmodified with
// signature "none" and no tool runs.
func TestSign_NoCredentialsPassThrough(t *testing.T) {
	t.Parallel()

	cfg := newSignerConfig(t)
	runner := &fakeRunner{}
	pkg := newBundlePackage(t, cfg)

	before, err := os.ReadFile(pkg.OutputPath)
	require.NoError(t, err)

	signed, err := NewOrchestrator(cfg, runner).Sign(context.Background(), pkg, nil)
	require.NoError(t, err)
	require.Equal(t, release.SignatureNone, signed.Status)
	require.Same(t, pkg, signed.Package)
	require.Empty(t, runner.calls)

	// The packaged payload is untouched.
	after, err := os.ReadFile(pkg.OutputPath)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// TestSignWindows_Success verifies the signing tool invocation shape.
func TestSignWindows_Success(t *testing.T) {
	t.Parallel()

	cfg := newSignerConfig(t)
	runner := &fakeRunner{}

	installer := filepath.Join(cfg.OutputDir, "app-setup.exe")
	require.NoError(t, os.WriteFile(installer, []byte("MZ"), 0o755))

	pkg := &release.PlatformPackage{
		Artifact:   release.BuildArtifact{Platform: release.PlatformWindows, Version: "1.0.0"},
		Kind:       release.KindInstallerSource,
		OutputPath: installer,
	}

	cred := &release.SigningCredential{
		Platform:        release.PlatformWindows,
		CertificateFile: "cert.pfx",
		Secret:          "hunter2",
	}

	signed, err := NewOrchestrator(cfg, runner).Sign(context.Background(), pkg, cred)
	require.NoError(t, err)
	require.Equal(t, release.SignatureSigned, signed.Status)

	require.Len(t, runner.calls, 1)
	require.Equal(t, []string{
		"signtool", "sign",
		"/f", "cert.pfx",
		"/p", "hunter2",
		"/tr", cfg.TimestampURL,
		"/td", "sha256",
		"/fd", "sha256",
		installer,
	}, runner.calls[0])
}

// TestSignWindows_ToolFailure verifies a failing tool is reported, not swallowed.
func TestSignWindows_ToolFailure(t *testing.T) {
	t.Parallel()

	cfg := newSignerConfig(t)
	runner := &fakeRunner{
		responses: map[string]fakeResponse{
			"signtool": {output: "SignTool Error: No certificates were found", err: errors.New("exit status 1")},
		},
	}

	pkg := &release.PlatformPackage{
		Artifact:   release.BuildArtifact{Platform: release.PlatformWindows, Version: "1.0.0"},
		OutputPath: filepath.Join(cfg.OutputDir, "app-setup.exe"),
	}

	cred := &release.SigningCredential{CertificateFile: "cert.pfx", Secret: "bad"}

	_, err := NewOrchestrator(cfg, runner).Sign(context.Background(), pkg, cred)

	var toolErr *release.ToolError

	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, "signtool", toolErr.Tool)
	require.Contains(t, toolErr.Output, "No certificates")
}

// TestSignMacOS_SignedWithoutNotaryAccount verifies code-signing alone is a
// valid terminal state when the notarization account is not configured.
func TestSignMacOS_SignedWithoutNotaryAccount(t *testing.T) {
	t.Parallel()

	cfg := newSignerConfig(t)
	runner := &fakeRunner{}
	pkg := newBundlePackage(t, cfg)

	cred := &release.SigningCredential{
		Platform: release.PlatformMacOSARM64,
		Identity: "Developer ID Application: Example Corp",
	}

	signed, err := NewOrchestrator(cfg, runner).Sign(context.Background(), pkg, cred)
	require.NoError(t, err)
	require.Equal(t, release.SignatureSigned, signed.Status)
	require.Empty(t, signed.NotarizationID)
	require.Equal(t, []string{"codesign"}, runner.toolNames())

	// The distribution zip was rebuilt from the signed bundle.
	zipBytes, err := os.ReadFile(pkg.OutputPath)
	require.NoError(t, err)
	require.NotEqual(t, "placeholder", string(zipBytes))
}

// TestSignMacOS_NotarizationAccepted verifies the full two-stage flow with
// ticket stapling.
func TestSignMacOS_NotarizationAccepted(t *testing.T) {
	t.Parallel()

	cfg := newSignerConfig(t)
	runner := &fakeRunner{
		responses: map[string]fakeResponse{
			"notarytool": {output: "  id: 4a8e-1234\n  status: In Progress\n  status: Accepted"},
		},
	}
	pkg := newBundlePackage(t, cfg)

	cred := &release.SigningCredential{
		Platform: release.PlatformMacOSARM64,
		Identity: "Developer ID Application: Example Corp",
		AppleID:  "dev@example.com",
		TeamID:   "TEAM123",
		Secret:   "app-specific",
	}

	signed, err := NewOrchestrator(cfg, runner).Sign(context.Background(), pkg, cred)
	require.NoError(t, err)
	require.Equal(t, release.SignatureNotarized, signed.Status)
	require.Equal(t, "4a8e-1234", signed.NotarizationID)
	require.Equal(t, []string{"codesign", "notarytool", "stapler"}, runner.toolNames())
}

// TestSignMacOS_NotarizationRejected verifies rejection surfaces as its own
// error type: the remediation is fix-and-rebuild, not retry.
func TestSignMacOS_NotarizationRejected(t *testing.T) {
	t.Parallel()

	cfg := newSignerConfig(t)
	runner := &fakeRunner{
		responses: map[string]fakeResponse{
			"notarytool": {output: "  id: 4a8e-9999\n  status: Invalid"},
		},
	}
	pkg := newBundlePackage(t, cfg)

	cred := &release.SigningCredential{
		Platform: release.PlatformMacOSARM64,
		Identity: "Developer ID Application: Example Corp",
		AppleID:  "dev@example.com",
		TeamID:   "TEAM123",
		Secret:   "app-specific",
	}

	_, err := NewOrchestrator(cfg, runner).Sign(context.Background(), pkg, cred)

	var rejected *release.NotarizationRejectedError

	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "Invalid", rejected.Reason)
}

// TestSignMacOS_NotarizationTimeout verifies the bounded wait yields the
// distinct timeout error and never reports the package as notarized.
func TestSignMacOS_NotarizationTimeout(t *testing.T) {
	t.Parallel()

	cfg := newSignerConfig(t)
	runner := &fakeRunner{
		responses: map[string]fakeResponse{
			"notarytool": {block: true},
		},
	}
	pkg := newBundlePackage(t, cfg)

	cred := &release.SigningCredential{
		Platform: release.PlatformMacOSARM64,
		Identity: "Developer ID Application: Example Corp",
		AppleID:  "dev@example.com",
		TeamID:   "TEAM123",
		Secret:   "app-specific",
	}

	orchestrator := NewOrchestrator(cfg, runner).WithNotaryTimeout(50 * time.Millisecond)

	_, err := orchestrator.Sign(context.Background(), pkg, cred)
	require.ErrorIs(t, err, release.ErrNotarizationTimeout)

	// The signed bundle remains intact as the valid fallback.
	_, err = os.Stat(pkg.BundlePath)
	require.NoError(t, err)
}

// TestParseNotaryOutput checks id extraction and last-status-wins parsing.
func TestParseNotaryOutput(t *testing.T) {
	t.Parallel()

	id, status := parseNotaryOutput("  id: abc-123\n  status: In Progress\n  status: Accepted\n")
	require.Equal(t, "abc-123", id)
	require.Equal(t, "Accepted", status)

	id, status = parseNotaryOutput("")
	require.Empty(t, id)
	require.Empty(t, status)
}

// TestCredentialFromEnv verifies the environment gate for each platform.
func TestCredentialFromEnv(t *testing.T) {
	// Mutates process environment; not parallel.
	t.Setenv(EnvWinCertFile, "")
	t.Setenv(EnvWinCertPassword, "")
	t.Setenv(EnvMacSigningIdentity, "")

	require.Nil(t, CredentialFromEnv(release.PlatformWindows))
	require.Nil(t, CredentialFromEnv(release.PlatformMacOSARM64))
	require.Nil(t, CredentialFromEnv(release.PlatformLinux))

	t.Setenv(EnvWinCertFile, "cert.pfx")
	require.Nil(t, CredentialFromEnv(release.PlatformWindows))

	t.Setenv(EnvWinCertPassword, "hunter2")

	cred := CredentialFromEnv(release.PlatformWindows)
	require.NotNil(t, cred)
	require.Equal(t, "cert.pfx", cred.CertificateFile)

	t.Setenv(EnvMacSigningIdentity, "Developer ID Application: Example Corp")

	cred = CredentialFromEnv(release.PlatformMacOSARM64)
	require.NotNil(t, cred)
	require.False(t, canNotarize(cred))

	t.Setenv(EnvMacNotaryAppleID, "dev@example.com")
	t.Setenv(EnvMacNotaryTeamID, "TEAM123")
	t.Setenv(EnvMacNotaryPassword, "app-specific")

	require.True(t, canNotarize(CredentialFromEnv(release.PlatformMacOSARM64)))
}
