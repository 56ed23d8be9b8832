package release

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okravets/shipkit/internal/config"
	domain "github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/logger"
	"github.com/okravets/shipkit/internal/repository/ident"
	"github.com/okravets/shipkit/internal/service/builder"
	"github.com/okravets/shipkit/internal/service/common"
	"github.com/okravets/shipkit/internal/service/imager"
	"github.com/okravets/shipkit/internal/service/packager"
	"github.com/okravets/shipkit/internal/service/signer"
	"github.com/okravets/shipkit/internal/version"
)

// Options contains inputs for the release entry point.
type Options struct {
	// ConfigPath is an optional path to packaging settings.
	ConfigPath string
	// ArtifactDir is the unpacked executable tree for native packaging.
	// Defaults to <output-dir>/<app-name>.
	ArtifactDir string
	// Version is the release version; defaults to the toolkit build version.
	Version string
	// OutputDir overrides the configured output directory when set.
	OutputDir string
	// Platforms lists the native targets to package. Empty skips the
	// native channel.
	Platforms []string
	// WorkspaceDir is the reproducible-build workspace. Empty skips the
	// environment channel.
	WorkspaceDir string
	// SkipImage leaves the environment channel at the package stage.
	SkipImage bool
}

// releaser carries one release run. It is unexported; callers use Run.
type releaser struct {
	cfg      *config.Config
	runner   common.ToolRunner
	manifest *Manifest
}

// Run executes the full release workflow: both channels, the manifest and
// the identity record advance. A failing platform step does not stop the
// remaining platforms; all step errors are reported together at the end.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "shipkit-release")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	releaseVersion := opts.Version
	if releaseVersion == "" {
		releaseVersion = version.Short()
	}

	if err = version.ValidateSemver(releaseVersion); err != nil {
		return err
	}

	rel := &releaser{
		cfg:      cfg,
		runner:   common.ExecRunner{},
		manifest: NewManifest(releaseVersion),
	}

	if actor, actorErr := common.DetectActor(); actorErr == nil {
		rel.manifest.Producer = actor.Username + "@" + actor.Hostname
	}

	logger.InfoKV(ctx, "Release started",
		"version", releaseVersion,
		"platforms", strings.Join(opts.Platforms, ","),
		"producer", rel.manifest.Producer)

	stepErr := rel.runPlatforms(ctx, opts, releaseVersion)

	if opts.WorkspaceDir != "" {
		stepErr = errors.Join(stepErr, rel.runEnvironment(ctx, opts))
	} else {
		logger.Info(ctx, "No workspace given, skipping the environment channel")
	}

	if err = rel.finish(ctx); err != nil {
		return errors.Join(stepErr, err)
	}

	if stepErr != nil {
		return fmt.Errorf("release finished with failed steps: %w", stepErr)
	}

	logger.Info(ctx, "Release completed successfully")

	return nil
}

// runPlatforms packages and signs every requested native target. Each
// platform is an independent step: a failure is collected and the loop
// moves on.
func (r *releaser) runPlatforms(ctx context.Context, opts *Options, releaseVersion string) error {
	var stepErr error

	for _, name := range opts.Platforms {
		platform, err := domain.ParsePlatform(name)
		if err != nil {
			stepErr = errors.Join(stepErr, err)
			continue
		}

		artifactDir := opts.ArtifactDir
		if artifactDir == "" {
			artifactDir = filepath.Join(r.cfg.OutputDir, r.cfg.AppName)
		}

		artifact := &domain.BuildArtifact{
			Platform: platform,
			Version:  releaseVersion,
			RootDir:  artifactDir,
		}

		signed, err := r.releasePlatform(ctx, artifact)
		if err != nil {
			logger.WarnKV(ctx, "Platform step failed",
				"platform", platform.String(), "error", err.Error())

			stepErr = errors.Join(stepErr, fmt.Errorf("%s: %w", platform, err))

			continue
		}

		r.manifest.Channels.Platforms = append(r.manifest.Channels.Platforms, PlatformResult{
			Platform:  platform.String(),
			Package:   signed.Package.OutputPath,
			Signature: string(signed.Status),
		})

		if err = r.manifest.AddFile(signed.Package.OutputPath); err != nil {
			stepErr = errors.Join(stepErr, err)
		}
	}

	return stepErr
}

// releasePlatform runs packaging then signing for one target.
func (r *releaser) releasePlatform(
	ctx context.Context,
	artifact *domain.BuildArtifact,
) (*domain.SignedPackage, error) {
	pkg, err := packager.Package(ctx, r.cfg, r.runner, artifact)
	if err != nil {
		return nil, err
	}

	orchestrator := signer.NewOrchestrator(r.cfg, r.runner)

	return orchestrator.Sign(ctx, pkg, signer.CredentialFromEnv(artifact.Platform))
}

// runEnvironment runs the reproducible channel: environment package, then
// the image layout unless skipped.
func (r *releaser) runEnvironment(ctx context.Context, opts *Options) error {
	workspace, err := builder.LoadWorkspace(opts.WorkspaceDir)
	if err != nil {
		return err
	}

	pkg, err := builder.Build(ctx, workspace, r.cfg.OutputDir)
	if err != nil {
		return err
	}

	result := &EnvironmentResult{
		Package: pkg.Path,
		Digest:  pkg.Digest.String(),
	}

	if !opts.SkipImage {
		layoutDir := filepath.Join(r.cfg.OutputDir, pkg.Name+"-image")

		image, imageErr := imager.BuildImage(ctx, pkg, layoutDir)
		if imageErr != nil {
			return imageErr
		}

		result.Image = image.Reference
	}

	r.manifest.Channels.Environment = result

	return r.manifest.AddFile(pkg.Path)
}

// finish writes the manifest, advances the identity record and logs the
// upload guidance.
func (r *releaser) finish(ctx context.Context) error {
	repository := ident.NewRepository(r.cfg.IdentityFile)

	record, err := repository.Advance(r.cfg.AppName, r.manifest.Version)
	if err != nil {
		return fmt.Errorf("advance identity record: %w", err)
	}

	r.manifest.ProjectID = record.ProjectID

	path, err := r.manifest.Save(r.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("save release manifest: %w", err)
	}

	logger.InfoKV(ctx, "Release manifest saved", "path", path)

	r.printNextSteps(ctx, path)

	return nil
}

// printNextSteps logs human-readable guidance for publishing the release.
func (r *releaser) printNextSteps(ctx context.Context, manifestPath string) {
	files := r.manifest.SortedFiles()
	files = append(files, manifestPath)
	sort.Strings(files)

	var guidance strings.Builder

	guidance.WriteString("You should upload the following files to the release storage:\n")

	for i, name := range files {
		if i > 0 {
			guidance.WriteString(",\n")
		}

		guidance.WriteString(name)
	}

	if r.manifest.Channels.Environment != nil && r.manifest.Channels.Environment.Image != "" {
		guidance.WriteString("\n\nPush the image layout with: skopeo copy oci:")
		guidance.WriteString(filepath.Join(r.cfg.OutputDir, r.cfg.AppName+"-image"))
		guidance.WriteString(" docker://<registry>/")
		guidance.WriteString(r.manifest.Channels.Environment.Image)
	}

	logger.Info(ctx, guidance.String())
}
