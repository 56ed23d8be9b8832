package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/okravets/shipkit/internal/config"
	"github.com/okravets/shipkit/internal/domain/release"
	"github.com/okravets/shipkit/internal/logger"
	"github.com/okravets/shipkit/internal/service/common"
)

// issTemplate is the Inno Setup descriptor. The contract is declarative:
// a standard installer compiler turns it into a setup executable
// deterministically, no bytes are manipulated here.
const issTemplate = `[Setup]
AppName={{.DisplayName}}
AppVersion={{.Version}}
AppPublisher={{.Publisher}}
DefaultDirName={autopf}\{{.DisplayName}}
DefaultGroupName={{.DisplayName}}
OutputDir=.
OutputBaseFilename={{.AppName}}-setup
ArchitecturesAllowed=x64
ArchitecturesInstallIn64BitMode=x64
Compression=lzma
SolidCompression=yes

[Tasks]
Name: "desktopicon"; Description: "{cm:CreateDesktopIcon}"; GroupDescription: "{cm:AdditionalIcons}"; Flags: unchecked

[Files]
Source: "{{.SourceDir}}\*"; DestDir: "{app}"; Flags: ignoreversion recursesubdirs createallsubdirs

[Icons]
Name: "{group}\{{.DisplayName}}"; Filename: "{app}\{{.ExeName}}"
Name: "{autodesktop}\{{.DisplayName}}"; Filename: "{app}\{{.ExeName}}"; Tasks: desktopicon

[Run]
Filename: "{app}\{{.ExeName}}"; Description: "{cm:LaunchProgram,{{.DisplayName}}}"; Flags: nowait postinstall skipifsilent
`

// isccCandidates are well-known Inno Setup install locations checked after PATH.
var isccCandidates = []string{
	`C:\Program Files (x86)\Inno Setup 6\ISCC.exe`,
	`C:\Program Files\Inno Setup 6\ISCC.exe`,
	`C:\Program Files (x86)\Inno Setup 5\ISCC.exe`,
	`C:\Program Files\Inno Setup 5\ISCC.exe`,
}

// descriptorFields feed the installer descriptor template.
type descriptorFields struct {
	AppName     string
	DisplayName string
	Version     string
	Publisher   string
	SourceDir   string
	ExeName     string
}

// packageWindows renders the installer descriptor and, when the installer
// compiler is available, compiles it into a setup executable. Without the
// compiler the descriptor itself is the output: emitting it is the contract,
// compiling it needs the external tool.
func packageWindows(
	ctx context.Context,
	cfg *config.Config,
	runner common.ToolRunner,
	artifact *release.BuildArtifact,
) (*release.PlatformPackage, error) {
	app := cfg.AppName
	issPath := filepath.Join(cfg.OutputDir, app+".iss")

	fields := descriptorFields{
		AppName:     app,
		DisplayName: cfg.DisplayName,
		Version:     artifact.Version,
		Publisher:   cfg.Publisher,
		SourceDir:   filepath.Base(artifact.RootDir),
		ExeName:     app + ".exe",
	}

	tmpl, err := template.New("iss").Parse(issTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse descriptor template: %w", err)
	}

	var rendered strings.Builder
	if err = tmpl.Execute(&rendered, fields); err != nil {
		return nil, fmt.Errorf("render descriptor: %w", err)
	}

	if err = os.RemoveAll(issPath); err != nil {
		return nil, fmt.Errorf("remove previous descriptor: %w", err)
	}

	if err = os.WriteFile(issPath, []byte(rendered.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write descriptor: %w", err)
	}

	logger.InfoKV(ctx, "Wrote installer descriptor", "path", issPath)

	manifest, err := buildManifest(artifact.RootDir)
	if err != nil {
		return nil, err
	}

	pkg := &release.PlatformPackage{
		Artifact:   *artifact,
		Kind:       release.KindInstallerSource,
		OutputPath: issPath,
		BundlePath: artifact.RootDir,
		Manifest:   manifest,
	}

	isccPath := findInstallerCompiler(runner)
	if isccPath == "" {
		logger.Info(ctx, "Installer compiler (iscc) not found, stopping after descriptor")
		return pkg, nil
	}

	logger.InfoKV(ctx, "Compiling installer", "compiler", isccPath)

	output, err := runner.Run(ctx, isccPath, issPath)
	if err != nil {
		return nil, &release.ToolError{Tool: "iscc", Output: output, Err: err}
	}

	pkg.OutputPath = filepath.Join(cfg.OutputDir, app+"-setup.exe")

	return pkg, nil
}

// findInstallerCompiler locates iscc on PATH, then in well-known install dirs.
func findInstallerCompiler(runner common.ToolRunner) string {
	if path, err := runner.LookPath("iscc"); err == nil {
		return path
	}

	for _, candidate := range isccCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
