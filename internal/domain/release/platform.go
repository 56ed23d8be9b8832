package release

import (
	"fmt"
	"runtime"
)

// Platform identifies a packaging target. macOS targets are split by
// architecture so their outputs never collide on disk.
type Platform string

const (
	// PlatformLinux produces a tarball with a launcher script.
	PlatformLinux Platform = "linux"
	// PlatformMacOSARM64 produces an application bundle for Apple silicon.
	PlatformMacOSARM64 Platform = "macos-arm64"
	// PlatformMacOSAMD64 produces an application bundle for Intel Macs.
	PlatformMacOSAMD64 Platform = "macos-x86_64"
	// PlatformWindows produces an installer descriptor for an external compiler.
	PlatformWindows Platform = "windows"
)

// errUnknownPlatform is returned when a platform string cannot be parsed.
var errUnknownPlatform = fmt.Errorf("unknown platform")

// ParsePlatform converts a user-supplied string into a Platform.
// "macos" without an architecture suffix resolves to the host architecture.
func ParsePlatform(s string) (Platform, error) {
	switch s {
	case "linux":
		return PlatformLinux, nil
	case "macos", "darwin":
		return hostMacOSPlatform(), nil
	case "macos-arm64":
		return PlatformMacOSARM64, nil
	case "macos-x86_64", "macos-amd64":
		return PlatformMacOSAMD64, nil
	case "windows":
		return PlatformWindows, nil
	default:
		return "", fmt.Errorf("%w: %s", errUnknownPlatform, s)
	}
}

// HostPlatform returns the packaging platform matching the current host.
func HostPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return hostMacOSPlatform()
	case "windows":
		return PlatformWindows
	default:
		return PlatformLinux
	}
}

// hostMacOSPlatform picks the macOS platform variant for the host architecture.
func hostMacOSPlatform() Platform {
	if runtime.GOARCH == "arm64" {
		return PlatformMacOSARM64
	}

	return PlatformMacOSAMD64
}

// IsMacOS reports whether the platform is one of the macOS variants.
func (p Platform) IsMacOS() bool {
	return p == PlatformMacOSARM64 || p == PlatformMacOSAMD64
}

// Arch returns the architecture suffix used in output file names.
// Empty for platforms that produce a single architecture-neutral output.
func (p Platform) Arch() string {
	switch p {
	case PlatformMacOSARM64:
		return "arm64"
	case PlatformMacOSAMD64:
		return "x86_64"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}
