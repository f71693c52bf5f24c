package release

import "runtime"

// Platform represents the OS and architecture an asset is selected for.
type Platform struct {
	OS   string
	Arch string
}

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// IsWindows returns true if the platform is Windows.
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

// ExecutableExt returns the platform's executable filename extension.
// Empty on platforms whose executables carry no extension.
func (p Platform) ExecutableExt() string {
	if p.IsWindows() {
		return ".exe"
	}

	return ""
}

// ArchiveExt returns the platform's release archive extension.
func (p Platform) ArchiveExt() string {
	if p.IsWindows() {
		return ".zip"
	}

	return ".tar.gz"
}
